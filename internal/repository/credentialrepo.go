package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/aryankumarrai/pharmakrypt/internal/model"
)

// CredentialRepository owns registered actor credentials. Revocation is an
// unconditional delete; no disabled intermediate state exists.
type CredentialRepository interface {
	// Create inserts a new credential. A colliding login id surfaces as
	// errs.ErrAlreadyExists.
	Create(ctx context.Context, c *model.Credential) error

	// GetByLogin loads a credential by role and login id.
	GetByLogin(ctx context.Context, role model.Role, loginID string) (*model.Credential, error)

	// GetByID loads a credential by entity id.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Credential, error)

	// ListByRole returns all credentials of one role.
	ListByRole(ctx context.Context, role model.Role) ([]model.Credential, error)

	// Delete revokes a credential immediately and irreversibly.
	Delete(ctx context.Context, id uuid.UUID) error
}
