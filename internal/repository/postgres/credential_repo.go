package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/aryankumarrai/pharmakrypt/internal/errs"
	"github.com/aryankumarrai/pharmakrypt/internal/model"
)

// CredentialRepo implements CredentialRepository using PostgreSQL.
type CredentialRepo struct{ db *DB }

// NewCredentialRepo constructs a credential repository.
func NewCredentialRepo(db *DB) *CredentialRepo { return &CredentialRepo{db: db} }

const credentialColumns = `entity_id, name, location, role, login_id, secret, issued_at`

// Create inserts a new credential row.
func (r *CredentialRepo) Create(ctx context.Context, c *model.Credential) error {
	const q = `
INSERT INTO credentials (entity_id, name, location, role, login_id, secret)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Pool.Exec(ctx, q, c.EntityID, c.Name, c.Location, string(c.Role), c.LoginID, c.Secret)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByLogin selects a credential by role and login id.
func (r *CredentialRepo) GetByLogin(ctx context.Context, role model.Role, loginID string) (*model.Credential, error) {
	const q = `SELECT ` + credentialColumns + ` FROM credentials WHERE role=$1 AND login_id=$2`
	return scanCredential(r.db.Pool.QueryRow(ctx, q, string(role), loginID))
}

// GetByID selects a credential by entity id.
func (r *CredentialRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Credential, error) {
	const q = `SELECT ` + credentialColumns + ` FROM credentials WHERE entity_id=$1`
	return scanCredential(r.db.Pool.QueryRow(ctx, q, id))
}

// ListByRole returns all credentials of one role, newest first.
func (r *CredentialRepo) ListByRole(ctx context.Context, role model.Role) ([]model.Credential, error) {
	const q = `SELECT ` + credentialColumns + ` FROM credentials WHERE role=$1 ORDER BY issued_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Credential
	for rows.Next() {
		var c model.Credential
		var role string
		if err := rows.Scan(&c.EntityID, &c.Name, &c.Location, &role, &c.LoginID, &c.Secret, &c.IssuedAt); err != nil {
			return nil, err
		}
		c.Role = model.Role(role)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes a credential; the next authentication against it fails.
func (r *CredentialRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM credentials WHERE entity_id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func scanCredential(row pgx.Row) (*model.Credential, error) {
	var c model.Credential
	var role string
	if err := row.Scan(&c.EntityID, &c.Name, &c.Location, &role, &c.LoginID, &c.Secret, &c.IssuedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	c.Role = model.Role(role)
	return &c, nil
}
