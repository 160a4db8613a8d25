package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/aryankumarrai/pharmakrypt/internal/errs"
	"github.com/aryankumarrai/pharmakrypt/internal/model"
)

func TestCredentialRepo_Create_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCredentialRepo(db)
	ctx := context.Background()

	id := uuid.Must(uuid.NewV4())
	mock.ExpectExec(`INSERT INTO credentials \(entity_id, name, location, role, login_id, secret\)`).
		WithArgs(id, "City Pharmacy", "Pune", "pharmacy", "LIC-ABCDEF", "secret01").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := r.Create(ctx, &model.Credential{
		EntityID: id, Name: "City Pharmacy", Location: "Pune",
		Role: model.RolePharmacy, LoginID: "LIC-ABCDEF", Secret: "secret01",
	})
	require.NoError(t, err)
}

func TestCredentialRepo_Create_DuplicateLogin(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCredentialRepo(db)
	ctx := context.Background()

	id := uuid.Must(uuid.NewV4())
	mock.ExpectExec(`INSERT INTO credentials`).
		WithArgs(id, "City Pharmacy", "Pune", "pharmacy", "LIC-ABCDEF", "secret01").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := r.Create(ctx, &model.Credential{
		EntityID: id, Name: "City Pharmacy", Location: "Pune",
		Role: model.RolePharmacy, LoginID: "LIC-ABCDEF", Secret: "secret01",
	})
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
}

func TestCredentialRepo_GetByLogin_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCredentialRepo(db)
	ctx := context.Background()

	id := uuid.Must(uuid.NewV4())
	issued := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT entity_id, name, location, role, login_id, secret, issued_at FROM credentials WHERE role=\$1 AND login_id=\$2`).
		WithArgs("pharmacy", "LIC-ABCDEF").
		WillReturnRows(pgxmock.NewRows([]string{"entity_id", "name", "location", "role", "login_id", "secret", "issued_at"}).
			AddRow(id, "City Pharmacy", "Pune", "pharmacy", "LIC-ABCDEF", "secret01", issued))

	c, err := r.GetByLogin(ctx, model.RolePharmacy, "LIC-ABCDEF")
	require.NoError(t, err)
	require.Equal(t, id, c.EntityID)
	require.Equal(t, model.RolePharmacy, c.Role)
	require.Equal(t, "secret01", c.Secret)
}

func TestCredentialRepo_GetByLogin_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCredentialRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT .+ FROM credentials WHERE role=\$1 AND login_id=\$2`).
		WithArgs("pharmacy", "LIC-NOSUCH").
		WillReturnRows(pgxmock.NewRows([]string{"entity_id"}))

	_, err := r.GetByLogin(ctx, model.RolePharmacy, "LIC-NOSUCH")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCredentialRepo_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCredentialRepo(db)
	ctx := context.Background()

	id := uuid.Must(uuid.NewV4())
	mock.ExpectExec(`DELETE FROM credentials WHERE entity_id=\$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.Delete(ctx, id))

	mock.ExpectExec(`DELETE FROM credentials WHERE entity_id=\$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, r.Delete(ctx, id), errs.ErrNotFound)
}
