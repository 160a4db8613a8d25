package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/aryankumarrai/pharmakrypt/internal/errs"
	"github.com/aryankumarrai/pharmakrypt/internal/idgen"
	"github.com/aryankumarrai/pharmakrypt/internal/limiter"
	"github.com/aryankumarrai/pharmakrypt/internal/model"
	"github.com/aryankumarrai/pharmakrypt/internal/notify"
	"github.com/aryankumarrai/pharmakrypt/internal/repository"
)

// Login id prefixes and body lengths per role. Distributors authenticate by
// identifier alone, so they get a full grouped id rather than a short body.
const (
	manufacturerPrefix  = "MFG"
	manufacturerBodyLen = 4
	pharmacyPrefix      = "LIC"
	pharmacyBodyLen     = 6
	distributorPrefix   = "DIST"

	secretLen = 8
)

// Claims is the token payload carried by authenticated callers.
type Claims struct {
	EntityID string     `json:"entity_id"`
	Role     model.Role `json:"role"`
	Name     string     `json:"name"`
	Location string     `json:"location"`
	jwt.RegisteredClaims
}

// IssueRequest names the entity a new credential is for.
type IssueRequest struct {
	Name     string
	Location string
}

// RegistryService manages the credential lifecycle: issuance, authentication
// and revocation.
type RegistryService interface {
	// IssueManufacturer mints a manufacturer credential. Root-only.
	IssueManufacturer(ctx context.Context, req IssueRequest) (*model.Credential, error)
	// IssuePharmacy mints a pharmacy credential. Root-only.
	IssuePharmacy(ctx context.Context, req IssueRequest) (*model.Credential, error)
	// IssueDistributor mints a distributor credential on behalf of a
	// manufacturer and raises the registration alert so the root
	// authority sees the new party immediately.
	IssueDistributor(ctx context.Context, req IssueRequest) (*model.Credential, error)
	// Authenticate verifies a login id and secret and returns a signed token.
	Authenticate(ctx context.Context, role model.Role, loginID, secret, clientIP string) (string, *model.Credential, error)
	// Lookup returns a credential by role and login id without
	// authenticating it.
	Lookup(ctx context.Context, role model.Role, loginID string) (*model.Credential, error)
	// Revoke deletes a credential; its tokens outlive it only until expiry.
	Revoke(ctx context.Context, entityID uuid.UUID) error
	// List returns credentials of one role, newest first.
	List(ctx context.Context, role model.Role) ([]model.Credential, error)
}

type RegistryServiceImpl struct {
	creds    repository.CredentialRepository
	alerts   repository.AlertRepository
	notifier notify.Notifier
	limiter  limiter.Limiter
	log      *zap.Logger

	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewRegistryService(creds repository.CredentialRepository, alerts repository.AlertRepository, notifier notify.Notifier, lim limiter.Limiter, log *zap.Logger, jwtSecret []byte, tokenTTL time.Duration) *RegistryServiceImpl {
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RegistryServiceImpl{
		creds:     creds,
		alerts:    alerts,
		notifier:  notifier,
		limiter:   lim,
		log:       log,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

func (s *RegistryServiceImpl) IssueManufacturer(ctx context.Context, req IssueRequest) (*model.Credential, error) {
	return s.issue(ctx, model.RoleManufacturer, req, manufacturerPrefix, manufacturerBodyLen, true)
}

func (s *RegistryServiceImpl) IssuePharmacy(ctx context.Context, req IssueRequest) (*model.Credential, error) {
	return s.issue(ctx, model.RolePharmacy, req, pharmacyPrefix, pharmacyBodyLen, true)
}

func (s *RegistryServiceImpl) IssueDistributor(ctx context.Context, req IssueRequest) (*model.Credential, error) {
	cred, err := s.issue(ctx, model.RoleDistributor, req, distributorPrefix, 0, false)
	if err != nil {
		return nil, err
	}

	ev := model.ScanEvent{
		ActorRole:     model.RoleDistributor,
		ActorName:     cred.Name,
		ActorLocation: cred.Location,
		Timestamp:     cred.IssuedAt,
		Action:        "Registration",
		Result:        model.ScanValid,
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	alert := model.Alert{
		ID:                 id,
		SubjectName:        cred.Name,
		SubjectID:          cred.LoginID,
		OriginalEvidence:   ev,
		TriggeringEvidence: ev,
		Timestamp:          s.now(),
		Category:           CategoryNewDistributor,
		Status:             model.AlertActive,
	}
	if err := s.alerts.Create(ctx, &alert); err != nil {
		return nil, err
	}
	if err := s.notifier.PublishAlert(ctx, alert); err != nil {
		s.log.Warn("alert notify failed", zap.String("alert", alert.ID.String()), zap.Error(err))
	}
	return cred, nil
}

func (s *RegistryServiceImpl) issue(ctx context.Context, role model.Role, req IssueRequest, prefix string, bodyLen int, withSecret bool) (*model.Credential, error) {
	if req.Name == "" {
		return nil, errors.New("validation: empty entity name")
	}
	if req.Location == "" {
		return nil, errors.New("validation: empty entity location")
	}

	entityID, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	cred := &model.Credential{
		EntityID: entityID,
		Name:     req.Name,
		Location: req.Location,
		Role:     role,
		IssuedAt: s.now(),
	}
	if withSecret {
		cred.Secret = idgen.Secret(secretLen)
	}

	// Random ids collide only on generator misuse; one retry keeps the
	// unique (role, login_id) pair without looping forever.
	for attempt := 0; attempt < 2; attempt++ {
		if bodyLen > 0 {
			cred.LoginID = idgen.LoginID(prefix, bodyLen)
		} else {
			cred.LoginID = idgen.New(prefix)
		}
		err = s.creds.Create(ctx, cred)
		if err == nil {
			return cred, nil
		}
		if !errors.Is(err, errs.ErrAlreadyExists) {
			return nil, err
		}
	}
	return nil, err
}

// Authenticate checks the pair against the stored credential. Lookups and
// comparisons run behind the limiter so credential bodies cannot be
// enumerated online.
func (s *RegistryServiceImpl) Authenticate(ctx context.Context, role model.Role, loginID, secret, clientIP string) (string, *model.Credential, error) {
	if loginID == "" {
		return "", nil, errors.New("validation: empty login id")
	}
	if !role.Valid() || role == model.RolePublic {
		return "", nil, fmt.Errorf("validation: role %q cannot authenticate", role)
	}

	ipHash := limiter.HashIP(clientIP)
	if s.limiter != nil {
		ok, retryAfter, err := s.limiter.Allow(ctx, loginID, ipHash)
		if err != nil {
			return "", nil, err
		}
		if !ok {
			return "", nil, fmt.Errorf("login %s blocked for %s: %w", loginID, retryAfter, errs.ErrRateLimited)
		}
	}

	cred, err := s.creds.GetByLogin(ctx, role, loginID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			s.fail(ctx, loginID, ipHash)
			return "", nil, errs.ErrUnauthorized
		}
		return "", nil, err
	}
	if subtle.ConstantTimeCompare([]byte(cred.Secret), []byte(secret)) != 1 {
		s.fail(ctx, loginID, ipHash)
		return "", nil, errs.ErrUnauthorized
	}
	if s.limiter != nil {
		if err := s.limiter.Success(ctx, loginID, ipHash); err != nil {
			s.log.Warn("limiter reset failed", zap.String("login", loginID), zap.Error(err))
		}
	}

	token, err := s.signToken(cred)
	if err != nil {
		return "", nil, err
	}
	return token, cred, nil
}

func (s *RegistryServiceImpl) fail(ctx context.Context, loginID string, ipHash []byte) {
	if s.limiter == nil {
		return
	}
	if _, _, err := s.limiter.Failure(ctx, loginID, ipHash); err != nil {
		s.log.Warn("limiter record failed", zap.String("login", loginID), zap.Error(err))
	}
}

func (s *RegistryServiceImpl) signToken(cred *model.Credential) (string, error) {
	now := s.now()
	claims := Claims{
		EntityID: cred.EntityID.String(),
		Role:     cred.Role,
		Name:     cred.Name,
		Location: cred.Location,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   cred.LoginID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// ParseToken validates a signed token and returns its claims.
func (s *RegistryServiceImpl) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, errs.ErrUnauthorized
	}
	return claims, nil
}

func (s *RegistryServiceImpl) Lookup(ctx context.Context, role model.Role, loginID string) (*model.Credential, error) {
	if !role.Valid() || loginID == "" {
		return nil, fmt.Errorf("lookup %s/%s: %w", role, loginID, errs.ErrNotFound)
	}
	return s.creds.GetByLogin(ctx, role, loginID)
}

func (s *RegistryServiceImpl) Revoke(ctx context.Context, entityID uuid.UUID) error {
	return s.creds.Delete(ctx, entityID)
}

func (s *RegistryServiceImpl) List(ctx context.Context, role model.Role) ([]model.Credential, error) {
	if !role.Valid() || role == model.RolePublic {
		return nil, fmt.Errorf("validation: unknown role %q", role)
	}
	return s.creds.ListByRole(ctx, role)
}
