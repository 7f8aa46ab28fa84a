package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/simplify/marketplace-api/internal/core/domain"
	"github.com/simplify/marketplace-api/internal/core/ports"
)

const minPasswordLength = 8

// dummyHash is compared against when the email is unknown so that a failed
// login costs the same whether or not the account exists.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

type tokenClaims struct {
	Role  domain.Role `json:"role"`
	Email string      `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// AuthService implements registration, login, token validation and the
// administrative account operations. The signing key is fixed at
// construction and never mutated.
type AuthService struct {
	repo      ports.AccountRepository
	stores    Stores
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

func NewAuthService(stores Stores, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		repo:      stores.Accounts,
		stores:    stores,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.Validationf("email is invalid")
	}
	if len(in.Password) < minPasswordLength {
		return nil, domain.Validationf("password must be at least %d characters", minPasswordLength)
	}

	var profile domain.Profile
	switch in.Role {
	case domain.RoleClient:
		if in.Client == nil || strings.TrimSpace(in.Client.FullName) == "" {
			return nil, domain.Validationf("client profile requires full_name")
		}
		profile = *in.Client
	case domain.RoleProvider:
		if in.Provider == nil || strings.TrimSpace(in.Provider.CompanyName) == "" {
			return nil, domain.Validationf("provider profile requires company_name")
		}
		profile = *in.Provider
	default:
		return nil, domain.Validationf("role must be %s or %s", domain.RoleClient, domain.RoleProvider)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	created, err := s.repo.Create(ctx, &domain.Account{
		Email:        email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Profile:      profile,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("account_id", created.ID).Str("role", string(created.Role)).Msg("account registered")
	return created, nil
}

// Authenticate verifies the secret and issues a signed token. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (string, *domain.Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("authenticate: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(account)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, account, nil
}

// Validate verifies signature and expiry. It performs no I/O.
func (s *AuthService) Validate(token string) (domain.Principal, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.Principal{}, domain.ErrTokenExpired
	case err != nil || !parsed.Valid:
		return domain.Principal{}, domain.ErrTokenInvalid
	}

	if claims.Subject == "" || !claims.Role.Valid() {
		return domain.Principal{}, domain.ErrTokenInvalid
	}
	return domain.Principal{Subject: claims.Subject, Role: claims.Role, Email: claims.Email}, nil
}

// ChangeRole is the administrative override of an account's role.
func (s *AuthService) ChangeRole(ctx context.Context, actor domain.Principal, accountID string, role domain.Role) (*domain.Account, error) {
	if err := domain.Authorize(actor.Role, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, domain.Validationf("unknown role %q", role)
	}
	if err := s.repo.UpdateRole(ctx, accountID, role); err != nil {
		return nil, fmt.Errorf("change role: %w", err)
	}
	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("change role: %w", err)
	}

	s.log.Warn().Str("account_id", accountID).Str("role", string(role)).Str("actor", actor.Subject).Msg("account role overridden")
	return account, nil
}

// DeleteAccount removes an account with everything that hangs off it, in one
// transaction: the offerings it owns with their requests and messages, and
// the requests it made as a client with their messages. Both sides are purged
// whatever the current role, since an overridden role can leave either behind.
// Ratings are kept as provider history.
func (s *AuthService) DeleteAccount(ctx context.Context, actor domain.Principal, accountID string) error {
	if err := domain.Authorize(actor.Role, domain.RoleAdmin); err != nil {
		return err
	}
	if actor.Subject == accountID {
		return fmt.Errorf("administrators cannot delete their own account: %w", domain.ErrIllegalState)
	}
	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	var offerings, requests int64
	err = s.stores.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		owned, err := s.stores.Offerings.FindByOwner(ctx, account.ID)
		if err != nil {
			return err
		}
		for _, o := range owned {
			n, err := purgeOffering(ctx, s.stores, o.ID)
			if err != nil {
				return fmt.Errorf("purge offering %s: %w", o.ID, err)
			}
			offerings++
			requests += n
		}
		n, err := purgeClientRequests(ctx, s.stores, account.ID)
		if err != nil {
			return err
		}
		requests += n
		return s.stores.Accounts.DeleteByID(ctx, account.ID)
	})
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	s.log.Warn().
		Str("account_id", account.ID).
		Str("role", string(account.Role)).
		Int64("offerings_removed", offerings).
		Int64("requests_removed", requests).
		Str("actor", actor.Subject).
		Msg("account deleted")
	return nil
}

// EnsureAdmin creates the bootstrap ADMIN account unless the email is
// already registered. An existing account is returned untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (*domain.Account, error) {
	email = normalizeEmail(email)
	if email == "" || len(password) < minPasswordLength {
		return nil, domain.Validationf("admin bootstrap requires an email and a password of at least %d characters", minPasswordLength)
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("ensure admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	created, err := s.repo.Create(ctx, &domain.Account{
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		Profile:      domain.AdminProfile{},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure admin: %w", err)
	}

	s.log.Info().Str("account_id", created.ID).Msg("admin account bootstrapped")
	return created, nil
}

func (s *AuthService) generateToken(account *domain.Account) (string, error) {
	now := s.now()
	claims := tokenClaims{
		Role:  account.Role,
		Email: account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.jwtSecret)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
