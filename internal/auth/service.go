package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/evertill/pos-api/internal/common"
)

const defaultAccessTTL = 12 * time.Hour

// Operator roles. Admins manage catalog, event settings, and operator
// accounts; operators run tills.
const (
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

const roleClaim = "role"

// Operator is the safe subset of an operator account returned to clients.
type Operator struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LoginResult bundles the token material returned after a successful login.
type LoginResult struct {
	Operator    Operator  `json:"operator"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Identity is the validated token subject: who is calling and in what role.
type Identity struct {
	OperatorID string
	Role       string
}

// Service authenticates operators and issues access tokens. Tokens are
// short-lived HS256 JWTs; there is no refresh flow, a till re-authenticates
// at shift start.
type Service struct {
	pool      *pgxpool.Pool
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
	signer    jwa.SignatureAlgorithm
	validator TokenValidator
	issuer    string
	audience  string
	clockSkew time.Duration
}

// Config configures the auth service.
type Config struct {
	Pool           *pgxpool.Pool
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
	ClockSkew      time.Duration
}

// NewService constructs a Service with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Pool == nil {
		return nil, errors.New("auth: pool is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "pos-api"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "pos-operators"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}

	return &Service{
		pool:      cfg.Pool,
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
		signer:    jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
		},
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	normalized := strings.TrimSpace(strings.ToLower(username))
	if normalized == "" || password == "" {
		return LoginResult{}, common.NewAppError("INVALID_CREDENTIALS", "invalid username or password", 401, nil)
	}

	var op Operator
	var hash string
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, display_name, password_hash, role, created_at
		FROM operators
		WHERE username = $1`, normalized).
		Scan(&op.ID, &op.Username, &op.DisplayName, &hash, &op.Role, &op.CreatedAt)
	if err != nil {
		return LoginResult{}, common.NewAppError("INVALID_CREDENTIALS", "invalid username or password", 401, nil)
	}

	ok, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil || !ok {
		return LoginResult{}, common.NewAppError("INVALID_CREDENTIALS", "invalid username or password", 401, nil)
	}

	token, expiresAt, err := s.signAccessToken(op.ID, op.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}
	return LoginResult{Operator: op, AccessToken: token, ExpiresAt: expiresAt}, nil
}

// CreateInput is the payload for provisioning an operator account.
type CreateInput struct {
	Username    string `json:"username" validate:"required,min=2"`
	DisplayName string `json:"displayName" validate:"required"`
	Password    string `json:"password" validate:"required,min=8"`
	Role        string `json:"role" validate:"required,oneof=operator admin"`
}

// Create provisions an operator account (admin only).
func (s *Service) Create(ctx context.Context, in CreateInput) (Operator, error) {
	hash, err := argon2id.CreateHash(in.Password, argon2id.DefaultParams)
	if err != nil {
		return Operator{}, fmt.Errorf("hash password: %w", err)
	}
	var op Operator
	err = s.pool.QueryRow(ctx, `
		INSERT INTO operators (username, display_name, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, display_name, role, created_at`,
		strings.TrimSpace(strings.ToLower(in.Username)), strings.TrimSpace(in.DisplayName), hash, in.Role).
		Scan(&op.ID, &op.Username, &op.DisplayName, &op.Role, &op.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Operator{}, common.NewAppError("USERNAME_TAKEN", "username is already registered", 409, err)
		}
		return Operator{}, fmt.Errorf("create operator: %w", err)
	}
	return op, nil
}

// Me fetches the authenticated operator.
func (s *Service) Me(ctx context.Context, operatorID string) (Operator, error) {
	if strings.TrimSpace(operatorID) == "" {
		return Operator{}, common.NewAppError("UNAUTHORIZED", "unauthorized", 401, nil)
	}
	var op Operator
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, display_name, role, created_at
		FROM operators
		WHERE id = $1`, operatorID).
		Scan(&op.ID, &op.Username, &op.DisplayName, &op.Role, &op.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Operator{}, common.NewAppError("UNAUTHORIZED", "unauthorized", 401, nil)
		}
		return Operator{}, fmt.Errorf("load operator: %w", err)
	}
	return op, nil
}

// ParseAccessToken validates an access token and returns the caller identity.
func (s *Service) ParseAccessToken(token string) (Identity, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Identity{}, common.NewAppError("UNAUTHORIZED", "missing token", 401, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return Identity{}, common.NewAppError("UNAUTHORIZED", "invalid token", 401, err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return Identity{}, common.NewAppError("UNAUTHORIZED", "invalid token", 401, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret))
	if err != nil {
		return Identity{}, common.NewAppError("UNAUTHORIZED", "invalid token", 401, err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		return Identity{}, common.NewAppError("UNAUTHORIZED", "invalid token", 401, err)
	}
	role := RoleOperator
	if raw, ok := parsed.Get(roleClaim); ok {
		if v, ok := raw.(string); ok && v != "" {
			role = v
		}
	}
	return Identity{OperatorID: parsed.Subject(), Role: role}, nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", errors.New("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

func (s *Service) signAccessToken(operatorID, role string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	builder := jwt.NewBuilder().
		Subject(operatorID).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		Claim(roleClaim, role)
	token, err := builder.Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}
