package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/security"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthConfig holds the credentials the service checks against. Passwords may
// be bcrypt hashes or plaintext; plaintext values are hashed on start.
type AuthConfig struct {
	JWTSecret      string
	AdminPassword  string
	EditorPassword string
	TokenTTL       time.Duration
}

// AuthResult holds authentication result data
type AuthResult struct {
	Token     string        `json:"token"`
	Role      security.Role `json:"role"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

// AuthService handles role logins and token validation
type AuthService struct {
	secret     string
	adminHash  string
	editorHash string
	ttl        time.Duration
	logger     *logging.ChanneledLogger
}

// NewAuthService creates an authentication service. An empty JWT secret is
// replaced by a random one, so tokens do not survive a restart.
func NewAuthService(cfg AuthConfig, logger *logging.ChanneledLogger) (*AuthService, error) {
	s := &AuthService{secret: cfg.JWTSecret, ttl: cfg.TokenTTL, logger: logger}
	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}

	if s.secret == "" {
		secret, err := security.GenerateSecureKey(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate jwt secret: %w", err)
		}
		s.secret = secret
		logger.Auth().Warn("JWT_SECRET not set, using an ephemeral secret")
	}

	var err error
	if s.adminHash, err = hashIfPlain(cfg.AdminPassword); err != nil {
		return nil, err
	}
	if s.editorHash, err = hashIfPlain(cfg.EditorPassword); err != nil {
		return nil, err
	}
	if s.adminHash == "" && s.editorHash == "" {
		logger.Auth().Warn("No ADMIN_PASSWORD or EDITOR_PASSWORD configured, logins are disabled")
	}
	return s, nil
}

// Login checks a password against the admin then editor credentials and
// issues a token for the matching role.
func (s *AuthService) Login(password string) (*AuthResult, error) {
	var role security.Role
	switch {
	case password == "":
	case security.CheckPassword(s.adminHash, password):
		role = security.RoleAdmin
	case security.CheckPassword(s.editorHash, password):
		role = security.RoleEditor
	}
	if role == "" {
		s.logger.Auth().Warn("Login rejected")
		return nil, ErrInvalidCredentials
	}

	token, err := security.GenerateRoleToken(role, s.secret, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("token generation failed: %w", err)
	}
	s.logger.Auth().Info("Login succeeded", "role", role)
	return &AuthResult{Token: token, Role: role, ExpiresAt: time.Now().UTC().Add(s.ttl)}, nil
}

// RoleFromToken validates a token and returns its role.
func (s *AuthService) RoleFromToken(token string) (security.Role, error) {
	claims, err := security.ValidateJWT(token, s.secret)
	if err != nil {
		return "", err
	}
	return security.GetRoleFromClaims(claims)
}

func hashIfPlain(password string) (string, error) {
	if password == "" || isBcryptHash(password) {
		return password, nil
	}
	return security.HashPassword(password)
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && s[0] == '$' && s[1] == '2' && (s[3] == '$' || s[2] == '$')
}
