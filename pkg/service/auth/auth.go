// Package auth issues and reads the operator tokens that guard the
// administrative pledge endpoints.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/crowdpledge/pkg/config"
	"github.com/amirasaad/crowdpledge/pkg/domain"
	"github.com/golang-jwt/jwt/v5"
)

// RoleOperator is the role claim of tokens allowed to capture and void.
const RoleOperator = "operator"

// Service signs HS256 operator tokens.
type Service struct {
	cfg    *config.Jwt
	logger *slog.Logger
	now    func() time.Time
}

func NewWithJWT(cfg *config.Jwt, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cfg: cfg, logger: logger.With("service", "auth"), now: time.Now}
}

// GenerateToken returns a signed token for operator.
func (s *Service) GenerateToken(operator string) (string, error) {
	log := s.logger.With("operator", operator)
	if s.cfg == nil || s.cfg.Secret == "" {
		log.Error("GenerateToken failed", "error", domain.ErrConfiguration)
		return "", fmt.Errorf("jwt secret: %w", domain.ErrConfiguration)
	}
	if operator == "" {
		return "", fmt.Errorf("operator name: %w", domain.ErrValidation)
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  operator,
		"role": RoleOperator,
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.Expiry).Unix(),
	})
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		log.Error("GenerateToken failed", "error", err)
		return "", err
	}
	log.Info("GenerateToken successful")
	return signed, nil
}

// GetCurrentOperator returns the operator of a validated token. Tokens
// without the operator role are rejected.
func (s *Service) GetCurrentOperator(token *jwt.Token) (string, error) {
	if token == nil {
		return "", domain.ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("unexpected claims type")
	}
	if role, _ := claims["role"].(string); role != RoleOperator {
		return "", domain.ErrForbidden
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", domain.ErrUnauthorized
	}
	return sub, nil
}
