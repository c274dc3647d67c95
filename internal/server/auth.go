// Admin authentication. A single admin credential guards schema and
// collection management; row-level editing is open. The login endpoint
// exchanges the password for a short-lived JWT.

package server

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/gridbase/gridbase/internal/server/dto"
)

const adminSubject = "admin"

// Login verifies the admin password and issues a bearer token.
func (s *Server) Login(_ context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	if s.cfg.AdminPasswordHash == "" || len(s.cfg.JWTSecret) == 0 {
		return nil, dto.Forbidden("admin login is not configured")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(req.Password)); err != nil {
		return nil, dto.Unauthorized()
	}

	ttl := s.cfg.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": adminSubject,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString(s.cfg.JWTSecret)
	if err != nil {
		return nil, dto.InternalWithError("failed to sign token", err)
	}
	return &dto.LoginResponse{Token: signed}, nil
}

// HashPassword produces the bcrypt hash stored in the config for the admin
// password. Used by the CLI's hash-password helper.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
