package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Srikanthmvtsc/doc-queue-plus/internal/auth/models"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/validation"
	"github.com/Srikanthmvtsc/doc-queue-plus/pkg/utils"
)

type AuthService struct {
	Verifier CredentialVerifier
	Secret   []byte
	TTL      time.Duration
	Now      func() time.Time
}

func NewAuthService(verifier CredentialVerifier, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{Verifier: verifier, Secret: secret, TTL: ttl, Now: time.Now}
}

// Login checks the credentials through the verifier and returns a signed
// session token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validation.Struct(req); err != nil {
		return models.LoginResponse{}, err
	}

	user, err := s.Verifier.Verify(ctx, req.Username, req.Password)
	if err != nil {
		log.Warn().Str("username", req.Username).Msg("login rejected")
		return models.LoginResponse{}, err
	}

	now := s.Now()
	exp := now.Add(s.TTL)
	token, err := utils.GenerateJWTToken(s.Secret, user.Username, user.Role, now, exp)
	if err != nil {
		return models.LoginResponse{}, err
	}

	log.Info().Str("username", user.Username).Msg("login succeeded")
	return models.LoginResponse{Token: token, ExpiresAt: exp, User: user}, nil
}
