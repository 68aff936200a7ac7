package services

import (
	"context"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/Srikanthmvtsc/doc-queue-plus/internal/auth/models"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/apperrors"
)

// CredentialVerifier decides whether a username/password pair may log in.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (models.User, error)
}

// StaticCredentialVerifier accepts exactly one configured account.
type StaticCredentialVerifier struct {
	Username     string
	PasswordHash []byte
	Role         string
}

// NewStaticCredentialVerifier uses passwordHash when set and otherwise hashes
// the plain password once at start-up.
func NewStaticCredentialVerifier(username, password, passwordHash string) (*StaticCredentialVerifier, error) {
	hash := []byte(passwordHash)
	if len(hash) == 0 {
		if password == "" {
			return nil, fmt.Errorf("static credential for %q has no password", username)
		}
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash static credential: %w", err)
		}
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("invalid password hash for %q: %w", username, err)
	}
	return &StaticCredentialVerifier{Username: username, PasswordHash: hash, Role: models.RoleFrontDesk}, nil
}

func (v *StaticCredentialVerifier) Verify(ctx context.Context, username, password string) (models.User, error) {
	// Always run bcrypt so an unknown username costs the same as a bad password.
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(v.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword(v.PasswordHash, []byte(password))
	if !userOK || passErr != nil {
		return models.User{}, apperrors.Unauthorized("invalid username or password")
	}
	return models.User{Username: v.Username, Role: v.Role}, nil
}
