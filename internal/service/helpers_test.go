package service_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"exppro-backend/internal/repository"
	"exppro-backend/internal/service"
	"exppro-backend/utilities"
)

func newAuthService(gdb *gorm.DB) service.AuthService {
	return newAuthServiceWithSecret(gdb, "test-secret")
}

func newAuthServiceWithSecret(gdb *gorm.DB, secret string) service.AuthService {
	return service.NewAuthService(
		repository.NewUserRepository(gdb),
		repository.NewTokenRepository(gdb),
		utilities.NewTokenSigner(secret),
		bcrypt.MinCost,
	)
}

func payload(t *testing.T, body string) service.Payload {
	t.Helper()
	p, err := service.ParsePayload([]byte(body))
	require.NoError(t, err)
	return p
}

func items(t *testing.T, body string) []json.RawMessage {
	t.Helper()
	out, err := service.DecodeAnswerItems(payload(t, body))
	require.NoError(t, err)
	return out
}

// fieldErrors asserts err is a validation error and returns its fields.
func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}
