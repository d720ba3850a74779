package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hms-api/internal/model"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", 1)

	user := &model.User{Role: model.UserRoleDoctor}
	user.ID = uuid.New()

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	actor, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, model.ActorRoleDoctor, actor.Role)
	assert.Equal(t, user.ID, actor.ID)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService("secret-a", 1)
	verifier := NewJWTService("secret-b", 1)

	user := &model.User{Role: model.UserRolePatient}
	user.ID = uuid.New()

	token, err := issuer.GenerateAccessToken(user)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-secret", 1)

	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
