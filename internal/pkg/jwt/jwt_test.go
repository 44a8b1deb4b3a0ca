package jwt

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessToken_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", "1h")
	actor := user.Actor{UserID: "u1", EmployeeID: "e1", CompanyID: "c1", Role: user.RoleManager}

	tokenString, expiresAt, err := svc.GenerateAccessToken(actor)
	require.NoError(t, err)
	assert.NotZero(t, expiresAt)

	token, err := svc.JWTAuth().Decode(tokenString)
	require.NoError(t, err)

	got, err := ActorFromContext(jwtauth.NewContext(context.Background(), token, nil))
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestGenerateAccessToken_InvalidExpiration(t *testing.T) {
	svc := NewJWTService("test-secret", "soon")
	_, _, err := svc.GenerateAccessToken(user.Actor{UserID: "u1"})
	assert.Error(t, err)
}

func TestActorFromContext(t *testing.T) {
	actor := user.Actor{UserID: "u1", EmployeeID: "e1", CompanyID: "c1", Role: user.RoleEmployee}
	got, err := ActorFromContext(NewContextWithActor(context.Background(), actor))
	require.NoError(t, err)
	assert.Equal(t, actor, got)

	_, err = ActorFromContext(context.Background())
	assert.Error(t, err)

	_, err = ActorFromContext(NewContextWithActor(context.Background(), user.Actor{}))
	assert.ErrorIs(t, err, ErrMissingClaims)
}
