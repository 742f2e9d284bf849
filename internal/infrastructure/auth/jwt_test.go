package auth

import (
	"testing"
	"time"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "assetflow-test",
	})
}

func newTestInput() TokenInput {
	emp := uuid.New()
	dept := uuid.New()
	return TokenInput{
		UserID:       uuid.New(),
		Username:     "alice",
		Role:         shared.RoleMonitor,
		EmployeeID:   &emp,
		DepartmentID: &dept,
	}
}

func TestIssueAndValidate(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()

	token, err := svc.Issue(input)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.True(t, token.ExpiresAt.After(time.Now()))

	claims, err := svc.Validate(token.Token)
	require.NoError(t, err)
	assert.Equal(t, input.UserID.String(), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.NotEmpty(t, claims.ID)

	actor, err := claims.Actor()
	require.NoError(t, err)
	assert.Equal(t, input.UserID, actor.UserID)
	assert.Equal(t, shared.RoleMonitor, actor.Role)
	require.NotNil(t, actor.EmployeeID)
	assert.Equal(t, *input.EmployeeID, *actor.EmployeeID)
	assert.Equal(t, *input.DepartmentID, *actor.DepartmentID)
}

func TestIssue_AdminWithoutEmployee(t *testing.T) {
	svc := newTestJWTService()
	token, err := svc.Issue(TokenInput{UserID: uuid.New(), Username: "root", Role: shared.RoleAdmin})
	require.NoError(t, err)

	claims, err := svc.Validate(token.Token)
	require.NoError(t, err)
	actor, err := claims.Actor()
	require.NoError(t, err)
	assert.Nil(t, actor.EmployeeID)
	assert.Nil(t, actor.DepartmentID)
}

func TestValidate_Expired(t *testing.T) {
	svc := newTestJWTService()
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := svc.Issue(newTestInput())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Validate(token.Token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidate_Rejects(t *testing.T) {
	svc := newTestJWTService()
	token, err := svc.Issue(newTestInput())
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-at-least-32-chars", AccessTokenExpiration: time.Minute, Issuer: "assetflow-test"})
	otherToken, err := other.Issue(newTestInput())
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: uuid.NewString(), Role: "admin"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"tampered", token.Token + "x"},
		{"wrong secret", otherToken.Token},
		{"alg none", unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Validate(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestValidate_UnknownRole(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()
	input.Role = "superuser"
	token, err := svc.Issue(input)
	require.NoError(t, err)

	_, err = svc.Validate(token.Token)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestClaims_RemainingTTL(t *testing.T) {
	now := time.Now()
	c := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute))}}
	assert.InDelta(t, time.Minute.Seconds(), c.RemainingTTL(now).Seconds(), 1)
	assert.Zero(t, c.RemainingTTL(now.Add(time.Hour)))
	assert.Zero(t, (&Claims{}).RemainingTTL(now))
}
