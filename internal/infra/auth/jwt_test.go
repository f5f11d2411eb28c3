package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labportal/server/internal/model"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier(Config{Secret: "secret", Issuer: "lab-auth", Audience: "portal"})
	caller := model.Caller{UserID: uuid.New(), Email: "m@lab.edu", Role: model.SystemRoleMentor}

	token, err := v.Issue(caller, time.Hour)
	require.NoError(t, err)

	got, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, caller.UserID, got.UserID)
	assert.Equal(t, caller.Email, got.Email)
	assert.Equal(t, model.SystemRoleMentor, got.Role)
	assert.Equal(t, token, got.Token)
	assert.True(t, got.IsStaff())
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier(Config{Secret: "secret", Issuer: "lab-auth"})
	caller := model.Caller{UserID: uuid.New(), Role: model.SystemRoleStudent}

	expired, err := v.Issue(caller, -time.Hour)
	require.NoError(t, err)

	other, err := NewVerifier(Config{Secret: "other", Issuer: "lab-auth"}).Issue(caller, time.Hour)
	require.NoError(t, err)

	wrongIssuer, err := NewVerifier(Config{Secret: "secret", Issuer: "elsewhere"}).Issue(caller, time.Hour)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-uuid",
			Issuer:    "lab-auth",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: caller.UserID.String(), Issuer: "lab-auth"},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expired,
		"wrong secret": other,
		"wrong issuer": wrongIssuer,
		"bad subject":  badSubject,
		"no expiry":    noExpiry,
		"garbage":      "abc.def.ghi",
		"empty":        "",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerifier_UnknownRoleDefaultsToStudent(t *testing.T) {
	v := NewVerifier(Config{Secret: "secret"})
	token, err := v.Issue(model.Caller{UserID: uuid.New(), Role: "janitor"}, time.Hour)
	require.NoError(t, err)

	got, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, model.SystemRoleStudent, got.Role)
}
