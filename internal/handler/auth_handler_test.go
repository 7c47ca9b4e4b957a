package handler

import (
	"net/http"
	"testing"

	"retail-service/pkg/jwtutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginIssuesTokenPair(t *testing.T) {
	db := setupTest(t)
	user := seedUser(t, db, "user1", "password")

	c, rec := newRequest(t, http.MethodPost, "/token", map[string]interface{}{
		"username": "user1",
		"password": "password",
	})
	require.NoError(t, Login(c))
	requireStatus(t, rec, http.StatusOK)

	body := decodeMap(t, rec)
	access, _ := body["access"].(string)
	refresh, _ := body["refresh"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	claims, err := jwtutil.ValidateToken(access, jwtutil.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "user1", claims.Username)

	_, err = jwtutil.ValidateToken(refresh, jwtutil.TokenTypeRefresh)
	require.NoError(t, err)
}

func TestLoginInvalidCredentials(t *testing.T) {
	db := setupTest(t)
	seedUser(t, db, "user1", "password")

	// Wrong password
	c, rec := newRequest(t, http.MethodPost, "/token", map[string]interface{}{
		"username": "user1",
		"password": "wrong",
	})
	require.NoError(t, Login(c))
	requireStatus(t, rec, http.StatusUnauthorized)

	// Unknown user
	c, rec = newRequest(t, http.MethodPost, "/token", map[string]interface{}{
		"username": "nobody",
		"password": "password",
	})
	require.NoError(t, Login(c))
	requireStatus(t, rec, http.StatusUnauthorized)
}

func TestLoginInactiveAccount(t *testing.T) {
	db := setupTest(t)
	user := seedUser(t, db, "user1", "password")
	require.NoError(t, db.Model(&user).Update("is_active", false).Error)

	c, rec := newRequest(t, http.MethodPost, "/token", map[string]interface{}{
		"username": "user1",
		"password": "password",
	})
	require.NoError(t, Login(c))
	requireStatus(t, rec, http.StatusUnauthorized)
}

func TestRefreshToken(t *testing.T) {
	db := setupTest(t)
	user := seedUser(t, db, "user1", "password")

	refresh, err := jwtutil.GenerateRefreshToken(user.Username, user.ID)
	require.NoError(t, err)

	c, rec := newRequest(t, http.MethodPost, "/token/refresh", map[string]interface{}{
		"refresh": refresh,
	})
	require.NoError(t, RefreshToken(c))
	requireStatus(t, rec, http.StatusOK)

	body := decodeMap(t, rec)
	access, _ := body["access"].(string)
	require.NotEmpty(t, access)

	claims, err := jwtutil.ValidateToken(access, jwtutil.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestRefreshTokenRejectsInvalid(t *testing.T) {
	db := setupTest(t)
	user := seedUser(t, db, "user1", "password")

	// Garbage token
	c, rec := newRequest(t, http.MethodPost, "/token/refresh", map[string]interface{}{
		"refresh": "not-a-token",
	})
	require.NoError(t, RefreshToken(c))
	requireStatus(t, rec, http.StatusUnauthorized)

	// An access token is not accepted at the refresh endpoint
	access, err := jwtutil.GenerateAccessToken(user.Username, user.ID)
	require.NoError(t, err)

	c, rec = newRequest(t, http.MethodPost, "/token/refresh", map[string]interface{}{
		"refresh": access,
	})
	require.NoError(t, RefreshToken(c))
	requireStatus(t, rec, http.StatusUnauthorized)
}
