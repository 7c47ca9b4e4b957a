package handler

import (
	"net/http"
	"testing"

	"retail-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, username, password string) model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := model.User{Username: username, Password: string(hash), IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func TestRegisterUser(t *testing.T) {
	db := setupTest(t)

	c, rec := newRequest(t, http.MethodPost, "/users", map[string]interface{}{
		"username": "user1",
		"password": "password",
	})
	require.NoError(t, RegisterUser(c))
	requireStatus(t, rec, http.StatusCreated)

	body := decodeMap(t, rec)
	assert.Equal(t, "user1", body["username"])
	assert.NotContains(t, body, "password")

	var user model.User
	require.NoError(t, db.Where("username = ?", "user1").First(&user).Error)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "password", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password")))
}

func TestRegisterUserValidation(t *testing.T) {
	db := setupTest(t)
	seedUser(t, db, "user1", "password")

	// Missing password
	c, rec := newRequest(t, http.MethodPost, "/users", map[string]interface{}{
		"username": "user2",
	})
	require.NoError(t, RegisterUser(c))
	requireStatus(t, rec, http.StatusBadRequest)

	// Duplicate username
	c, rec = newRequest(t, http.MethodPost, "/users", map[string]interface{}{
		"username": "user1",
		"password": "password",
	})
	require.NoError(t, RegisterUser(c))
	requireStatus(t, rec, http.StatusBadRequest)

	var count int64
	db.Model(&model.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestListUsersShortProjection(t *testing.T) {
	db := setupTest(t)
	user := seedUser(t, db, "user", "password")
	other := seedUser(t, db, "user1", "password")

	c, rec := newRequest(t, http.MethodGet, "/users", nil)
	asAuthenticated(c, user.ID, user.Username)
	require.NoError(t, ListUsers(c))
	requireStatus(t, rec, http.StatusOK)

	list := decodeList(t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, map[string]interface{}{"id": float64(user.ID), "username": "user"}, list[0])
	assert.Equal(t, map[string]interface{}{"id": float64(other.ID), "username": "user1"}, list[1])
}

func TestGetUserSelfSeesFullRecord(t *testing.T) {
	db := setupTest(t)
	user := seedUser(t, db, "user", "password")

	c, rec := newRequest(t, http.MethodGet, "/users/1", nil)
	asAuthenticated(c, user.ID, user.Username)
	withIDParam(c, user.ID)
	require.NoError(t, GetUser(c))
	requireStatus(t, rec, http.StatusOK)

	body := decodeMap(t, rec)
	assert.Equal(t, "user", body["username"])
	assert.Equal(t, false, body["is_staff"])
	assert.Equal(t, true, body["is_active"])
}

func TestGetUserOtherSeesReducedRecord(t *testing.T) {
	db := setupTest(t)
	user := seedUser(t, db, "user", "password")
	other := seedUser(t, db, "user1", "password")

	c, rec := newRequest(t, http.MethodGet, "/users/2", nil)
	asAuthenticated(c, user.ID, user.Username)
	withIDParam(c, other.ID)
	require.NoError(t, GetUser(c))
	requireStatus(t, rec, http.StatusOK)

	body := decodeMap(t, rec)
	assert.Equal(t, map[string]interface{}{
		"id":       float64(other.ID),
		"username": "user1",
	}, body)
}

func TestUpdateUserSelf(t *testing.T) {
	db := setupTest(t)
	user := seedUser(t, db, "user", "password")

	c, rec := newRequest(t, http.MethodPatch, "/users/1", map[string]interface{}{
		"username": "new_user",
	})
	asAuthenticated(c, user.ID, user.Username)
	withIDParam(c, user.ID)
	require.NoError(t, UpdateUser(c))
	requireStatus(t, rec, http.StatusOK)

	var stored model.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, "new_user", stored.Username)
}

func TestUpdateUserOtherForbidden(t *testing.T) {
	db := setupTest(t)
	user := seedUser(t, db, "user", "password")
	other := seedUser(t, db, "user1", "password")

	c, rec := newRequest(t, http.MethodPatch, "/users/2", map[string]interface{}{
		"username": "new_user",
	})
	asAuthenticated(c, user.ID, user.Username)
	withIDParam(c, other.ID)
	require.NoError(t, UpdateUser(c))
	requireStatus(t, rec, http.StatusForbidden)

	var stored model.User
	require.NoError(t, db.First(&stored, other.ID).Error)
	assert.Equal(t, "user1", stored.Username)
}

func TestDeleteUserSelf(t *testing.T) {
	db := setupTest(t)
	user := seedUser(t, db, "user", "password")

	c, rec := newRequest(t, http.MethodDelete, "/users/1", nil)
	asAuthenticated(c, user.ID, user.Username)
	withIDParam(c, user.ID)
	require.NoError(t, DeleteUser(c))
	requireStatus(t, rec, http.StatusNoContent)

	var count int64
	db.Model(&model.User{}).Where("id = ?", user.ID).Count(&count)
	assert.Zero(t, count)
}

func TestDeleteUserOtherForbidden(t *testing.T) {
	db := setupTest(t)
	user := seedUser(t, db, "user", "password")
	other := seedUser(t, db, "user1", "password")

	c, rec := newRequest(t, http.MethodDelete, "/users/2", nil)
	asAuthenticated(c, user.ID, user.Username)
	withIDParam(c, other.ID)
	require.NoError(t, DeleteUser(c))
	requireStatus(t, rec, http.StatusForbidden)

	var count int64
	db.Model(&model.User{}).Where("id = ?", other.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}
