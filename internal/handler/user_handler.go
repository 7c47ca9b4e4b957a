package handler

import (
	"net/http"
	"strconv"
	"time"

	"retail-service/internal/model"
	"retail-service/pkg/database"
	"retail-service/pkg/logger"
	"retail-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserView is the full projection a user sees of their own record
type UserView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	IsStaff  bool   `json:"is_staff"`
	IsActive bool   `json:"is_active"`
}

// UserShortView is the reduced projection shown for other users' records
type UserShortView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// UserUpdateRequest defines the structure for user self-service updates
type UserUpdateRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// RegisterUser creates a new user account. This is the one open endpoint: no
// authentication is required, the password is hashed before storage and the
// account starts active.
func RegisterUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Username == "" || req.Password == "" {
		log.Warn("Incomplete registration data",
			zap.String("username", req.Username),
			zap.Bool("password_provided", req.Password != ""))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and password are required"})
	}

	db := database.GetDB()

	var existing model.User
	if result := db.Where("username = ?", req.Username).First(&existing); result.Error == nil {
		log.Warn("Username already taken", zap.String("username", req.Username))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username already taken"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	user := model.User{
		Username: req.Username,
		Password: string(hashedPassword),
		IsActive: true,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if result := db.Create(&user); result.Error != nil {
		log.Error("Failed to create user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	log.Info("User registered", zap.Uint("id", user.ID), zap.String("username", user.Username))
	return c.JSON(http.StatusCreated, UserShortView{ID: user.ID, Username: user.Username})
}

// ListUsers retrieves the reduced projection of every user, ordered by id
func ListUsers(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("user", "list")

	defer prometheus.TrackDBOperation("query")(time.Now())

	var users []model.User
	if result := database.GetDB().Order("id").Find(&users); result.Error != nil {
		log.Error("Failed to retrieve users", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve users"})
	}

	views := make([]UserShortView, 0, len(users))
	for _, user := range users {
		views = append(views, UserShortView{ID: user.ID, Username: user.Username})
	}

	return c.JSON(http.StatusOK, views)
}

// GetUser retrieves a user record. The caller's own record comes back in
// full; anyone else's is reduced to id and username.
func GetUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("user", "get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid user ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	if result := database.GetDB().First(&user, id); result.Error != nil {
		log.Warn("User not found", zap.Uint64("target_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	callerID, _ := c.Get("user_id").(uint)
	if callerID == user.ID {
		return c.JSON(http.StatusOK, UserView{
			ID:       user.ID,
			Username: user.Username,
			IsStaff:  user.IsStaff,
			IsActive: user.IsActive,
		})
	}

	return c.JSON(http.StatusOK, UserShortView{ID: user.ID, Username: user.Username})
}

// UpdateUser updates the caller's own record. Targeting any other id is
// forbidden before the record is even fetched.
func UpdateUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("user", "update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid user ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	callerID, _ := c.Get("user_id").(uint)
	if callerID != uint(id) {
		log.Warn("Attempt to update another user's record",
			zap.Uint("caller_id", callerID),
			zap.Uint64("target_id", id))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you can only modify your own profile"})
	}

	var req UserUpdateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	db := database.GetDB()

	var user model.User
	if result := db.First(&user, id); result.Error != nil {
		log.Warn("User not found for update", zap.Uint64("target_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	if req.Username != nil {
		if *req.Username == "" {
			log.Warn("Empty username in user update", zap.Uint("user_id", user.ID))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "username is required"})
		}
		var count int64
		db.Model(&model.User{}).
			Where("username = ? AND id != ?", *req.Username, user.ID).
			Count(&count)
		if count > 0 {
			log.Warn("Username already taken", zap.String("username", *req.Username))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "username already taken"})
		}
		user.Username = *req.Username
	}
	if req.Password != nil {
		if *req.Password == "" {
			log.Warn("Empty password in user update", zap.Uint("user_id", user.ID))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must not be empty"})
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Error("Failed to hash password", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update user"})
		}
		user.Password = string(hashedPassword)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if result := db.Save(&user); result.Error != nil {
		log.Error("Failed to update user", zap.Uint("user_id", user.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update user"})
	}

	log.Info("User updated", zap.Uint("id", user.ID))
	return c.JSON(http.StatusOK, UserView{
		ID:       user.ID,
		Username: user.Username,
		IsStaff:  user.IsStaff,
		IsActive: user.IsActive,
	})
}

// DeleteUser removes the caller's own account
func DeleteUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("user", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid user ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	callerID, _ := c.Get("user_id").(uint)
	if callerID != uint(id) {
		log.Warn("Attempt to delete another user's record",
			zap.Uint("caller_id", callerID),
			zap.Uint64("target_id", id))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you can only modify your own profile"})
	}

	db := database.GetDB()

	var user model.User
	if result := db.First(&user, id); result.Error != nil {
		log.Warn("User not found for delete", zap.Uint64("target_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	if result := db.Delete(&user); result.Error != nil {
		log.Error("Failed to delete user", zap.Uint("user_id", user.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete user"})
	}

	log.Info("User deleted", zap.Uint("id", user.ID))
	return c.NoContent(http.StatusNoContent)
}
