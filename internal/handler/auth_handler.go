package handler

import (
	"net/http"
	"time"

	"retail-service/internal/model"
	"retail-service/pkg/database"
	"retail-service/pkg/jwtutil"
	"retail-service/pkg/logger"
	"retail-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Login exchanges username and password for an access/refresh token pair
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	result := database.GetDB().Where("username = ?", req.Username).First(&user)
	if result.Error != nil {
		log.Warn("User not found", zap.String("username", req.Username))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("username", req.Username))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if !user.IsActive {
		log.Warn("Inactive account", zap.String("username", req.Username))
		prometheus.RecordAuthError("inactive_account")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, refresh, err := jwtutil.GenerateTokenPair(user.Username, user.ID)
	if err != nil {
		log.Error("Failed to generate token pair", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	prometheus.ActiveTokensGauge.Inc()

	log.Info("User logged in",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username))
	return c.JSON(http.StatusOK, echo.Map{
		"access":  access,
		"refresh": refresh,
	})
}

// RefreshToken exchanges a valid refresh token for a new access token
func RefreshToken(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.TokenRefreshCounter.Inc()

	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse refresh request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	claims, err := jwtutil.ValidateToken(req.Refresh, jwtutil.TokenTypeRefresh)
	if err != nil {
		log.Warn("Invalid refresh token", zap.Error(err))
		prometheus.RecordAuthError("invalid_refresh_token")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	access, err := jwtutil.GenerateAccessToken(claims.Username, claims.UserID)
	if err != nil {
		log.Error("Failed to generate access token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("Access token refreshed",
		zap.Uint("user_id", claims.UserID),
		zap.String("username", claims.Username))
	return c.JSON(http.StatusOK, echo.Map{"access": access})
}
