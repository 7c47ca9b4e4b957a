package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"retail-service/internal/model"
	"retail-service/pkg/config"
	"retail-service/pkg/database"
	"retail-service/pkg/jwtutil"
	"retail-service/pkg/logger"
	"retail-service/prometheus"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", Env: "test"},
		JWT: config.JWTConfig{
			SigningKey:             "test-signing-key",
			AccessTokenExpiration:  30 * time.Minute,
			RefreshTokenExpiration: 24 * time.Hour,
		},
		Log:     config.LogConfig{Level: "error"},
		Metrics: config.MetricsConfig{Prefix: "retail_test"},
	}
}

// setupTest wires a fresh in-memory database into the global handle and
// initializes the ambient pieces handlers depend on
func setupTest(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := testConfig()
	logger.InitLogger(cfg)
	jwtutil.Initialize(&cfg.JWT)
	prometheus.InitMetrics(cfg)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Contact{},
		&model.Product{},
		&model.ChainLink{},
		&model.ChainLinkContact{},
		&model.ChainLinkProduct{},
	))

	database.DB = db
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
		database.DB = nil
	})

	return db
}

// newRequest builds an echo context carrying a JSON body
func newRequest(t *testing.T, method, target string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

// asAuthenticated stores the caller identity the auth middleware would set
func asAuthenticated(c echo.Context, userID uint, username string) {
	c.Set("user_id", userID)
	c.Set("username", username)
}

// withIDParam binds the :id path parameter
func withIDParam(c echo.Context, id uint) {
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprintf("%d", id))
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "unexpected status, body: %s", rec.Body.String())
}
