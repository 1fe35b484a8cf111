package diagnostics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appconfig "github.com/campaign-hub/core/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMask(t *testing.T) {
	assert.Empty(t, Mask(""))
	assert.Equal(t, "***", Mask("short"))
	assert.Equal(t, "BIgn...M8Qw", Mask("BIgnreallylongvapidkeyM8Qw"))
}

func TestPushProbeNeverEchoesSecrets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &appconfig.AppConfig{
		Push: appconfig.PushConfig{
			Enable:          true,
			ProjectID:       "campaign-hub-prod-2024",
			CredentialsJSON: `{"type":"service_account","private_key":"secret-material"}`,
			VAPIDPublicKey:  "BIgnreallylongvapidkeyM8Qw",
		},
	}

	router := gin.New()
	NewHandler(cfg).RegisterRoutes(router.Group("/api/v2"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v2/diagnostics/push", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-material")
	assert.NotContains(t, rec.Body.String(), "campaign-hub-prod-2024")

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["enabled"])
	assert.Equal(t, true, body["hasCredentials"])
	assert.Equal(t, "camp...2024", body["projectId"])
}

func TestHealthReportsUptime(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(&appconfig.AppConfig{Env: "test"}).RegisterRoutes(router.Group("/api/v2"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v2/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["env"])
}
