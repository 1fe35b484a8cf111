package content

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appconfig "github.com/campaign-hub/core/internal/config"
	"github.com/campaign-hub/core/internal/modules/cms"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRouter(cmsURL string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	client := cms.NewClient(appconfig.CMSConfig{
		APIKey: "key", DeliveryToken: "dtoken", Environment: "production",
		CDNBase: cmsURL, APIBase: cmsURL,
	}, zap.NewNop())
	router := gin.New()
	NewHandler(client, zap.NewNop()).RegisterRoutes(router.Group("/api/v2"))
	return router
}

func TestCampaignPageRendersMarkdown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"entries":[{"uid":"camp_1","title":"Launch","url":"/launch","body":"# Big News\n\nDetails *soon*."}]}`))
	}))
	defer server.Close()

	rec := httptest.NewRecorder()
	newRouter(server.URL).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v2/campaigns/launch", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	html, _ := body["bodyHtml"].(string)
	assert.Contains(t, html, "<h1>Big News</h1>")
	assert.Contains(t, html, "<em>soon</em>")
}

func TestUnknownSlugIs404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"entries":[]}`))
	}))
	defer server.Close()

	rec := httptest.NewRecorder()
	newRouter(server.URL).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v2/campaigns/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCampaignPageDegradesOnUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	rec := httptest.NewRecorder()
	newRouter(server.URL).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v2/campaigns/launch", nil))

	// The page still renders with a default shell.
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/launch", body["url"])
	assert.Equal(t, "", body["bodyHtml"])
}

func TestListingDegradesToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	rec := httptest.NewRecorder()
	newRouter(server.URL).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v2/campaigns", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Data)
}
