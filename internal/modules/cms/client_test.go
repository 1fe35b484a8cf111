package cms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	appconfig "github.com/campaign-hub/core/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(serverURL string) *Client {
	return NewClient(appconfig.CMSConfig{
		APIKey:          "key",
		DeliveryToken:   "dtoken",
		ManagementToken: "mtoken",
		Environment:     "production",
		CDNBase:         serverURL,
		APIBase:         serverURL,
	}, zap.NewNop())
}

func TestGetCampaignBySlugUsesDeliveryAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("api_key"))
		assert.Equal(t, "dtoken", r.Header.Get("access_token"))
		assert.Equal(t, "production", r.Header.Get("environment"))
		assert.Contains(t, r.URL.RawQuery, "query=")
		w.Write([]byte(`{"entries":[{"uid":"camp_1","title":"Launch","url":"/launch","body":"# Hello"}]}`))
	}))
	defer server.Close()

	campaign, err := newTestClient(server.URL).GetCampaignBySlug(context.Background(), "launch")
	require.NoError(t, err)
	assert.Equal(t, "camp_1", campaign.UID)
	assert.Equal(t, "# Hello", campaign.Body)
}

func TestGetCampaignBySlugNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"entries":[]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetCampaignBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetCampaignNotFoundStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetCampaign(context.Background(), "camp_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateSubmissionUsesManagementAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "mtoken", r.Header.Get("authorization"))
		assert.Empty(t, r.Header.Get("access_token"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"entry":{"uid":"sub_1","title":"stored"}}`))
	}))
	defer server.Close()

	stored, err := newTestClient(server.URL).CreateSubmission(context.Background(), Submission{
		Title:      "Submission - now",
		CampaignID: "camp_1",
		Data:       map[string]string{"email": "ada@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sub_1", stored.UID)
}

func TestUpstreamErrorKeepsStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error_message":"title required"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ListCampaigns(context.Background())
	require.Error(t, err)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusUnprocessableEntity, upstream.Status)
	assert.Contains(t, upstream.Error(), "title required")
}
