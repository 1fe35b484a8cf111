package mailer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	appconfig "github.com/campaign-hub/core/internal/config"
	"github.com/campaign-hub/core/internal/modules/cms"
	"github.com/campaign-hub/core/internal/pkg/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(serverURL string) *Service {
	client := cms.NewClient(appconfig.CMSConfig{
		APIKey: "key", DeliveryToken: "dtoken", Environment: "production",
		CDNBase: serverURL, APIBase: serverURL,
	}, zap.NewNop())
	mailCfg := appconfig.MailConfig{From: "Hub <hello@example.com>"}
	return NewService(client, mail.New(mailCfg), mailCfg, zap.NewNop())
}

func TestCampaignWithoutTemplateIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"entry":{"uid":"camp_1","title":"Launch","url":"/launch"}}`))
	}))
	defer server.Close()

	result, err := newService(server.URL).SendCampaignEmail(context.Background(), &SendDTO{
		CampaignID: "camp_1", Email: "ada@example.com",
	})
	require.NoError(t, err)
	assert.False(t, result.EmailSent)
	assert.Equal(t, "no email template configured", result.Reason)
}

func TestUnknownCampaignIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := newService(server.URL).SendCampaignEmail(context.Background(), &SendDTO{
		CampaignID: "camp_missing", Email: "ada@example.com",
	})
	require.NoError(t, err)
	assert.False(t, result.EmailSent)
	assert.Equal(t, "campaign not found", result.Reason)
}

func TestDisabledTransportSkipsSend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v3/content_types/campaigns/entries/camp_1":
			w.Write([]byte(`{"entry":{"uid":"camp_1","title":"Launch","email_template":[{"uid":"tpl_1"}]}}`))
		case "/v3/content_types/email_templates/entries/tpl_1":
			w.Write([]byte(`{"entry":{"title":"Welcome","subject":"Hi {{name}}","template_body":"<p>Hi {{name}}</p>"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	result, err := newService(server.URL).SendCampaignEmail(context.Background(), &SendDTO{
		CampaignID: "camp_1", Email: "ada@example.com", Name: "Ada",
	})
	require.NoError(t, err)
	assert.False(t, result.EmailSent)
	assert.Equal(t, "mail transport not configured", result.Reason)
}

func TestFromAddressPrefersTemplate(t *testing.T) {
	svc := newService("http://unused")
	assert.Equal(t, `"Launch Team" <launch@example.com>`, svc.fromAddress(&cms.EmailTemplate{
		FromName: "Launch Team", FromEmail: "launch@example.com",
	}))
	assert.Equal(t, "launch@example.com", svc.fromAddress(&cms.EmailTemplate{
		FromEmail: "launch@example.com",
	}))
	assert.Equal(t, "Hub <hello@example.com>", svc.fromAddress(&cms.EmailTemplate{}))
}
