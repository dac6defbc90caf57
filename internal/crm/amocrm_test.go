package crm_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"lead-gateway/internal/apperr"
	"lead-gateway/internal/config"
	"lead-gateway/internal/crm"
	"lead-gateway/internal/model"
)

func TestBuildLeadMinimal(t *testing.T) {
	lead := crm.BuildLead(model.LeadSubmission{Name: "Ivan", Phone: "+491701234567"})
	raw, err := json.Marshal(lead)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"name": "Заявка от Ivan",
		"custom_fields_values": [
			{"field_id": "PHONE", "values": [{"value": "+491701234567"}]},
			{"field_id": "UTM_SOURCE", "values": [{"value": ""}]},
			{"field_id": "UTM_CAMPAIGN", "values": [{"value": ""}]}
		]
	}`, string(raw))
}

func TestBuildLeadAllFields(t *testing.T) {
	lead := crm.BuildLead(model.LeadSubmission{
		Name:        "Ivan",
		Phone:       "+491701234567",
		WhatsApp:    "+491709999999",
		Email:       "ivan@example.com",
		PackageType: "premium",
		Comments:    "call after 18:00",
		UTM:         map[string]string{"utm_source": "facebook", "utm_campaign": "spring"},
	})
	ids := make([]string, 0, len(lead.CustomFieldsValues))
	for _, f := range lead.CustomFieldsValues {
		ids = append(ids, f.FieldID)
	}
	require.Equal(t, []string{"PHONE", "WHATSAPP", "EMAIL", "PACKAGE", "COMMENTS", "UTM_SOURCE", "UTM_CAMPAIGN"}, ids)
	require.Equal(t, "facebook", lead.CustomFieldsValues[5].Values[0].Value)
	require.Equal(t, "spring", lead.CustomFieldsValues[6].Values[0].Value)
}

func TestCreateLeadReturnsID(t *testing.T) {
	var (
		auth string
		path string
		body []crm.Lead
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		_, _ = w.Write([]byte(`{"_links":{},"_embedded":{"leads":[{"id":31337,"request_id":"0"}]}}`))
	}))
	defer srv.Close()

	client := crm.NewClient(config.CRMConfig{Subdomain: "acme", APIKey: "k3y", BaseURL: srv.URL}, srv.Client())
	id, err := client.CreateLead(t.Context(), model.LeadSubmission{Name: "Ivan", Phone: "123"})
	require.NoError(t, err)
	require.Equal(t, int64(31337), id)
	require.Equal(t, "Bearer k3y", auth)
	require.Equal(t, "/api/v4/leads", path)
	require.Len(t, body, 1)
	require.Equal(t, "Заявка от Ivan", body[0].Name)
}

func TestCreateLeadNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"title":"Unauthorized","status":401}`))
	}))
	defer srv.Close()

	_, err := crm.NewClient(config.CRMConfig{APIKey: "bad", BaseURL: srv.URL}, srv.Client()).
		CreateLead(t.Context(), model.LeadSubmission{Name: "Ivan", Phone: "123"})
	var uerr *apperr.UpstreamError
	require.True(t, errors.As(err, &uerr))
	require.Equal(t, http.StatusUnauthorized, uerr.StatusCode)
}

func TestCreateLeadWithoutID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"_embedded":{"leads":[]}}`))
	}))
	defer srv.Close()

	_, err := crm.NewClient(config.CRMConfig{APIKey: "k", BaseURL: srv.URL}, srv.Client()).
		CreateLead(t.Context(), model.LeadSubmission{Name: "Ivan", Phone: "123"})
	require.ErrorIs(t, err, crm.ErrNoLeadID)
}
