// Package crm creates leads in amoCRM.
package crm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"lead-gateway/internal/apperr"
	"lead-gateway/internal/config"
	"lead-gateway/internal/httpx"
	"lead-gateway/internal/model"
)

// Custom field ids understood by the CRM account.
const (
	FieldPhone       = "PHONE"
	FieldWhatsApp    = "WHATSAPP"
	FieldEmail       = "EMAIL"
	FieldPackage     = "PACKAGE"
	FieldComments    = "COMMENTS"
	FieldUTMSource   = "UTM_SOURCE"
	FieldUTMCampaign = "UTM_CAMPAIGN"
)

// ErrNoLeadID is returned when the CRM accepted the request but reported no lead.
var ErrNoLeadID = errors.New("amocrm response carries no lead id")

// Lead is one element of the POST /api/v4/leads body.
type Lead struct {
	Name               string             `json:"name"`
	CustomFieldsValues []CustomFieldValue `json:"custom_fields_values"`
}

type CustomFieldValue struct {
	FieldID string       `json:"field_id"`
	Values  []FieldValue `json:"values"`
}

type FieldValue struct {
	Value string `json:"value"`
}

type createResponse struct {
	Embedded struct {
		Leads []struct {
			ID int64 `json:"id"`
		} `json:"leads"`
	} `json:"_embedded"`
}

// Client talks to the amoCRM v4 API with a long-lived bearer token.
type Client struct {
	cfg    config.CRMConfig
	client httpx.HTTPClient
}

func NewClient(cfg config.CRMConfig, client httpx.HTTPClient) *Client {
	return &Client{cfg: cfg, client: client}
}

// BuildLead maps a submission to the CRM lead record. Optional fields are only
// present when set; UTM source and campaign are always sent.
func BuildLead(sub model.LeadSubmission) Lead {
	fields := []CustomFieldValue{field(FieldPhone, sub.Phone)}
	optional := []struct{ id, value string }{
		{FieldWhatsApp, sub.WhatsApp},
		{FieldEmail, sub.Email},
		{FieldPackage, sub.PackageType},
		{FieldComments, sub.Comments},
	}
	for _, o := range optional {
		if o.value != "" {
			fields = append(fields, field(o.id, o.value))
		}
	}
	fields = append(fields,
		field(FieldUTMSource, sub.UTMValue("utm_source", "")),
		field(FieldUTMCampaign, sub.UTMValue("utm_campaign", "")),
	)
	return Lead{
		Name:               "Заявка от " + sub.Name,
		CustomFieldsValues: fields,
	}
}

func field(id, value string) CustomFieldValue {
	return CustomFieldValue{FieldID: id, Values: []FieldValue{{Value: value}}}
}

// CreateLead posts the submission as a single lead and returns its CRM id.
func (c *Client) CreateLead(ctx context.Context, sub model.LeadSubmission) (int64, error) {
	resp, err := httpx.PostJSON(ctx, c.client, c.cfg.BaseURL+"/api/v4/leads", map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	}, []Lead{BuildLead(sub)})
	if err != nil {
		return 0, fmt.Errorf("post amocrm lead: %w", err)
	}
	if !resp.OK() {
		return 0, &apperr.UpstreamError{Service: "amoCRM", StatusCode: resp.StatusCode, Body: resp.Body}
	}
	var out createResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return 0, fmt.Errorf("decode amocrm response: %w", err)
	}
	if len(out.Embedded.Leads) == 0 || out.Embedded.Leads[0].ID == 0 {
		return 0, ErrNoLeadID
	}
	return out.Embedded.Leads[0].ID, nil
}
