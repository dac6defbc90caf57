package model

// ActionSourceWebsite is the only action source this service reports.
const ActionSourceWebsite = "website"

// ConversionRequest is the payload accepted by the conversion forwarding endpoint.
type ConversionRequest struct {
	EventName string         `json:"event_name"`
	EventID   string         `json:"event_id"`
	EventData map[string]any `json:"event_data"`
	UserData  UserData       `json:"user_data"`
	UTM       map[string]any `json:"utm"`
}

// UserData carries raw identifying fields. They are hashed before leaving the service.
type UserData struct {
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
	FBC     string `json:"fbc,omitempty"`
	FBP     string `json:"fbp,omitempty"`
}

// ConversionEvent is a single entry of the Conversions API data array.
type ConversionEvent struct {
	EventName      string         `json:"event_name"`
	EventTime      int64          `json:"event_time"`
	EventID        string         `json:"event_id"`
	ActionSource   string         `json:"action_source"`
	EventSourceURL string         `json:"event_source_url,omitempty"`
	UserData       HashedUserData `json:"user_data"`
	CustomData     map[string]any `json:"custom_data"`
}

// HashedUserData is the user_data block of a ConversionEvent. Em, Ph, Country
// and City hold SHA-256 hex digests and are omitted when the source was empty.
type HashedUserData struct {
	ClientIPAddress string `json:"client_ip_address,omitempty"`
	ClientUserAgent string `json:"client_user_agent,omitempty"`
	Em              string `json:"em,omitempty"`
	Ph              string `json:"ph,omitempty"`
	FBC             string `json:"fbc,omitempty"`
	FBP             string `json:"fbp,omitempty"`
	Country         string `json:"country,omitempty"`
	Ct              string `json:"ct,omitempty"`
}

// ConversionResult is returned after the ad platform accepted an event.
type ConversionResult struct {
	Success        bool   `json:"success"`
	EventsReceived int    `json:"events_received"`
	FBTraceID      string `json:"fbtrace_id"`
	EventID        string `json:"event_id"`
}

// RequestMeta is what the handlers extract from the inbound HTTP request.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Referer   string
	BaseURL   string
}
