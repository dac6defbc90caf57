package model

// LeadSubmission is the payload posted by the landing page form.
type LeadSubmission struct {
	Name         string            `json:"name"`
	Phone        string            `json:"phone"`
	WhatsApp     string            `json:"whatsapp"`
	Email        string            `json:"email"`
	PackageType  string            `json:"package_type"`
	Comments     string            `json:"comments"`
	UTM          map[string]string `json:"utm"`
	PageURL      string            `json:"page_url"`
	SiteLanguage string            `json:"site_language"`
	UserID       string            `json:"user_id"`
	SessionID    string            `json:"session_id"`
	FBP          string            `json:"fbp"`
	FBC          string            `json:"fbc"`
	// EventID is the id the browser pixel already used, if any.
	EventID string `json:"event_id"`
}

// UTMValue returns the UTM parameter or def when it is missing or empty.
func (l LeadSubmission) UTMValue(key, def string) string {
	if v := l.UTM[key]; v != "" {
		return v
	}
	return def
}

// LeadResponse is returned by the lead intake endpoint.
type LeadResponse struct {
	Success   bool   `json:"success"`
	LeadID    *int64 `json:"lead_id"`
	FBEventID string `json:"fb_event_id"`
	Message   string `json:"message"`
}
