package capi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"lead-gateway/internal/apperr"
	"lead-gateway/internal/httpx"
	"lead-gateway/internal/model"
)

// EndpointPath is where the forwarder is mounted on the public router.
const EndpointPath = "/api/facebook-capi"

// LoopbackClient sends conversion requests to this service's own public
// forwarding endpoint instead of calling a Forwarder in process.
type LoopbackClient struct {
	client  httpx.HTTPClient
	baseURL string
}

// NewLoopbackClient builds the client. A non-empty baseURL pins the target;
// otherwise the origin of the inbound request is used.
func NewLoopbackClient(client httpx.HTTPClient, baseURL string) *LoopbackClient {
	return &LoopbackClient{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// Forward posts req to the base URL + EndpointPath. The visitor IP and
// user agent are passed along so the forwarder reports the visitor, not us.
func (l *LoopbackClient) Forward(ctx context.Context, req model.ConversionRequest, meta model.RequestMeta) (model.ConversionResult, error) {
	headers := map[string]string{}
	if meta.ClientIP != "" {
		headers["X-Forwarded-For"] = meta.ClientIP
	}
	if meta.UserAgent != "" {
		headers["User-Agent"] = meta.UserAgent
	}
	if meta.Referer != "" {
		headers["Referer"] = meta.Referer
	}
	base := l.baseURL
	if base == "" {
		base = meta.BaseURL
	}
	resp, err := httpx.PostJSON(ctx, l.client, base+EndpointPath, headers, req)
	if err != nil {
		return model.ConversionResult{}, fmt.Errorf("post %s: %w", EndpointPath, err)
	}
	if !resp.OK() {
		return model.ConversionResult{}, &apperr.UpstreamError{Service: "conversion endpoint", StatusCode: resp.StatusCode, Body: resp.Body}
	}
	var result model.ConversionResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return model.ConversionResult{}, fmt.Errorf("decode %s response: %w", EndpointPath, err)
	}
	return result, nil
}
