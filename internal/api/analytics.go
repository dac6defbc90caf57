package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"lead-gateway/internal/analytics"
	"lead-gateway/internal/httpx"
)

// handleAnalytics stores any JSON object. The body size limit is the only check.
func (s *server) handleAnalytics(c *gin.Context) {
	var event map[string]any
	if err := decodeJSON(c, s.maxBody, &event); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}

	doc := analytics.NewDocument(event, httpx.ForwardedOrRemote(c.Request), c.GetHeader("User-Agent"), s.now())
	id, err := s.sink.Store(c.Request.Context(), doc)
	if err != nil {
		s.metrics.AnalyticsStored(s.sink.Backend(), "error")
		s.log.Error("analytics store failed", slog.String("backend", s.sink.Backend()), slog.String("err", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	s.metrics.AnalyticsStored(s.sink.Backend(), "success")
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}
