package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lead-gateway/internal/model"
)

func (s *server) handleSubmitLead(c *gin.Context) {
	var sub model.LeadSubmission
	if err := decodeJSON(c, s.maxBody, &sub); err != nil {
		writeError(c, err)
		return
	}
	out, err := s.leads.Submit(c.Request.Context(), sub, requestMeta(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out.Response())
}
