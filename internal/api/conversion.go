package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"lead-gateway/internal/model"
)

func (s *server) handleConversion(c *gin.Context) {
	var req model.ConversionRequest
	if err := decodeJSON(c, s.maxBody, &req); err != nil {
		writeError(c, err)
		return
	}
	res, err := s.forwarder.Forward(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		s.log.Warn("conversion request rejected", slog.String("event_id", req.EventID), slog.String("err", err.Error()))
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
