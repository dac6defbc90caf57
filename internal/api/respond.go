package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"lead-gateway/internal/apperr"
)

var errBodyTooLarge = errors.New("request body too large")

// decodeJSON reads the body into v. An empty body leaves v untouched.
func decodeJSON(c *gin.Context, limit int64, v any) error {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	err := json.NewDecoder(body).Decode(v)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	case errors.As(err, &tooLarge):
		return errBodyTooLarge
	default:
		return apperr.Validation("Invalid JSON body")
	}
}

// writeError maps err to the JSON error shapes shared by the conversion and
// lead endpoints.
func writeError(c *gin.Context, err error) {
	var (
		verr *apperr.ValidationError
		cerr *apperr.ConfigurationError
		uerr *apperr.UpstreamError
	)
	switch {
	case errors.Is(err, errBodyTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Msg})
	case errors.As(err, &cerr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": cerr.Msg})
	case errors.As(err, &uerr):
		c.JSON(apperr.Status(err), gin.H{"error": uerr.Service + " API error", "details": uerr.Details()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": err.Error()})
	}
}
