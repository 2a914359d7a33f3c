package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/crepmaster/pharmapp/internal/domain"
)

// respondError maps a business error onto the wire shape
// {ok:false, code, message, details?}. Unknown errors become 500s and are the
// only ones logged here; business rejections already carry their context.
func respondError(c *gin.Context, logger zerolog.Logger, err error) {
	appErr := domain.AsError(err)
	if appErr.Code == domain.CodeInternal {
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	}

	body := gin.H{
		"ok":      false,
		"code":    appErr.Code,
		"message": appErr.Message,
	}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	c.JSON(appErr.Status, body)
}

func respondOK(c *gin.Context, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["ok"] = true
	c.JSON(http.StatusOK, body)
}
