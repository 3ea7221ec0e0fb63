package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/examtrack-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondServiceError maps engine sentinels onto status codes before
// responding.
func RespondServiceError(c *gin.Context, err error) {
	apiErr := apierr.FromError(err)
	if apiErr == nil {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	RespondError(c, apiErr.Status, apiErr.Code, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
