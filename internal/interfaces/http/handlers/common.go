// Package handlers implements the gin HTTP handlers for the MolVista API.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/molvista/molvista/pkg/errors"
)

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError maps an application error to its HTTP status and envelope.
// Errors without a typed code are masked as internal.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	message := err.Error()
	if code == errors.CodeUnknown || code == errors.ErrCodeInternal {
		code = errors.ErrCodeInternal
		message = "internal server error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(code.HTTPStatus(), ErrorResponse{
		Code:    string(code),
		Message: message,
	})
}
