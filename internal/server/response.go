package server

import (
	"errors"
	"net/http"
	"project-portal/internal/domain"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope every /api endpoint answers with
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func success(c *gin.Context, statusCode int, data interface{}, message string) {
	c.JSON(statusCode, APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

func fail(c *gin.Context, statusCode int, err error, message string) {
	resp := APIResponse{
		Status:  "error",
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(statusCode, resp)
}

// errorStatus maps domain errors onto HTTP status codes
func errorStatus(err error) int {
	var importErr *domain.ImportError
	var scanErr *domain.ScanError

	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrProjectDisabled):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicatePath):
		return http.StatusConflict
	case errors.As(err, &importErr), errors.As(err, &scanErr), errors.Is(err, domain.ErrInvalidProject):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
