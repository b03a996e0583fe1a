package utils

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Response defines the standard API response envelope.
type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    Meta        `json:"meta"`
}

// ErrorInfo provides details for error responses.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta contains request-scoped metadata.
type Meta struct {
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
}

// Success writes a success response with the standard envelope.
func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Success: true,
		Code:    code,
		Message: message,
		Data:    data,
		Meta:    newMeta(c),
	})
}

// Error writes an error response with provided API error code and message.
func Error(c *gin.Context, code int, errCode, message string) {
	c.JSON(code, Response{
		Success: false,
		Code:    code,
		Message: message,
		Error: &ErrorInfo{
			Code:    errCode,
			Message: message,
		},
		Meta: newMeta(c),
	})
}

// ErrorFrom maps a service error onto an HTTP status and API code.
// Unknown errors become 500 with the fallback message so store details never leak.
func ErrorFrom(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		Error(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, ErrInvalidInput):
		Error(c, http.StatusBadRequest, "INVALID_REQUEST", strings.TrimPrefix(err.Error(), ErrInvalidInput.Error()+": "))
	case errors.Is(err, ErrInvalidStatus):
		Error(c, http.StatusBadRequest, "INVALID_STATUS", "Status must be returned or discarded")
	case errors.Is(err, ErrAlreadyResolved):
		Error(c, http.StatusConflict, "ALREADY_RESOLVED", "Item is no longer active")
	case errors.Is(err, ErrShopRequired):
		Error(c, http.StatusForbidden, "SHOP_REQUIRED", "Create a shop first")
	case errors.Is(err, ErrShopExists):
		Error(c, http.StatusConflict, "SHOP_EXISTS", "User already owns a shop")
	case errors.Is(err, ErrEmailTaken):
		Error(c, http.StatusConflict, "EMAIL_TAKEN", "Email is already registered")
	case errors.Is(err, ErrInvalidCredentials):
		Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
	case errors.Is(err, ErrSessionNotFound):
		Error(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Scan session not found")
	case errors.Is(err, ErrSessionClosed):
		Error(c, http.StatusConflict, "SESSION_CLOSED", "Scan session is no longer scanning")
	default:
		Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}

func newMeta(c *gin.Context) Meta {
	return Meta{
		RequestID: getRequestID(c),
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return uuid.New().String()[:8]
}
