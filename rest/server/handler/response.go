package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Envelope is the uniform response wrapper for every API endpoint.
type Envelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ErrorResponse is kept for swagger annotations on failure paths.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

func respondError(c *gin.Context, status int, err error) {
	c.JSON(status, Envelope{
		Success:   false,
		Error:     err.Error(),
		Timestamp: time.Now().UTC(),
	})
}
