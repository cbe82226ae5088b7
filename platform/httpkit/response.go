// Package httpkit is the gin glue behind the read-only status surface.
package httpkit

import (
	"github.com/gin-gonic/gin"
)

// Problem is the body of every non-2xx answer.
type Problem struct {
	Error string `json:"error"`
}

// JSON writes payload with status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// Fail stops the handler chain and answers with a Problem.
func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Problem{Error: message})
}
