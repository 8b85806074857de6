package http

import "github.com/gin-gonic/gin"

// ErrorResponse writes a uniform error body.
func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

// SuccessResponse writes a success body as-is.
func SuccessResponse(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}
