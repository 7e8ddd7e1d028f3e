package response

import "github.com/gin-gonic/gin"

// Envelope is the uniform body of every non-streaming response:
// code mirrors the HTTP status so clients can switch on the body alone.
type Envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Success writes the uniform success envelope.
func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Envelope{Code: code, Message: message, Data: data})
}

// Error writes the uniform error envelope.
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Envelope{Code: code, Message: message, Data: nil})
}
