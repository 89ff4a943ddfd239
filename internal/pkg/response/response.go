// internal/pkg/response/response.go
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the response format shared with the upstream EduScribe API:
// every normalized response carries a status flag, a human message and an
// optional payload.
type Envelope struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Success sends a successful envelope with a message and optional data.
func Success(c *gin.Context, status int, message string, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}

	c.JSON(status, Envelope{
		Status:  true,
		Message: message,
		Data:    data,
	})
}

// Error sends a failed envelope. The handler chain is aborted first so no
// later middleware writes on top of it.
func Error(c *gin.Context, code int, message string) {
	c.Abort()
	c.JSON(code, Envelope{
		Status:  false,
		Message: message,
		Data:    nil,
	})
}

// ServerError sends the gateway's terminal 500 envelope. The diagnostic is
// appended to the message so callers can surface it once.
func ServerError(c *gin.Context, err error) {
	msg := "Server error"
	if err != nil {
		msg = "Server error: " + err.Error()
	}
	Error(c, http.StatusInternalServerError, msg)
}

// Unauthorized sends a 401 envelope.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}
