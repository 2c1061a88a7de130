package response

import "github.com/gin-gonic/gin"

const (
	CodeOK                 = 0
	CodeBadRequest         = 40000
	CodeUsernameExists     = 40001
	CodeEmailExists        = 40002
	CodeEmptyQuestion      = 40003
	CodeFileTooLarge       = 40004
	CodeUnauthorized       = 40100
	CodeInvalidCredentials = 40101
	CodeSessionNotFound    = 40401
	CodeNoDocument         = 40901
	CodeDocumentChanged    = 40902
	CodeNoTextFound        = 42201
	CodeEmptyCorpus        = 42202
	CodeUnsupportedFormat  = 42203
	CodeMalformedDocument  = 42204
	CodeInternalServer     = 50000
	CodeModelFailure       = 50201
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}
