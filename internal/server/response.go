package server

import "github.com/gin-gonic/gin"

// 统一的响应包络：成功 code 为 0，失败为 -1
type envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(200, envelope{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{
		Code:    -1,
		Message: message,
	})
}
