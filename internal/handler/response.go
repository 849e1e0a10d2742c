package handler

import (
	"errors"
	"log"

	"github.com/asadsehto/CareToShare/internal/apperr"

	"github.com/gin-gonic/gin"
)

// respondOK 统一成功响应 {success, data}
func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondMsg(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": true, "message": message})
}

// respondErr 业务错误统一出口；私有班级缺密码时带 requiresPassword
// 让客户端弹密码框
func respondErr(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		body := gin.H{"success": false, "message": appErr.Message}
		if appErr.Field != "" {
			body["field"] = appErr.Field
		}
		if errors.Is(err, apperr.ErrPasswordRequired) {
			body["requiresPassword"] = true
			body["className"] = appErr.ClassName
		}
		c.JSON(status, body)
		return
	}

	// 非业务错误不外泄细节
	log.Printf("internal error: %s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(status, gin.H{"success": false, "message": "Internal server error"})
}
