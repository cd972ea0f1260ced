package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pagination 分页信息
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// NewPagination 根据总数计算总页数
func NewPagination(page, pageSize int, total int64) Pagination {
	totalPage := int64(0)
	if pageSize > 0 {
		totalPage = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPage: totalPage}
}

// Success 成功响应，fields 平铺在 success 旁
func Success(c *gin.Context, fields gin.H) {
	c.JSON(http.StatusOK, envelope(fields))
}

// Created 创建成功响应
func Created(c *gin.Context, fields gin.H) {
	c.JSON(http.StatusCreated, envelope(fields))
}

// Accepted 已受理（异步任务）
func Accepted(c *gin.Context, fields gin.H) {
	c.JSON(http.StatusAccepted, envelope(fields))
}

// SuccessWithPage 分页成功响应
func SuccessWithPage(c *gin.Context, key string, items interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, envelope(gin.H{
		key:          items,
		"pagination": pagination,
	}))
}

// Error 错误响应，status 同时作为 HTTP 状态码
func Error(c *gin.Context, status int, msg string) {
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	body := gin.H{
		"success": false,
		"error":   msg,
	}
	if id := requestID(c); id != "" {
		body["request_id"] = id
	}
	c.JSON(status, body)
}

// AbortWithError 错误响应并中断后续中间件
func AbortWithError(c *gin.Context, status int, msg string) {
	Error(c, status, msg)
	c.Abort()
}

func envelope(fields gin.H) gin.H {
	body := gin.H{"success": true}
	for key, value := range fields {
		if key == "success" {
			continue
		}
		body[key] = value
	}
	return body
}

func requestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if value, ok := c.Get("request_id"); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
