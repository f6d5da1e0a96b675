package api

import (
	"context"
	"errors"
	"net/http"

	"bloodbank/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 错误码定义
const (
	// 通用错误码
	ErrCodeInvalidRequest     = "ERR_INVALID_REQUEST"
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeForbidden          = "ERR_FORBIDDEN"
	ErrCodeNotFound           = "ERR_NOT_FOUND"
	ErrCodeConflict           = "ERR_CONFLICT"
	ErrCodeInternalError      = "ERR_INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"

	// 认证错误码
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrCodeEmailExists        = "ERR_EMAIL_EXISTS"
	ErrCodeRegistrationClosed = "ERR_REGISTRATION_CLOSED"
	ErrCodeSessionExpired     = "ERR_SESSION_EXPIRED"

	// 业务逻辑错误码
	ErrCodeMissingField      = "ERR_MISSING_FIELD"
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	ErrCodeIneligibleDonor   = "ERR_INELIGIBLE_DONOR"
	ErrCodeInvalidTransition = "ERR_INVALID_TRANSITION"
)

// APIError 统一的 API 错误响应结构
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse 返回统一格式的错误响应
func ErrorResponse(c *gin.Context, status int, code string, message string) {
	c.JSON(status, APIError{
		Code:    code,
		Message: message,
	})
}

// ErrorResponseWithDetails 返回带详情的错误响应
func ErrorResponseWithDetails(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, APIError{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// BadRequest 400 错误请求
func BadRequest(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401 未授权
func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden 403 禁止访问
func Forbidden(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, ErrCodeForbidden, message)
}

// NotFound 404 资源不存在
func NotFound(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusNotFound, code, message)
}

// InternalError 500 服务器内部错误
func InternalError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// ServiceUnavailable 503 服务不可用
func ServiceUnavailable(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message)
}

// MissingField 缺少必填字段
func MissingField(c *gin.Context, field string) {
	ErrorResponseWithDetails(c, http.StatusBadRequest, ErrCodeMissingField, field+" is required", gin.H{"field": field})
}

// InvalidPayload 无效的请求体
func InvalidPayload(c *gin.Context) {
	ErrorResponse(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request payload")
}

// RespondError 将服务层错误映射为 HTTP 响应。存储层原始错误只记录日志，不返回给客户端。
func RespondError(c *gin.Context, err error) {
	var (
		validation *service.ValidationError
		stock      *service.InsufficientStockError
		notFound   *service.NotFoundError
		conflict   *service.ConflictError
		transition *service.TransitionError
		ineligible *service.IneligibleDonorError
	)
	switch {
	case errors.As(err, &validation):
		details := any(nil)
		if validation.Field != "" {
			details = gin.H{"field": validation.Field}
		}
		ErrorResponseWithDetails(c, http.StatusBadRequest, ErrCodeValidation, validation.Error(), details)
	case errors.As(err, &stock):
		ErrorResponseWithDetails(c, http.StatusBadRequest, ErrCodeInsufficientStock, stock.Error(), gin.H{
			"blood_group": stock.BloodGroup,
			"requested":   stock.Requested,
			"available":   stock.Available,
		})
	case errors.As(err, &ineligible):
		ErrorResponseWithDetails(c, http.StatusBadRequest, ErrCodeIneligibleDonor, ineligible.Error(), gin.H{"donor_id": ineligible.DonorID})
	case errors.As(err, &transition):
		ErrorResponseWithDetails(c, http.StatusBadRequest, ErrCodeInvalidTransition, transition.Error(), gin.H{
			"from": transition.From,
			"to":   transition.To,
		})
	case errors.As(err, &notFound):
		NotFound(c, ErrCodeNotFound, notFound.Error())
	case errors.As(err, &conflict):
		code := ErrCodeConflict
		if conflict.Field == "email" {
			code = ErrCodeEmailExists
		}
		ErrorResponseWithDetails(c, http.StatusConflict, code, conflict.Error(), gin.H{"field": conflict.Field})
	case errors.Is(err, service.ErrInvalidCredentials):
		ErrorResponse(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, "invalid email or password")
	case errors.Is(err, service.ErrUnauthenticated):
		Unauthorized(c, "authentication required")
	case errors.Is(err, service.ErrSignupDisabled):
		ErrorResponse(c, http.StatusForbidden, ErrCodeRegistrationClosed, "signup is disabled")
	case errors.Is(err, service.ErrForbidden):
		Forbidden(c, "insufficient role for this action")
	case errors.Is(err, service.ErrConflict):
		ErrorResponse(c, http.StatusConflict, ErrCodeConflict, "conflicting identifier, please retry")
	case errors.Is(err, context.DeadlineExceeded):
		logrus.WithError(err).WithField("path", c.FullPath()).Error("request timed out")
		ServiceUnavailable(c, "request timed out")
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		InternalError(c, "internal error")
	}
}
