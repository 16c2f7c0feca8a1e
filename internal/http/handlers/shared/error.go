package shared

import (
	"errors"

	"github.com/ecommapi/internal/http/response"
	"github.com/ecommapi/internal/logger"
	"github.com/ecommapi/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// mappedHandlerError 定义业务错误分类到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
}

var serviceErrorRules = []mappedHandlerError{
	{target: service.ErrNotFound, code: response.CodeNotFound},
	{target: service.ErrValidation, code: response.CodeBadRequest},
	{target: service.ErrConflict, code: response.CodeConflict},
	{target: service.ErrUnauthorized, code: response.CodeUnauthorized},
	{target: service.ErrForbidden, code: response.CodeForbidden},
	{target: service.ErrSignatureInvalid, code: response.CodeBadRequest},
	{target: service.ErrUnavailable, code: response.CodeServiceUnavailable},
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	respondAppError(c, appErr)
}

// RespondServiceError 按业务错误分类返回对应状态，未知错误记录日志并返回 500。
func RespondServiceError(c *gin.Context, err error, fallbackMsg string) {
	for _, rule := range serviceErrorRules {
		if !errors.Is(err, rule.target) {
			continue
		}
		appErr := response.WrapError(rule.code, err.Error(), nil)
		var bizErr *service.BusinessError
		if errors.As(err, &bizErr) {
			appErr.Message = bizErr.Msg
			appErr.WithField(bizErr.Field)
		}
		RequestLog(c).Debugw("handler_business_error", "code", rule.code, "error", err)
		respondAppError(c, appErr)
		return
	}
	RespondError(c, response.CodeInternal, fallbackMsg, err)
}

// BindJSON 解析请求体，失败时返回 400。
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		translated := service.TranslateValidationError(err)
		var bizErr *service.BusinessError
		if errors.As(translated, &bizErr) && bizErr.Field != "" {
			respondAppError(c, response.WrapError(response.CodeBadRequest, bizErr.Msg, nil).WithField(bizErr.Field))
			return false
		}
		respondAppError(c, response.WrapError(response.CodeBadRequest, "invalid request body", nil))
		return false
	}
	return true
}

func respondAppError(c *gin.Context, appErr *response.AppError) {
	if appErr.Field == "" {
		response.Error(c, appErr.Code, appErr.Message)
		return
	}
	response.ErrorWithData(c, appErr.Code, appErr.Message, gin.H{"field": appErr.Field})
}
