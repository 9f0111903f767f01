package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"hms-listview/internal/domain"
)

// ErrQueued 变更请求因离线/网络故障已进入离线队列
var ErrQueued = errors.New("request queued for replay")

// Error 归一化后的 use-case 错误
type Error struct {
	Code    domain.ErrorCode
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// FromStatus HTTP 状态码 -> 错误分类
func FromStatus(status int, message string) *Error {
	code := domain.ErrUnknown
	switch status {
	case http.StatusUnauthorized:
		code = domain.ErrUnauthorized
	case http.StatusForbidden:
		code = domain.ErrForbidden
	case http.StatusNotFound:
		code = domain.ErrNotFound
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		code = domain.ErrNetwork
	}
	return &Error{Code: code, Status: status, Message: message}
}

// Normalize 把任意错误归一为 *Error（nil 保持 nil）
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	var ue *Error
	if errors.As(err, &ue) {
		return ue
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Code: domain.ErrUnknown, Message: err.Error(), Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: domain.ErrNetwork, Message: err.Error(), Err: err}
	}
	return &Error{Code: domain.ErrUnknown, Message: err.Error(), Err: err}
}

// CodeOf 返回错误分类；nil 返回空串
func CodeOf(err error) domain.ErrorCode {
	if err == nil {
		return ""
	}
	return Normalize(err).Code
}
