package api

import (
	"errors"
	"fmt"
)

// ErrNoSummary 服务端明确表示没有可用汇总（区别于网络失败：
// 视图此时应展示占位态而不是保留陈旧计数）
var ErrNoSummary = errors.New("no summary available")

// ErrNotFound 资源不存在
var ErrNotFound = errors.New("not found")

// ErrFileTooLarge 待上传文件超过后端限制
var ErrFileTooLarge = errors.New("file exceeds upload size limit")

// StatusError 非 2xx 响应
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.Code)
}

// IsStatus 判断 err 是否为指定状态码的 StatusError
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
