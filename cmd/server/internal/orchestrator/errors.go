package orchestrator

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode 表示流水线致命错误类型代码
type ErrorCode string

const (
	// INVALID_INPUT 音频为空或切片参数非法
	INVALID_INPUT ErrorCode = "INVALID_INPUT"

	// DECODE_FAILED 文件不可读或编码不支持
	DECODE_FAILED ErrorCode = "DECODE_FAILED"

	// TRANSCRIPTION_FAILED 任一切片转写失败
	TRANSCRIPTION_FAILED ErrorCode = "TRANSCRIPTION_FAILED"
)

// OrchError 表示流水线终止错误，出现时不返回任何状态
type OrchError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Cause     error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// Error 实现 error 接口
func (e *OrchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 实现错误链支持
func (e *OrchError) Unwrap() error {
	return e.Cause
}

// HTTPStatus 将错误代码映射为 HTTP 状态码
func (e *OrchError) HTTPStatus() int {
	switch e.Code {
	case INVALID_INPUT, DECODE_FAILED:
		return http.StatusUnprocessableEntity
	case TRANSCRIPTION_FAILED:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewOrchError 创建新的 Orchestrator 错误
func NewOrchError(code ErrorCode, message string, cause error) *OrchError {
	return &OrchError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// NewInvalidInputError 创建输入非法错误
func NewInvalidInputError(cause error) *OrchError {
	return NewOrchError(INVALID_INPUT, "audio cannot be chunked", cause)
}

// NewDecodeError 创建解码失败错误
func NewDecodeError(cause error) *OrchError {
	return NewOrchError(DECODE_FAILED, "audio decoding failed", cause)
}

// NewTranscriptionError 创建转写失败错误
func NewTranscriptionError(cause error) *OrchError {
	return NewOrchError(TRANSCRIPTION_FAILED, "speech recognition failed", cause)
}

// CodeOf 返回错误链中的 ErrorCode，非 OrchError 返回空字符串
func CodeOf(err error) ErrorCode {
	var oe *OrchError
	if errors.As(err, &oe) {
		return oe.Code
	}
	return ""
}
