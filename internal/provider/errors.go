package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"regexp"
	"strconv"
	"strings"
	"syscall"

	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrAllProvidersExhausted 主后端和所有备用后端都失败
	ErrAllProvidersExhausted = errors.New("all providers exhausted")
	// ErrEmptyCompletion 后端返回了空内容
	ErrEmptyCompletion = errors.New("provider returned an empty completion")
	// ErrCircuitOpen 熔断中，本次跳过该后端
	ErrCircuitOpen = errors.New("provider circuit open")
)

// TransientError 可重试的失败：超时、限流、5xx、连接重置
type TransientError struct {
	Provider string
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient: %v", e.Provider, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError 重试无意义的失败：鉴权、请求格式错误
type PermanentError struct {
	Provider string
	Err      error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("%s: permanent: %v", e.Provider, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// StatusError 带 HTTP 状态码的后端错误
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

// ProviderFailure 单个后端最终失败的原因
type ProviderFailure struct {
	Provider string
	Err      error
}

// AllProvidersExhaustedError 列出每个后端的失败原因
type AllProvidersExhaustedError struct {
	Failures []ProviderFailure
}

func (e *AllProvidersExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Provider, f.Err))
	}
	return fmt.Sprintf("%v: %s", ErrAllProvidersExhausted, strings.Join(parts, "; "))
}

func (e *AllProvidersExhaustedError) Unwrap() error { return ErrAllProvidersExhausted }

var statusInMessageRe = regexp.MustCompile(`(?i)status(?:\s*code)?\s*[:=]?\s*(\d{3})\b`)

// Classify 把后端原始错误归类为 TransientError 或 PermanentError
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransientError
	var pe *PermanentError
	if errors.As(err, &te) || errors.As(err, &pe) {
		return err
	}
	if IsTransient(err) {
		return &TransientError{Provider: provider, Err: err}
	}
	return &PermanentError{Provider: provider, Err: err}
}

// IsTransient 判断错误是否值得重试；无法识别的错误按可重试处理
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var pe *PermanentError
	if errors.As(err, &pe) {
		return false
	}
	if errors.Is(err, ErrEmptyCompletion) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var se *StatusError
	if errors.As(err, &se) {
		return transientStatus(se.Code)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return transientStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return transientStatus(reqErr.HTTPStatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}

	// ark/qwen 的错误只在消息里带状态码
	if m := statusInMessageRe.FindStringSubmatch(err.Error()); m != nil {
		if code, convErr := strconv.Atoi(m[1]); convErr == nil {
			return transientStatus(code)
		}
	}
	return true
}

func transientStatus(code int) bool {
	switch {
	case code == 408 || code == 429:
		return true
	case code >= 500:
		return true
	case code >= 400:
		return false
	default:
		return true
	}
}
