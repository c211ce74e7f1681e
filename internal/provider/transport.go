package provider

import (
	"bytes"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/config"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/utils"
	"github.com/sri11223/Advanced-ui-workflow-sub001/pkg/logger"
)

var (
	sensitiveHeaders = []string{"authorization", "x-api-key", "x-auth-token", "cookie", "api-key"}
	sensitiveJSONRe  = regexp.MustCompile(`(?i)("?(?:api_key|apikey|password|secret|token)"?\s*:\s*)"[^"]*"`)
)

// DebugTransport 记录出站请求（敏感字段打码），用于排查后端请求体问题
type DebugTransport struct {
	base     http.RoundTripper
	provider string
}

func NewDebugTransport(base http.RoundTripper, provider string) *DebugTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &DebugTransport{base: base, provider: provider}
}

func (t *DebugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	entry := logger.WithFields(logrus.Fields{"provider": t.provider})
	if req.Method == http.MethodPost {
		t.logRequest(entry, req)
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		entry.Errorf("request failed after %s: %v", time.Since(start), err)
		return resp, err
	}
	entry.Debugf("response status %d in %s", resp.StatusCode, time.Since(start))
	return resp, nil
}

func (t *DebugTransport) logRequest(entry *logrus.Entry, req *http.Request) {
	entry.Debugf("%s %s", req.Method, req.URL.String())
	for name, values := range req.Header {
		if isSensitiveHeader(name) {
			entry.Debugf("  %s: [REDACTED]", name)
		} else {
			entry.Debugf("  %s: %s", name, strings.Join(values, ", "))
		}
	}
	if req.Body == nil {
		return
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		entry.Errorf("failed to read request body: %v", err)
		return
	}
	// 读完后放回，不影响真正的请求
	req.Body = io.NopCloser(bytes.NewReader(body))
	entry.Debugf("request body (%d bytes): %s", len(body), SanitizeJSON(string(body)))
}

// SanitizeJSON 把密钥类字段的值替换为 [REDACTED]
func SanitizeJSON(s string) string {
	return sensitiveJSONRe.ReplaceAllString(s, `$1"[REDACTED]"`)
}

func isSensitiveHeader(name string) bool {
	for _, h := range sensitiveHeaders {
		if strings.EqualFold(name, h) {
			return true
		}
	}
	return false
}

func newHTTPClient(cfg config.ProviderConfig) *http.Client {
	client := utils.NewHTTPClient(cfg.Timeout)
	if cfg.DebugRequest {
		client.Transport = NewDebugTransport(client.Transport, cfg.Name)
	}
	return client
}
