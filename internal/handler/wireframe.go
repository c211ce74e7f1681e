package handler

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/middleware"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/model"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/service"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/utils"
	"github.com/sri11223/Advanced-ui-workflow-sub001/pkg/logger"
)

const defaultHeartbeat = 15 * time.Second

type WireframeHandler struct {
	svc            *service.WireframeService
	requestTimeout time.Duration
	heartbeat      time.Duration
}

func NewWireframeHandler(svc *service.WireframeService, requestTimeout time.Duration) *WireframeHandler {
	return &WireframeHandler{
		svc:            svc,
		requestTimeout: requestTimeout,
		heartbeat:      defaultHeartbeat,
	}
}

func (h *WireframeHandler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.requestTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.requestTimeout)
}

// statusFor 把服务层错误映射为 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrEmptyPrompt), errors.Is(err, service.ErrEmptyWireframe):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func errorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusNotFound:
		return "session_not_found"
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return "timeout"
	default:
		return "service_error"
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
		"type":    errorType(status),
	})
}

func (h *WireframeHandler) Generate(c *gin.Context) {
	var req model.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "type": "invalid_request"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	resp, err := h.svc.Generate(ctx, req, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Stream 与 Generate 相同，但通过 SSE 推送各阶段进度，最后发送 wireframe 事件和 [DONE]
func (h *WireframeHandler) Stream(c *gin.Context) {
	var req model.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "type": "invalid_request"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	log := logger.WithFields(logrus.Fields{
		"request_id": middleware.RequestIDFrom(c),
		"session_id": req.SessionID,
	})
	sse := utils.NewSSEWriter(c.Writer)

	stopHeartbeat := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := sse.WriteJSON("heartbeat", gin.H{"timestamp": time.Now().Unix()}); err != nil {
					return
				}
			case <-stopHeartbeat:
				return
			}
		}
	}()
	defer func() {
		close(stopHeartbeat)
		wg.Wait()
	}()

	resp, err := h.svc.Generate(ctx, req, func(ev model.ProgressEvent) {
		if werr := sse.WriteJSON("status", ev); werr != nil {
			log.Debugf("Failed to write status event: %v", werr)
		}
	})
	if err != nil {
		status := statusFor(err)
		log.Warnf("Stream generation failed: %v", err)
		_ = sse.WriteJSON("error", gin.H{
			"error":     err.Error(),
			"type":      errorType(status),
			"status":    status,
			"timestamp": time.Now().Unix(),
		})
		_ = sse.Close()
		return
	}

	if err := sse.WriteJSON("wireframe", resp); err != nil {
		log.Errorf("Failed to write wireframe event: %v", err)
		return
	}
	_ = sse.Close()
}

func (h *WireframeHandler) Modify(c *gin.Context) {
	var req model.ModifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "type": "invalid_request"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	resp, err := h.svc.Modify(ctx, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *WireframeHandler) ListSessions(c *gin.Context) {
	sessions, err := h.svc.ListSessions()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *WireframeHandler) GetSession(c *gin.Context) {
	sess, err := h.svc.GetSession(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session":           service.SessionSummary(sess),
		"current_wireframe": sess.CurrentWireframe,
		"pending_questions": sess.PendingQuestions,
		"answers":           sess.Answers,
	})
}

func (h *WireframeHandler) GetMessages(c *gin.Context) {
	sessionID := c.Param("id")
	messages, err := h.svc.GetSessionMessages(sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"messages":   messages,
	})
}

func (h *WireframeHandler) DeleteSession(c *gin.Context) {
	if err := h.svc.DeleteSession(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted successfully"})
}
