package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/model"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/storage"
	"github.com/sri11223/Advanced-ui-workflow-sub001/pkg/logger"
)

func wrapNotFound(err error, sessionID, action string) error {
	if errors.Is(err, storage.ErrSessionNotFound) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func (s *WireframeService) GetSession(sessionID string) (*model.Session, error) {
	session, err := s.store.GetSession(sessionID)
	if err != nil {
		return nil, wrapNotFound(err, sessionID, "get session")
	}
	return session, nil
}

func (s *WireframeService) GetSessionMessages(sessionID string) ([]model.Message, error) {
	messages, err := s.store.GetMessages(sessionID)
	if err != nil {
		return nil, wrapNotFound(err, sessionID, "get messages")
	}
	result := make([]model.Message, len(messages))
	for i, msg := range messages {
		result[i] = *msg
	}
	return result, nil
}

// ListSessions 会话摘要，按最近活跃排序
func (s *WireframeService) ListSessions() ([]model.SessionResponse, error) {
	sessions, err := s.store.ListSessions()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	out := make([]model.SessionResponse, 0, len(sessions))
	for _, idx := range sessions {
		out = append(out, model.SessionResponse{
			SessionID:    idx.ID,
			Title:        idx.Title,
			State:        idx.State,
			WebsiteType:  idx.WebsiteType,
			CreatedAt:    idx.CreatedAt,
			LastActivity: idx.LastActivity,
			MessageCount: idx.MessageCount,
		})
	}
	return out, nil
}

func SessionSummary(sess *model.Session) model.SessionResponse {
	return model.SessionResponse{
		SessionID:    sess.ID,
		Title:        sess.Title,
		State:        sess.State,
		WebsiteType:  sess.WebsiteType,
		CreatedAt:    sess.CreatedAt,
		LastActivity: sess.LastActivity,
		MessageCount: len(sess.Messages),
	}
}

func (s *WireframeService) DeleteSession(sessionID string) error {
	unlock := s.lockSession(sessionID)
	defer unlock()
	if err := s.store.DeleteSession(sessionID); err != nil {
		return wrapNotFound(err, sessionID, "delete session")
	}
	return nil
}

// SweepExpired 删除空闲超过 TTL 的会话，返回删除数量；TTL <= 0 时不清理
func (s *WireframeService) SweepExpired() int {
	if s.config.TTL <= 0 {
		return 0
	}
	sessions, err := s.store.ListSessions()
	if err != nil {
		logger.Errorf("Failed to list sessions for cleanup: %v", err)
		return 0
	}

	cutoff := s.now().Add(-s.config.TTL)
	removed := 0
	for _, sess := range sessions {
		if !sess.LastActivity.Before(cutoff) {
			continue
		}
		if s.deleteIfIdle(sess.ID, cutoff) {
			removed++
		}
	}
	return removed
}

// deleteIfIdle 持锁后重新检查活跃时间，避免删掉刚被请求更新的会话
func (s *WireframeService) deleteIfIdle(sessionID string, cutoff time.Time) bool {
	unlock := s.lockSession(sessionID)
	defer unlock()

	sess, err := s.store.GetSession(sessionID)
	if err != nil || !sess.LastActivity.Before(cutoff) {
		return false
	}
	if err := s.store.DeleteSession(sessionID); err != nil {
		logger.Errorf("Failed to delete expired session %s: %v", sessionID, err)
		return false
	}
	logger.Infof("Cleaned up expired session: %s", sessionID)
	return true
}

// Start 启动后台会话清理，重复调用无效
func (s *WireframeService) Start() {
	interval := s.config.CleanupInterval
	if interval <= 0 || s.config.TTL <= 0 {
		return
	}
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				if n := s.SweepExpired(); n > 0 {
					logger.Infof("Session cleanup removed %d sessions", n)
				}
			}
		}
	}()
}

// Close 停止后台清理，可重复调用
func (s *WireframeService) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
	if s.started.Load() {
		<-s.done
	}
}
