package model

import "time"

// SessionState 会话状态机的状态，没有终止态
type SessionState string

const (
	StateInitial     SessionState = "initial"
	StateQuestioning SessionState = "questioning"
	StateGenerating  SessionState = "generating"
	StateModifying   SessionState = "modifying"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type Session struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Messages         []Message         `json:"messages"`
	CurrentWireframe *WireframeSpec    `json:"current_wireframe,omitempty"`
	State            SessionState      `json:"state"`
	PendingQuestions []string          `json:"pending_questions,omitempty"`
	Answers          map[string]string `json:"answers,omitempty"`
	WebsiteType      string            `json:"website_type,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	LastActivity     time.Time         `json:"last_activity"`
}

// Clone 深拷贝会话，存储层借此避免调用方共享内部状态
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Messages != nil {
		out.Messages = make([]Message, len(s.Messages))
		copy(out.Messages, s.Messages)
	}
	if s.CurrentWireframe != nil {
		wf := s.CurrentWireframe.Clone()
		out.CurrentWireframe = &wf
	}
	if s.PendingQuestions != nil {
		out.PendingQuestions = append([]string(nil), s.PendingQuestions...)
	}
	if s.Answers != nil {
		out.Answers = make(map[string]string, len(s.Answers))
		for k, v := range s.Answers {
			out.Answers[k] = v
		}
	}
	return &out
}
