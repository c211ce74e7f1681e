package model

import "time"

type GenerateResponse struct {
	Success        bool              `json:"success"`
	Wireframe      WireframeEnvelope `json:"wireframe"`
	Message        string            `json:"message"`
	SessionID      string            `json:"session_id"`
	IsModification bool              `json:"is_modification"`
	Suggestions    []string          `json:"suggestions,omitempty"`
	Questions      []string          `json:"questions,omitempty"`
	SessionState   SessionState      `json:"session_state"`
	Fallback       bool              `json:"fallback,omitempty"`
}

type ModifyResponse struct {
	JSON WireframeSpec `json:"json"`
	Path string        `json:"path"`
}

type SessionResponse struct {
	SessionID    string       `json:"session_id"`
	Title        string       `json:"title"`
	State        SessionState `json:"state"`
	WebsiteType  string       `json:"website_type,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	LastActivity time.Time    `json:"last_activity"`
	MessageCount int          `json:"message_count"`
}

// ProgressEvent 生成过程中的阶段通知，用于 SSE 推送
type ProgressEvent struct {
	Phase     string    `json:"phase"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
