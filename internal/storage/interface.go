package storage

import (
	"time"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/model"
)

// SessionIndex 会话摘要，列表接口和磁盘索引共用
type SessionIndex struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	State        model.SessionState `json:"state"`
	WebsiteType  string             `json:"website_type,omitempty"`
	MessageCount int                `json:"message_count"`
	CreatedAt    time.Time          `json:"created_at"`
	LastActivity time.Time          `json:"last_activity"`
}

func indexOf(session *model.Session) SessionIndex {
	return SessionIndex{
		ID:           session.ID,
		Title:        session.Title,
		State:        session.State,
		WebsiteType:  session.WebsiteType,
		MessageCount: len(session.Messages),
		CreatedAt:    session.CreatedAt,
		LastActivity: session.LastActivity,
	}
}

// Storage 会话存储。实现返回的会话均为副本，调用方修改后需通过 UpdateSession 写回。
type Storage interface {
	// 会话管理
	CreateSession(session *model.Session) error
	GetSession(sessionID string) (*model.Session, error)
	UpdateSession(session *model.Session) error
	DeleteSession(sessionID string) error
	ListSessions() ([]SessionIndex, error)

	// 消息管理，消息追加后不再修改
	AddMessage(sessionID string, message *model.Message) error
	GetMessages(sessionID string) ([]*model.Message, error)

	// 存储管理
	Init() error
	Close() error
	Backup() error
}
