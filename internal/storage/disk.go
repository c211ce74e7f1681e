package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/model"
	"github.com/sri11223/Advanced-ui-workflow-sub001/pkg/logger"
)

const defaultDiskCacheSize = 100

// DiskStorage 每个会话一个 JSON 文件，消息单独存放；热会话放在 LRU 缓存中
type DiskStorage struct {
	dataDir string
	mu      sync.RWMutex
	cache   *lru.Cache[string, *model.Session]
	index   map[string]SessionIndex
}

func NewDiskStorage(dataDir string, cacheSize int) *DiskStorage {
	if cacheSize <= 0 {
		cacheSize = defaultDiskCacheSize
	}
	cache, _ := lru.New[string, *model.Session](cacheSize)
	return &DiskStorage{
		dataDir: dataDir,
		cache:   cache,
		index:   make(map[string]SessionIndex),
	}
}

func (d *DiskStorage) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.createDirectories(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}
	if err := d.loadIndex(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	logger.Infof("Disk storage initialized at %s with %d sessions", d.dataDir, len(d.index))
	return nil
}

func (d *DiskStorage) createDirectories() error {
	dirs := []string{
		d.dataDir,
		filepath.Join(d.dataDir, "sessions"),
		filepath.Join(d.dataDir, "messages"),
		filepath.Join(d.dataDir, "backup"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func (d *DiskStorage) indexPath() string {
	return filepath.Join(d.dataDir, "sessions.json")
}

func (d *DiskStorage) sessionPath(id string) string {
	return filepath.Join(d.dataDir, "sessions", id+".json")
}

func (d *DiskStorage) messagesPath(id string) string {
	return filepath.Join(d.dataDir, "messages", id+".json")
}

func (d *DiskStorage) loadIndex() error {
	data, err := os.ReadFile(d.indexPath())
	if errors.Is(err, os.ErrNotExist) {
		return d.saveIndex()
	}
	if err != nil {
		return err
	}

	var indexes []SessionIndex
	if err := json.Unmarshal(data, &indexes); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	for _, idx := range indexes {
		d.index[idx.ID] = idx
	}
	return nil
}

func (d *DiskStorage) saveIndex() error {
	indexes := make([]SessionIndex, 0, len(d.index))
	for _, idx := range d.index {
		indexes = append(indexes, idx)
	}
	sortByActivity(indexes)
	return writeJSON(d.indexPath(), indexes)
}

// writeJSON 先写临时文件再 rename，避免留下半个文件
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tempPath, path)
}

func (d *DiskStorage) loadSessionFromFile(sessionID string) (*model.Session, error) {
	data, err := os.ReadFile(d.sessionPath(sessionID))
	if err != nil {
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	// 消息文件损坏时整个会话不可读，不能用空历史代替
	messages, err := d.loadMessagesFromFile(sessionID)
	if err != nil {
		logger.Errorf("Failed to load messages for session %s: %v", sessionID, err)
		return nil, err
	}
	session.Messages = messages
	return &session, nil
}

func (d *DiskStorage) loadMessagesFromFile(sessionID string) ([]model.Message, error) {
	data, err := os.ReadFile(d.messagesPath(sessionID))
	if errors.Is(err, os.ErrNotExist) {
		return []model.Message{}, nil
	}
	if err != nil {
		return nil, err
	}

	var messages []model.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("%w: messages: %v", ErrInvalidData, err)
	}
	return messages, nil
}

// persist 写会话文件、消息文件和索引，调用方持有写锁
func (d *DiskStorage) persist(session *model.Session) error {
	meta := *session
	meta.Messages = nil
	if err := writeJSON(d.sessionPath(session.ID), meta); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	messages := session.Messages
	if messages == nil {
		messages = []model.Message{}
	}
	if err := writeJSON(d.messagesPath(session.ID), messages); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	d.index[session.ID] = indexOf(session)
	if err := d.saveIndex(); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	d.cache.Add(session.ID, session)
	return nil
}

// load 先查缓存再读文件，调用方持有锁
func (d *DiskStorage) load(sessionID string) (*model.Session, error) {
	if session, ok := d.cache.Get(sessionID); ok {
		return session, nil
	}
	if _, ok := d.index[sessionID]; !ok {
		return nil, ErrSessionNotFound
	}
	session, err := d.loadSessionFromFile(sessionID)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSessionNotFound
		}
		if errors.Is(err, ErrInvalidData) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	d.cache.Add(sessionID, session)
	return session, nil
}

func (d *DiskStorage) CreateSession(session *model.Session) error {
	if session == nil || session.ID == "" {
		return ErrInvalidData
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.index[session.ID]; exists {
		return ErrSessionExists
	}
	return d.persist(session.Clone())
}

func (d *DiskStorage) GetSession(sessionID string) (*model.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	session, err := d.load(sessionID)
	if err != nil {
		return nil, err
	}
	return session.Clone(), nil
}

func (d *DiskStorage) UpdateSession(session *model.Session) error {
	if session == nil {
		return ErrInvalidData
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.index[session.ID]; !exists {
		return ErrSessionNotFound
	}
	return d.persist(session.Clone())
}

func (d *DiskStorage) DeleteSession(sessionID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.index[sessionID]; !exists {
		return ErrSessionNotFound
	}
	for _, path := range []string{d.sessionPath(sessionID), d.messagesPath(sessionID)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %v", ErrFileOperation, err)
		}
	}

	d.cache.Remove(sessionID)
	delete(d.index, sessionID)
	if err := d.saveIndex(); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	return nil
}

// ListSessions 直接返回索引，不读会话文件
func (d *DiskStorage) ListSessions() ([]SessionIndex, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	sessions := make([]SessionIndex, 0, len(d.index))
	for _, idx := range d.index {
		sessions = append(sessions, idx)
	}
	sortByActivity(sessions)
	return sessions, nil
}

func (d *DiskStorage) AddMessage(sessionID string, message *model.Message) error {
	if message == nil {
		return ErrInvalidData
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	session, err := d.load(sessionID)
	if err != nil {
		return err
	}
	updated := session.Clone()
	msg := *message
	msg.SessionID = sessionID
	updated.Messages = append(updated.Messages, msg)
	if msg.Timestamp.After(updated.LastActivity) {
		updated.LastActivity = msg.Timestamp
	}
	return d.persist(updated)
}

func (d *DiskStorage) GetMessages(sessionID string) ([]*model.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	session, err := d.load(sessionID)
	if err != nil {
		return nil, err
	}
	return messagePointers(session.Messages), nil
}

func (d *DiskStorage) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache.Purge()
	return nil
}

// Backup 把会话、消息和索引复制到 backup/backup_<unix>
func (d *DiskStorage) Backup() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	backupDir := filepath.Join(d.dataDir, "backup", fmt.Sprintf("backup_%d", time.Now().UnixNano()))
	for _, dir := range []string{"sessions", "messages"} {
		dstDir := filepath.Join(backupDir, dir)
		if err := os.MkdirAll(dstDir, 0755); err != nil {
			return fmt.Errorf("%w: %v", ErrFileOperation, err)
		}
		if err := copyDir(filepath.Join(d.dataDir, dir), dstDir); err != nil {
			return fmt.Errorf("%w: %v", ErrFileOperation, err)
		}
	}
	if err := copyFile(d.indexPath(), filepath.Join(backupDir, "sessions.json")); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	logger.Infof("Backup completed: %s", backupDir)
	return nil
}

func copyDir(src, dst string) error {
	files, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if err := copyFile(filepath.Join(src, file.Name()), filepath.Join(dst, file.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
