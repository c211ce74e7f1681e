package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/model"
)

func newSession(id string, at time.Time) *model.Session {
	return &model.Session{
		ID:           id,
		Title:        "Session " + id,
		State:        model.StateInitial,
		CreatedAt:    at,
		LastActivity: at,
	}
}

func implementations() map[string]func(t *testing.T) Storage {
	return map[string]func(t *testing.T) Storage{
		"memory": func(*testing.T) Storage { return NewMemoryStorage() },
		"disk": func(t *testing.T) Storage {
			s := NewDiskStorage(t.TempDir(), 2)
			require.NoError(t, s.Init())
			return s
		},
	}
}

func TestStorage_SessionLifecycle(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for name, mk := range implementations() {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			defer s.Close()

			require.NoError(t, s.CreateSession(newSession("a", base)))
			require.NoError(t, s.CreateSession(newSession("b", base.Add(time.Minute))))
			require.NoError(t, s.CreateSession(newSession("c", base.Add(2*time.Minute))))
			assert.ErrorIs(t, s.CreateSession(newSession("a", base)), ErrSessionExists)

			got, err := s.GetSession("a")
			require.NoError(t, err)
			assert.Equal(t, "Session a", got.Title)

			got.State = model.StateQuestioning
			got.PendingQuestions = []string{"q1"}
			got.CurrentWireframe = &model.WireframeSpec{Title: "W", Components: []model.Component{{Type: model.ComponentButton, Label: "Go"}}}
			got.LastActivity = base.Add(time.Hour)
			require.NoError(t, s.UpdateSession(got))

			again, err := s.GetSession("a")
			require.NoError(t, err)
			assert.Equal(t, model.StateQuestioning, again.State)
			assert.Equal(t, []string{"q1"}, again.PendingQuestions)
			require.NotNil(t, again.CurrentWireframe)
			assert.Equal(t, "Go", again.CurrentWireframe.Components[0].Label)

			list, err := s.ListSessions()
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, []string{"a", "c", "b"}, []string{list[0].ID, list[1].ID, list[2].ID})

			require.NoError(t, s.DeleteSession("b"))
			assert.ErrorIs(t, s.DeleteSession("b"), ErrSessionNotFound)
			_, err = s.GetSession("b")
			assert.ErrorIs(t, err, ErrSessionNotFound)
			assert.ErrorIs(t, s.UpdateSession(newSession("zzz", base)), ErrSessionNotFound)
		})
	}
}

func TestStorage_ReturnsCopies(t *testing.T) {
	for name, mk := range implementations() {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			sess := newSession("a", time.Now())
			sess.CurrentWireframe = &model.WireframeSpec{Title: "W", Components: []model.Component{{Type: model.ComponentText, Label: "x"}}}
			require.NoError(t, s.CreateSession(sess))

			sess.Title = "mutated after create"
			got, err := s.GetSession("a")
			require.NoError(t, err)
			assert.Equal(t, "Session a", got.Title)

			got.CurrentWireframe.Components[0].Label = "mutated after get"
			again, err := s.GetSession("a")
			require.NoError(t, err)
			assert.Equal(t, "x", again.CurrentWireframe.Components[0].Label)
		})
	}
}

func TestStorage_Messages(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for name, mk := range implementations() {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			require.NoError(t, s.CreateSession(newSession("a", base)))

			require.NoError(t, s.AddMessage("a", &model.Message{ID: "m1", Role: model.RoleUser, Content: "hi", Timestamp: base.Add(time.Second)}))
			require.NoError(t, s.AddMessage("a", &model.Message{ID: "m2", Role: model.RoleAssistant, Content: "hello",
				Timestamp: base.Add(2 * time.Second), Metadata: map[string]any{"state": "generating"}}))
			assert.ErrorIs(t, s.AddMessage("missing", &model.Message{ID: "m3"}), ErrSessionNotFound)

			msgs, err := s.GetMessages("a")
			require.NoError(t, err)
			require.Len(t, msgs, 2)
			assert.Equal(t, "m1", msgs[0].ID)
			assert.Equal(t, "a", msgs[0].SessionID)
			assert.Equal(t, "generating", msgs[1].Metadata["state"])

			got, err := s.GetSession("a")
			require.NoError(t, err)
			assert.Equal(t, base.Add(2*time.Second), got.LastActivity.UTC())

			_, err = s.GetMessages("missing")
			assert.ErrorIs(t, err, ErrSessionNotFound)
		})
	}
}

func TestDiskStorage_SurvivesRestartAndEviction(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	s := NewDiskStorage(dir, 1)
	require.NoError(t, s.Init())
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.CreateSession(newSession(id, base)))
	}
	require.NoError(t, s.AddMessage("a", &model.Message{ID: "m1", Role: model.RoleUser, Content: "hi", Timestamp: base}))

	// 缓存只有 1 个位置，"a" 需要从文件重新读取
	_, err := s.GetSession("c")
	require.NoError(t, err)
	got, err := s.GetSession("a")
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	require.NoError(t, s.Close())

	reopened := NewDiskStorage(dir, 10)
	require.NoError(t, reopened.Init())
	list, err := reopened.ListSessions()
	require.NoError(t, err)
	assert.Len(t, list, 3)

	msgs, err := reopened.GetMessages("a")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Content)
}

func TestDiskStorage_IndexCarriesSummary(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewDiskStorage(dir, 1)
	require.NoError(t, s.Init())

	sess := newSession("a", base)
	sess.WebsiteType = "ecommerce"
	require.NoError(t, s.CreateSession(sess))
	require.NoError(t, s.AddMessage("a", &model.Message{ID: "m1", Role: model.RoleUser, Content: "hi", Timestamp: base}))
	require.NoError(t, s.AddMessage("a", &model.Message{ID: "m2", Role: model.RoleAssistant, Content: "hello", Timestamp: base}))
	require.NoError(t, s.Close())

	reopened := NewDiskStorage(dir, 1)
	require.NoError(t, reopened.Init())
	list, err := reopened.ListSessions()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].MessageCount)
	assert.Equal(t, "ecommerce", list[0].WebsiteType)
}

func TestDiskStorage_CorruptMessagesAreNotOverwritten(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewDiskStorage(dir, 10)
	require.NoError(t, s.Init())
	require.NoError(t, s.CreateSession(newSession("a", base)))
	require.NoError(t, s.AddMessage("a", &model.Message{ID: "m1", Role: model.RoleUser, Content: "hi", Timestamp: base}))
	require.NoError(t, s.Close())

	path := filepath.Join(dir, "messages", "a.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": "m1", "content": "hi"`), 0644))

	reopened := NewDiskStorage(dir, 10)
	require.NoError(t, reopened.Init())
	_, err := reopened.GetSession("a")
	assert.ErrorIs(t, err, ErrInvalidData)
	_, err = reopened.GetMessages("a")
	assert.ErrorIs(t, err, ErrInvalidData)
	err = reopened.AddMessage("a", &model.Message{ID: "m2", Role: model.RoleUser, Content: "again", Timestamp: base})
	assert.ErrorIs(t, err, ErrInvalidData)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[{"id": "m1", "content": "hi"`, string(data), "corrupt history is left for recovery")
}

func TestDiskStorage_CorruptIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sessions.json"), []byte("{not json"), 0644))

	err := NewDiskStorage(dir, 10).Init()
	assert.ErrorIs(t, err, ErrStorageInit)
}

func TestDiskStorage_Backup(t *testing.T) {
	dir := t.TempDir()
	s := NewDiskStorage(dir, 10)
	require.NoError(t, s.Init())
	require.NoError(t, s.CreateSession(newSession("a", time.Now())))
	require.NoError(t, s.Backup())

	matches, err := filepath.Glob(filepath.Join(dir, "backup", "backup_*", "sessions", "a.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
