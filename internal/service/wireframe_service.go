package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/config"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/conversation"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/model"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/modifier"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/provider"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/rag"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/repair"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/storage"
	"github.com/sri11223/Advanced-ui-workflow-sub001/pkg/logger"
)

var (
	ErrSessionNotFound = storage.ErrSessionNotFound
	ErrEmptyPrompt     = errors.New("prompt is required")
	ErrEmptyWireframe  = errors.New("wireframe is required")
)

// 进度阶段
const (
	PhaseClassify  = "classifying"
	PhaseGround    = "grounding"
	PhaseGenerate  = "generating"
	PhaseRepair    = "repairing"
	PhaseModify    = "modifying"
	PhaseFallback  = "fallback"
	PhaseCompleted = "completed"
)

// ProgressFunc 接收生成过程中的阶段通知，可以为 nil
type ProgressFunc func(model.ProgressEvent)

// Broadcaster 线框图生成后通知插件客户端
type Broadcaster interface {
	BroadcastWireframe(wf model.WireframeSpec)
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

type WireframeService struct {
	store    storage.Storage
	invoker  provider.Invoker
	grounder *rag.Grounder
	modifier *modifier.Modifier
	pipeline compose.Runnable[*generation, *generation]
	push     Broadcaster
	config   config.SessionConfig
	now      func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sessionLock

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewWireframeService grounder 和 push 可以为 nil
func NewWireframeService(store storage.Storage, invoker provider.Invoker, grounder *rag.Grounder,
	mod *modifier.Modifier, push Broadcaster, cfg config.SessionConfig) *WireframeService {
	if mod == nil {
		mod = modifier.New(invoker)
		if grounder != nil {
			mod.WithGrounder(grounder)
		}
	}
	s := &WireframeService{
		store:    store,
		invoker:  invoker,
		grounder: grounder,
		modifier: mod,
		push:     push,
		config:   cfg,
		now:      time.Now,
		locks:    make(map[string]*sessionLock),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	pipeline, err := s.composePipeline(context.Background())
	if err != nil {
		// 图结构固定，编译失败只可能是代码错误
		panic(fmt.Sprintf("compose generation pipeline: %v", err))
	}
	s.pipeline = pipeline
	return s
}

// lockSession 同一会话的请求串行执行，返回解锁函数
func (s *WireframeService) lockSession(id string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}
}

func (s *WireframeService) emit(progress ProgressFunc, phase, message string) {
	if progress == nil {
		return
	}
	progress(model.ProgressEvent{Phase: phase, Message: message, Timestamp: s.now()})
}

// turn 一次请求的执行结果
type turn struct {
	wireframe      model.WireframeSpec
	message        string
	questions      []string
	suggestions    []string
	isModification bool
	fallback       bool
	path           string
}

// Generate 处理一轮对话：识别意图、状态转移、执行副作用、持久化并推送结果。
// 本次请求新建的会话在失败时删除。
func (s *WireframeService) Generate(ctx context.Context, req model.GenerateRequest, progress ProgressFunc) (_ *model.GenerateResponse, err error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	sessionID := req.SessionID
	if sessionID == "" {
		created, cerr := s.createSession(prompt)
		if cerr != nil {
			return nil, cerr
		}
		sessionID = created.ID
		defer func() {
			if err != nil {
				s.discardSession(sessionID, err)
			}
		}()
	}

	unlock := s.lockSession(sessionID)
	defer unlock()

	sess, err := s.store.GetSession(sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	log := logger.WithFields(logrus.Fields{"session_id": sessionID})

	current := sess.CurrentWireframe
	if len(req.ExistingWireframe) > 0 {
		wf := repair.ValidateWireframe(req.ExistingWireframe, sess.Title)
		current = &wf
	}

	s.emit(progress, PhaseClassify, "Understanding the request")
	event := conversation.Classify(prompt, sess.State, current != nil)
	decision := conversation.Transition(sess.State, event)
	log.Infof("Session %s: %s -> %s (event %s)", sessionID, sess.State, decision.Next, event.Kind)
	if decision.Interim == model.StateModifying {
		s.emit(progress, PhaseModify, "Applying your change")
	}

	t, err := s.execute(ctx, sess, prompt, current, decision, progress)
	if err != nil {
		return nil, err
	}

	sess.State = decision.Next
	sess.CurrentWireframe = &t.wireframe
	sess.LastActivity = s.now()
	if err := s.store.UpdateSession(sess); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	if err := s.appendTurn(sessionID, prompt, sess, t); err != nil {
		return nil, err
	}

	if s.push != nil {
		s.push.BroadcastWireframe(t.wireframe)
	}
	s.emit(progress, PhaseCompleted, t.message)

	return &model.GenerateResponse{
		Success:        true,
		Wireframe:      model.WireframeEnvelope{JSON: t.wireframe},
		Message:        t.message,
		SessionID:      sessionID,
		IsModification: t.isModification,
		Suggestions:    t.suggestions,
		Questions:      t.questions,
		SessionState:   sess.State,
		Fallback:       t.fallback,
	}, nil
}

// execute 按顺序执行状态转移给出的副作用，只修改内存中的 sess
func (s *WireframeService) execute(ctx context.Context, sess *model.Session, prompt string,
	current *model.WireframeSpec, d conversation.Decision, progress ProgressFunc) (turn, error) {
	var t turn
	if current != nil {
		t.wireframe = current.Clone()
	}
	category := conversation.DetectCategory(prompt)

	for _, effect := range d.Effects {
		switch effect {
		case conversation.EffectClearQuestions:
			sess.PendingQuestions = nil

		case conversation.EffectGenerate:
			wf, fallback, err := s.generate(ctx, prompt, progress)
			if err != nil {
				return t, err
			}
			t.wireframe, t.fallback = wf, fallback
			t.suggestions = conversation.SuggestionsFor(category)
			sess.WebsiteType = string(category)
			sess.Title = wf.Title
			t.message = fmt.Sprintf("Here is a wireframe for %s.", wf.Title)

		case conversation.EffectAttachQuestions:
			t.questions = conversation.QuestionsFor(category)
			sess.PendingQuestions = t.questions
			t.message = fmt.Sprintf("I've drafted a first version of %s. A few questions so I can tailor it:\n%s",
				t.wireframe.Title, numbered(t.questions))

		case conversation.EffectApplyPreferences:
			prefs := conversation.ExtractPreferences(prompt)
			if sess.Answers == nil {
				sess.Answers = make(map[string]string)
			}
			for _, q := range sess.PendingQuestions {
				sess.Answers[q] = prompt
			}
			sess.PendingQuestions = nil
			wf, recolored := conversation.ApplyPreferences(t.wireframe, prefs)
			t.wireframe = wf
			t.message = preferencesMessage(prefs, recolored)

		case conversation.EffectModify:
			res, err := s.modify(ctx, prompt, t.wireframe)
			if err != nil {
				return t, err
			}
			t.wireframe = res.Wireframe
			t.isModification = true
			t.path = string(res.Path)
			t.message = modifyMessage(res.Path)
		}
	}

	if t.fallback {
		t.message += " The AI providers are unavailable right now, so this layout comes from a built-in template."
	}
	return t, nil
}

func (s *WireframeService) createSession(prompt string) (*model.Session, error) {
	now := s.now()
	sess := &model.Session{
		ID:           uuid.New().String(),
		Title:        conversation.TitleFor(prompt),
		Messages:     make([]model.Message, 0),
		State:        model.StateInitial,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := s.store.CreateSession(sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	logger.Infof("Created session %s", sess.ID)
	return sess, nil
}

func (s *WireframeService) discardSession(sessionID string, cause error) {
	if err := s.store.DeleteSession(sessionID); err != nil {
		logger.Warnf("Failed to discard session %s after %v: %v", sessionID, cause, err)
		return
	}
	logger.Infof("Discarded session %s: %v", sessionID, cause)
}

// appendTurn 追加用户消息和助手消息，助手消息带结构化元数据
func (s *WireframeService) appendTurn(sessionID, prompt string, sess *model.Session, t turn) error {
	now := s.now()
	user := &model.Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      model.RoleUser,
		Content:   prompt,
		Timestamp: now,
	}
	if err := s.store.AddMessage(sessionID, user); err != nil {
		return fmt.Errorf("failed to add message: %w", err)
	}

	meta := map[string]any{
		"state":           string(sess.State),
		"is_modification": t.isModification,
		"fallback":        t.fallback,
		"title":           t.wireframe.Title,
		"component_count": len(t.wireframe.Components),
	}
	if sess.WebsiteType != "" {
		meta["category"] = sess.WebsiteType
	}
	if len(t.questions) > 0 {
		meta["questions"] = t.questions
	}
	if len(t.suggestions) > 0 {
		meta["suggestions"] = t.suggestions
	}
	if t.path != "" {
		meta["path"] = t.path
	}
	assistant := &model.Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      model.RoleAssistant,
		Content:   t.message,
		Timestamp: now,
		Metadata:  meta,
	}
	if err := s.store.AddMessage(sessionID, assistant); err != nil {
		return fmt.Errorf("failed to add message: %w", err)
	}
	return nil
}

// Modify 无状态修改，不读写会话
func (s *WireframeService) Modify(ctx context.Context, req model.ModifyRequest) (*model.ModifyResponse, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if len(req.Wireframe) == 0 {
		return nil, ErrEmptyWireframe
	}
	wf := repair.ValidateWireframe(req.Wireframe, "")
	res, err := s.modify(ctx, prompt, wf)
	if err != nil {
		return nil, err
	}
	if s.push != nil {
		s.push.BroadcastWireframe(res.Wireframe)
	}
	return &model.ModifyResponse{JSON: res.Wireframe, Path: string(res.Path)}, nil
}

// modify 在生成预算内调用修改器，超时由修改器退回规则路径
func (s *WireframeService) modify(ctx context.Context, prompt string, wf model.WireframeSpec) (modifier.Result, error) {
	modCtx, cancel := s.withBudget(ctx)
	defer cancel()
	res, err := s.modifier.Apply(modCtx, prompt, wf)
	if err != nil && canceled(ctx) {
		return modifier.Result{}, ctx.Err()
	}
	return res, err
}

func numbered(items []string) string {
	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, it)
	}
	return strings.TrimRight(b.String(), "\n")
}

func preferencesMessage(p conversation.Preferences, recolored bool) string {
	var parts []string
	if recolored {
		parts = append(parts, fmt.Sprintf("recolored the buttons %s", p.ColorName))
	}
	if p.Objective != "" {
		parts = append(parts, fmt.Sprintf("noted the goal \"%s\"", p.Objective))
	}
	if len(parts) == 0 {
		return "Thanks for the details. The wireframe is ready for further edits."
	}
	return "Thanks! I " + strings.Join(parts, " and ") + "."
}

func modifyMessage(path modifier.Path) string {
	switch path {
	case modifier.PathAI:
		return "Updated the wireframe."
	case modifier.PathRules:
		return "Updated the wireframe with the built-in layout rules."
	default:
		return "I couldn't find a change to make from that instruction, so the wireframe is unchanged."
	}
}
