// Package conversation holds the session state machine: intent classification,
// a pure transition function, and the category knowledge that drives
// clarifying questions, suggestions and fallback layouts.
package conversation

import (
	"regexp"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/model"
)

type EventKind string

const (
	EventNewBuild EventKind = "new_build"
	EventModify   EventKind = "modify"
	EventAnswer   EventKind = "answer"
)

// Event 一次用户请求被识别出的意图
type Event struct {
	Kind EventKind
	// MultiSection 站点级、多区块的构建请求，需要追问
	MultiSection bool
}

var (
	screenNouns    = `(page|screen|site|website|web\s*site|app|application|homepage|home\s*page|dashboard|store|shop|form|portfolio|blog|landing|wireframe|layout|ui|storefront)s?`
	newScreenRe    = regexp.MustCompile(`(?i)\b(create|build|design|generate|draft|start)\b\s+(?:me\s+)?(?:a|an|the|new|another|my|some)\b[^.?!]*?\b` + screenNouns + `\b`)
	// "make the page vertical" 是修改，所以 make/need/want 只接不定冠词
	wantScreenRe   = regexp.MustCompile(`(?i)\b(make|need|want)\b\s+(?:me\s+)?(?:a|an|another|new)\b[^.?!]*?\b` + screenNouns + `\b`)
	newNounRe      = regexp.MustCompile(`(?i)\b(new|another|different|fresh)\s+(page|screen|site|website|app|homepage|dashboard|store|form|portfolio|blog|landing|wireframe|layout|design)\b`)
	editVerbRe     = regexp.MustCompile(`(?i)\b(change|make|move|modify|update|edit|recolou?r|colou?r|resize|align|stack|arrange|rearrange|rename|relabel|set|turn|swap|put|add|remove|delete|increase|decrease|bigger|smaller|larger|wider|narrower|vertical(?:ly)?|horizontal(?:ly)?|side\s+by\s+side|center|centre)\b`)
	// 追问状态下，只有点名布局或具体组件的编辑才算修改
	targetedEditRe = regexp.MustCompile(`(?i)\b(vertical(?:ly)?|horizontal(?:ly)?|stack|align|arrange|rearrange|side\s+by\s+side|center|centre|resize|buttons?|inputs?|fields?|text|headings?|titles?|labels?|components?|elements?)\b`)
	multiRe        = regexp.MustCompile(`(?i)\b(website|web\s*site|site|homepage|home\s*page|store|shop|e-?commerce|storefront|marketplace|landing|portfolio|blog|dashboard|multi[- ]?page|sections?)\b`)
)

// IsNewScreenRequest 是否在要求一个全新的界面
func IsNewScreenRequest(prompt string) bool {
	return newScreenRe.MatchString(prompt) || wantScreenRe.MatchString(prompt) || newNounRe.MatchString(prompt)
}

// IsEditRequest 是否包含编辑类动词
func IsEditRequest(prompt string) bool {
	return editVerbRe.MatchString(prompt)
}

// IsMultiSection 是否是站点级的多区块构建
func IsMultiSection(prompt string) bool {
	return multiRe.MatchString(prompt)
}

// IsTargetedEdit 是否点名了布局方向或具体组件
func IsTargetedEdit(prompt string) bool {
	return IsEditRequest(prompt) && targetedEditRe.MatchString(prompt)
}

// Classify 识别请求意图。新界面请求优先；有线框图时编辑动词视为修改；
// 追问状态下除非点名布局或组件，其余文本视为回答，
// 例如 "Make it green, the goal is more sales" 是回答。
func Classify(prompt string, state model.SessionState, hasWireframe bool) Event {
	if IsNewScreenRequest(prompt) {
		return Event{Kind: EventNewBuild, MultiSection: IsMultiSection(prompt)}
	}
	if hasWireframe && state == model.StateQuestioning && !IsTargetedEdit(prompt) {
		return Event{Kind: EventAnswer}
	}
	if hasWireframe && IsEditRequest(prompt) {
		return Event{Kind: EventModify}
	}
	if hasWireframe && state == model.StateQuestioning {
		return Event{Kind: EventAnswer}
	}
	return Event{Kind: EventNewBuild, MultiSection: IsMultiSection(prompt)}
}
