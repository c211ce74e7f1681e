package rag

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/provider"
	"github.com/sri11223/Advanced-ui-workflow-sub001/pkg/logger"
)

type Mode int

const (
	// ModeGeneration 固定模板，不调用后端
	ModeGeneration Mode = iota
	// ModeChat 让后端拆出恰好三个问题
	ModeChat
)

func (m Mode) String() string {
	if m == ModeChat {
		return "chat"
	}
	return "generation"
}

const (
	defaultTopic   = "web page"
	chatQuestionsN = 3
)

var generationTemplates = []string{
	"What are the essential UI elements for a %s screen?",
	"How should content be prioritized and laid out on a %s screen?",
	"What form and input design practices apply to a %s?",
	"Where should the primary call-to-action go on a %s?",
	"What accessibility and usability guidelines matter most for a %s?",
}

var chatTemplates = []string{
	"What are the key components of a %s?",
	"What layout patterns work well for a %s?",
	"What usability best practices apply to a %s?",
}

const chatPrompt = `Break the following UI design request into exactly three short, self-contained questions.
Return only the questions, one per line, numbered exactly like this:
1. <question>?
2. <question>?
3. <question>?

Request: %s`

var questionLineRe = regexp.MustCompile(`^\s*[1-3][.)]\s+(\S.*\?)\s*$`)

// Decomposer 把一个主题拆成若干更窄的检索子问题
type Decomposer struct {
	invoker provider.Invoker
}

// NewDecomposer invoker 为 nil 时聊天模式也只用模板
func NewDecomposer(invoker provider.Invoker) *Decomposer {
	return &Decomposer{invoker: invoker}
}

// Expand 从不失败，至少返回一个子问题
func (d *Decomposer) Expand(ctx context.Context, topic string, mode Mode) []string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = defaultTopic
	}
	if mode == ModeGeneration {
		return fill(generationTemplates, topic)
	}

	templated := fill(chatTemplates, topic)
	if d.invoker == nil {
		return templated
	}
	resp, err := d.invoker.Invoke(ctx, fmt.Sprintf(chatPrompt, topic))
	if err != nil {
		logger.Warnf("Query decomposition failed, using templates: %v", err)
		return templated
	}
	questions := ParseQuestions(resp.Content)
	if len(questions) == 0 {
		logger.Debugf("No numbered questions in decomposition output, using templates")
		return templated
	}
	for i := len(questions); i < chatQuestionsN; i++ {
		questions = append(questions, templated[i])
	}
	return questions[:chatQuestionsN]
}

// ParseQuestions 提取形如 "1. ...?" 的行
func ParseQuestions(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if m := questionLineRe.FindStringSubmatch(line); m != nil {
			out = append(out, strings.TrimSpace(m[1]))
		}
	}
	return out
}

func fill(templates []string, topic string) []string {
	out := make([]string, len(templates))
	for i, t := range templates {
		out[i] = fmt.Sprintf(t, topic)
	}
	return out
}
