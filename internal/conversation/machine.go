package conversation

import "github.com/sri11223/Advanced-ui-workflow-sub001/internal/model"

// Effect 状态转移要求调用方执行的动作，按顺序执行
type Effect string

const (
	EffectClearQuestions   Effect = "clear_questions"
	EffectGenerate         Effect = "generate"
	EffectAttachQuestions  Effect = "attach_questions"
	EffectApplyPreferences Effect = "apply_preferences"
	EffectModify           Effect = "modify"
)

type Decision struct {
	Next model.SessionState
	// Interim 执行效果期间短暂进入的状态，没有时为空
	Interim model.SessionState
	Effects []Effect
}

func (d Decision) Has(e Effect) bool {
	for _, x := range d.Effects {
		if x == e {
			return true
		}
	}
	return false
}

// Transition 纯函数：不读写存储，也不做 I/O
func Transition(state model.SessionState, ev Event) Decision {
	switch ev.Kind {
	case EventModify:
		next := model.StateGenerating
		if state == model.StateQuestioning {
			// 追问尚未回答，修改后继续等待
			next = model.StateQuestioning
		}
		return Decision{
			Next:    next,
			Interim: model.StateModifying,
			Effects: []Effect{EffectModify},
		}
	case EventAnswer:
		// 不在追问状态下的回答同样按偏好处理
		return Decision{
			Next:    model.StateGenerating,
			Effects: []Effect{EffectApplyPreferences},
		}
	default:
		if ev.MultiSection {
			return Decision{
				Next:    model.StateQuestioning,
				Effects: []Effect{EffectClearQuestions, EffectGenerate, EffectAttachQuestions},
			}
		}
		return Decision{
			Next:    model.StateGenerating,
			Effects: []Effect{EffectClearQuestions, EffectGenerate},
		}
	}
}
