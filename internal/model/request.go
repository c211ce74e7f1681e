package model

// 调用方传来的线框图保持原始结构，可能嵌套或缺字段，由服务层校验后再使用
type GenerateRequest struct {
	Prompt            string         `json:"prompt" binding:"required"`
	SessionID         string         `json:"session_id"`
	ExistingWireframe map[string]any `json:"existing_wireframe,omitempty"`
}

type ModifyRequest struct {
	Prompt    string         `json:"prompt" binding:"required"`
	Wireframe map[string]any `json:"wireframe" binding:"required"`
}
