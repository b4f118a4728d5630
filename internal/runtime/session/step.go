package session

import (
	"time"

	"booking-agent/internal/booking"
)

// ReasoningStep 推理轨迹中的一步：动作名、结构化输入、截断后的观察文本。
// Outcome 为内建工具产生的结构化结果（LLM 路径可能为 nil），
// 不参与 JSON 序列化，Extractor 优先消费它
type ReasoningStep struct {
	Action      string           `json:"action"`
	Input       map[string]any   `json:"input,omitempty"`
	Observation string           `json:"observation"`
	Err         string           `json:"error,omitempty"`
	At          time.Time        `json:"at"`
	Outcome     *booking.Outcome `json:"-"`
}

// WorkingState 的键约定（供 Planner 与编排器使用）
const (
	WorkingKeySelectedFlight = "selected_flight"
	WorkingKeyRunState       = "run_state"
)
