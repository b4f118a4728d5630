// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session 一次订票编排运行的状态载体；Steps 即推理轨迹，
// 由单个运行独占、只追加，运行开始时清空
type Session struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	Messages     []*Message      // 对话历史
	WorkingState map[string]any  // 当前推理中间态
	Steps        []ReasoningStep // 推理轨迹（动作、输入、观察）

	Metadata map[string]any

	mu sync.RWMutex
}

// New 创建新 Session（ID 为空时自动分配）
func New(id string) *Session {
	now := time.Now()
	if id == "" {
		id = "session-" + uuid.New().String()
	}
	return &Session{
		ID:           id,
		CreatedAt:    now,
		UpdatedAt:    now,
		WorkingState: make(map[string]any),
		Metadata:     make(map[string]any),
	}
}

// AddMessage 追加一条对话消息
func (s *Session) AddMessage(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdatedAt = time.Now()
	s.Messages = append(s.Messages, &Message{Role: role, Content: content, Timestamp: s.UpdatedAt})
}

// AddStep 追加一条推理步骤（观察文本由调用方截断）
func (s *Session) AddStep(step ReasoningStep) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdatedAt = time.Now()
	step.At = s.UpdatedAt
	s.Steps = append(s.Steps, step)
}

// ClearSteps 清空推理轨迹；每次运行开始时调用
func (s *Session) ClearSteps() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Steps = nil
}

// StepCount 当前步数
func (s *Session) StepCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Steps)
}

// WorkingStateGet 读取 WorkingState 键
func (s *Session) WorkingStateGet(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.WorkingState[key]
	return v, ok
}

// WorkingStateSet 写入 WorkingState
func (s *Session) WorkingStateSet(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdatedAt = time.Now()
	if s.WorkingState == nil {
		s.WorkingState = make(map[string]any)
	}
	s.WorkingState[key] = value
}

// CopyMessages 返回 Messages 的副本（供 Planner 等只读使用）
func (s *Session) CopyMessages() []*Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Messages) == 0 {
		return nil
	}
	out := make([]*Message, len(s.Messages))
	for i, m := range s.Messages {
		out[i] = &Message{Role: m.Role, Content: m.Content, Timestamp: m.Timestamp}
	}
	return out
}

// CopySteps 返回推理轨迹的副本（Extractor 只读扫描用）
func (s *Session) CopySteps() []ReasoningStep {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Steps) == 0 {
		return nil
	}
	out := make([]ReasoningStep, len(s.Steps))
	copy(out, s.Steps)
	return out
}
