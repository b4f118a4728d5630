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

package http

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"booking-agent/internal/agent"
	"booking-agent/internal/agent/planner"
	"booking-agent/pkg/errors"
)

// DefaultResultTTL 运行结果在内存中的默认保留时长
const DefaultResultTTL = time.Hour

// RunRecord 一次订票运行的留存记录，供 GET /api/bookings/:id 查询
type RunRecord struct {
	ID        string           `json:"id"`
	SessionID string           `json:"session_id"`
	Goal      planner.Goal     `json:"goal"`
	Run       *agent.RunResult `json:"run"`
	CreatedAt time.Time        `json:"created_at"`
}

// ResultStore 进程内运行结果存储，带 TTL 过期。
// 写入时顺带清理过期条目，读取时对已过期条目视为不存在。
type ResultStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	records map[string]*RunRecord
}

// NewResultStore 创建结果存储，ttl<=0 使用默认值
func NewResultStore(ttl time.Duration) *ResultStore {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &ResultStore{
		ttl:     ttl,
		records: make(map[string]*RunRecord),
	}
}

// Put 保存一条运行记录并返回其 ID
func (s *ResultStore) Put(rec *RunRecord) string {
	if rec.ID == "" {
		rec.ID = "run-" + uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.records[rec.ID] = rec
	return rec.ID
}

// Get 按 ID 查询运行记录，不存在或已过期返回 ErrNotFound
func (s *ResultStore) Get(id string) (*RunRecord, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if !ok || time.Since(rec.CreatedAt) > s.ttl {
		return nil, errors.Wrapf(errors.ErrNotFound, "booking run %s", id)
	}
	return rec, nil
}

// Len 当前未过期的记录数
func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rec := range s.records {
		if time.Since(rec.CreatedAt) <= s.ttl {
			n++
		}
	}
	return n
}

func (s *ResultStore) sweepLocked() {
	for id, rec := range s.records {
		if time.Since(rec.CreatedAt) > s.ttl {
			delete(s.records, id)
		}
	}
}
