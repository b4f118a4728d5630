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

package booking

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind 动作结果类别
type Kind string

const (
	// KindSuccess 动作成功，Pairs 携带结构化结果
	KindSuccess Kind = "success"
	// KindRejected 被守护规则拒绝（如预算超限），不产生扣款
	KindRejected Kind = "rejected"
	// KindFailed 模拟的外部失败（如座位不可用），不产生扣款
	KindFailed Kind = "failed"
	// KindInvalid 输入校验失败，同步检出，不重试
	KindInvalid Kind = "invalid_input"
)

// KV 结构化结果中的一个有序键值对
type KV struct {
	Key string
	Val any
}

// Dict 有序键值对序列；渲染观察文本时保持插入顺序
type Dict []KV

// Outcome 单次动作（搜索/订票/日历）的结果；创建后不可变
type Outcome struct {
	Kind   Kind
	Reason string // 非 success 时的说明文本
	Pairs  Dict   // success 时的结构化载荷
}

// Success 构造成功结果
func Success(pairs ...KV) Outcome {
	return Outcome{Kind: KindSuccess, Pairs: pairs}
}

// Rejected 构造守护拒绝结果
func Rejected(format string, args ...any) Outcome {
	return Outcome{Kind: KindRejected, Reason: fmt.Sprintf(format, args...)}
}

// Failed 构造模拟失败结果
func Failed(format string, args ...any) Outcome {
	return Outcome{Kind: KindFailed, Reason: fmt.Sprintf(format, args...)}
}

// Invalid 构造输入校验失败结果
func Invalid(format string, args ...any) Outcome {
	return Outcome{Kind: KindInvalid, Reason: fmt.Sprintf(format, args...)}
}

// IsSuccess 是否成功
func (o Outcome) IsSuccess() bool { return o.Kind == KindSuccess }

// Get 按 key 查找 success 载荷中的值
func (o Outcome) Get(key string) (any, bool) {
	for _, kv := range o.Pairs {
		if kv.Key == key {
			return kv.Val, true
		}
	}
	return nil, false
}

// GetString 按 key 查找字符串值，不存在或类型不符返回空串
func (o Outcome) GetString(key string) string {
	v, ok := o.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Observation 渲染为观察文本，供推理轨迹与 LLM 消费。
// success 载荷渲染为单引号字典形式（下游正则按该形式提取字段），
// 其余类别直接返回 Reason。
func (o Outcome) Observation() string {
	if o.Kind != KindSuccess {
		return o.Reason
	}
	return renderDict(o.Pairs)
}

func renderDict(pairs Dict) string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, kv := range pairs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('\'')
		sb.WriteString(kv.Key)
		sb.WriteString("': ")
		sb.WriteString(renderValue(kv.Val))
	}
	sb.WriteByte('}')
	return sb.String()
}

func renderValue(v any) string {
	switch x := v.(type) {
	case string:
		return "'" + x + "'"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		// 整数值不带小数位，与载荷中的票价渲染保持一致
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case Dict:
		return renderDict(x)
	case []Dict:
		parts := make([]string, 0, len(x))
		for _, d := range x {
			parts = append(parts, renderDict(d))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		// 仅作兜底；有序载荷应使用 Dict
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make(Dict, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, KV{Key: k, Val: x[k]})
		}
		return renderDict(pairs)
	default:
		return fmt.Sprintf("%v", v)
	}
}
