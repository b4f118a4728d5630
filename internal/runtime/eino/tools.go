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

package eino

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	regtool "booking-agent/internal/tool"
	"booking-agent/internal/tool/registry"
)

var inferStringTool = func(name, desc string, fn func(context.Context, string) (string, error)) (tool.InvokableTool, error) {
	return utils.InferTool(name, desc, fn)
}

type unavailableTool struct {
	info      *schema.ToolInfo
	createErr error
}

func (u *unavailableTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return u.info, nil
}

func (u *unavailableTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	return "", fmt.Errorf("tool %q unavailable: %w", u.info.Name, u.createErr)
}

func makeUnavailableTool(name, desc string, err error) tool.InvokableTool {
	slog.Error("创建工具failed，降级为不可用占位工具", "tool", name, "error", err)
	return &unavailableTool{
		info: &schema.ToolInfo{
			Name: name,
			Desc: desc,
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"input": {
					Type:     schema.String,
					Desc:     "tool input",
					Required: false,
				},
			}),
		},
		createErr: err,
	}
}

func inferToolOrUnavailable(name, desc string, fn func(context.Context, string) (string, error)) tool.InvokableTool {
	t, err := inferStringTool(name, desc, fn)
	if err != nil {
		return makeUnavailableTool(name, desc, err)
	}
	return t
}

// ToolsFromRegistry 将 Registry 中的订票工具桥接为 eino 工具。
// 入参为 JSON 文本；观察文本原样返回给模型，动作级失败不作为 error
func ToolsFromRegistry(reg *registry.Registry) []tool.BaseTool {
	list := reg.List()
	out := make([]tool.BaseTool, 0, len(list))
	for _, t := range list {
		out = append(out, bridgeTool(t))
	}
	return out
}

func bridgeTool(t regtool.Tool) tool.BaseTool {
	return inferToolOrUnavailable(t.Name(), t.Description(), func(ctx context.Context, input string) (string, error) {
		args := map[string]any{}
		if input != "" {
			if err := json.Unmarshal([]byte(input), &args); err != nil {
				return "", fmt.Errorf("解析工具入参 JSON 失败: %w", err)
			}
		}
		res, err := t.Execute(ctx, args)
		if err != nil {
			return "", err
		}
		if res.Content != "" {
			return res.Content, nil
		}
		return res.Err, nil
	})
}
