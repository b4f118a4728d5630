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

package middleware

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"golang.org/x/time/rate"
)

// Middleware 中间件管理器
type Middleware struct {
	allowOrigins []string
	limiter      *rate.Limiter
}

// NewMiddleware 创建新的中间件管理器，默认允许所有来源、不限流
func NewMiddleware() *Middleware {
	return &Middleware{}
}

// SetCORS 设置允许的跨域来源；空列表等价于允许所有来源
func (m *Middleware) SetCORS(origins []string) {
	m.allowOrigins = origins
}

// SetRateLimit 启用令牌桶限流；qps<=0 表示不限流
func (m *Middleware) SetRateLimit(qps float64, burst int) {
	if qps <= 0 {
		m.limiter = nil
		return
	}
	if burst <= 0 {
		burst = 1
	}
	m.limiter = rate.NewLimiter(rate.Limit(qps), burst)
}

// CORS CORS 中间件
func (m *Middleware) CORS() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		ctx.Header("Access-Control-Allow-Origin", m.originFor(string(ctx.GetHeader("Origin"))))
		ctx.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		ctx.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
		ctx.Header("Access-Control-Expose-Headers", "Content-Length")
		ctx.Header("Access-Control-Max-Age", "86400")

		if string(ctx.Method()) == "OPTIONS" {
			ctx.AbortWithStatus(consts.StatusNoContent)
			return
		}

		ctx.Next(c)
	}
}

func (m *Middleware) originFor(requestOrigin string) string {
	if len(m.allowOrigins) == 0 {
		return "*"
	}
	for _, o := range m.allowOrigins {
		if o == "*" {
			return "*"
		}
		if o == requestOrigin {
			return o
		}
	}
	return m.allowOrigins[0]
}

// RateLimit 速率限制中间件；未启用限流时直接放行
func (m *Middleware) RateLimit() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		if m.limiter != nil && !m.limiter.Allow() {
			ctx.JSON(consts.StatusTooManyRequests, map[string]string{
				"error": "请求过于频繁，请稍后再试",
			})
			ctx.Abort()
			return
		}
		ctx.Next(c)
	}
}
