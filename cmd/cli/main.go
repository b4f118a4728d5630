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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cloudwego/eino/schema"

	"booking-agent/internal/agent/planner"
	"booking-agent/internal/app"
	"booking-agent/internal/app/api"
	"booking-agent/internal/runtime/eino"
	"booking-agent/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}
	cmd := os.Args[1]
	args := os.Args[2:]
	switch cmd {
	case "version":
		fmt.Println("booking-agent cli 0.1.0")
	case "config":
		runConfig()
	case "book":
		runBook(args)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: booking-agent <command> [args]")
	fmt.Println("  version  - 显示版本")
	fmt.Println("  config   - 显示配置概要")
	fmt.Println("  book     - 一次性执行订票编排")
	fmt.Println("             -passenger <name> -from <city> -to <city> -max-price <n> -date <DD-MM-YYYY>")
	fmt.Println("             [-engine] 使用 eino 引擎（需配置模型）")
}

func runConfig() {
	cfg, err := config.LoadAPIConfigWithModel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("api.port: %d\n", cfg.API.Port)
	fmt.Printf("agent.planner: %s\n", cfg.Agent.Planner)
	fmt.Printf("booking.budget_limit: %.0f\n", cfg.Booking.BudgetLimit)
	fmt.Printf("booking.fail_rate: %.2f\n", cfg.Booking.FailRate)
	fmt.Printf("calendar.fail_rate: %.2f\n", cfg.Calendar.FailRate)
	fmt.Printf("model.defaults.llm: %s\n", cfg.Model.Defaults.LLM)
}

func runBook(args []string) {
	fs := flag.NewFlagSet("book", flag.ExitOnError)
	passenger := fs.String("passenger", "", "乘客姓名")
	from := fs.String("from", "", "出发城市")
	to := fs.String("to", "", "到达城市")
	maxPrice := fs.Float64("max-price", 0, "价格上限（₹）")
	date := fs.String("date", "", "出行日期 DD-MM-YYYY")
	useEngine := fs.Bool("engine", false, "使用 eino 引擎执行")
	_ = fs.Parse(args)

	if *passenger == "" || *from == "" || *to == "" || *maxPrice <= 0 || *date == "" {
		fmt.Fprintln(os.Stderr, "Usage: booking-agent book -passenger <name> -from <city> -to <city> -max-price <n> -date <DD-MM-YYYY>")
		os.Exit(1)
	}

	cfg, err := config.LoadAPIConfigWithModel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	bootstrap, err := app.NewBootstrap(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化失败: %v\n", err)
		os.Exit(1)
	}
	application, err := api.NewApp(bootstrap)
	if err != nil {
		fmt.Fprintf(os.Stderr, "创建应用失败: %v\n", err)
		os.Exit(1)
	}

	goal := planner.Goal{
		PassengerName: *passenger,
		Departure:     *from,
		Destination:   *to,
		MaxPrice:      *maxPrice,
		BookingDate:   *date,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if *useEngine {
		runEngineBook(ctx, application, goal)
		return
	}

	run, err := application.RunBooking(ctx, goal)
	if err != nil {
		fmt.Fprintf(os.Stderr, "订票执行失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("推理轨迹:")
	for i, step := range run.Steps {
		fmt.Printf("  %d. %s\n", i+1, step.Action)
		fmt.Printf("     %s\n", step.Observation)
	}
	fmt.Printf("状态: %s (%s)\n", run.Result.Status, run.State)
	if run.Result.BookingID != "" {
		fmt.Printf("订单: %s  航班: %s  PNR: %s  价格: ₹%.0f\n",
			run.Result.BookingID, run.Result.FlightNumber, run.Result.PNR, run.Result.Price)
	}
	if run.Result.CalendarEventID != "" {
		fmt.Printf("日历事件: %s\n", run.Result.CalendarEventID)
	}
	fmt.Println(run.Answer)
}

// runEngineBook 通过 eino 引擎执行：adk Runner 驱动 LLM 调用订票工具，流式打印事件
func runEngineBook(ctx context.Context, application *api.App, goal planner.Goal) {
	engine := application.Engine()
	if engine == nil {
		fmt.Fprintln(os.Stderr, "eino 引擎不可用：请在 configs/model.yaml 配置默认模型")
		os.Exit(1)
	}
	events, err := engine.Execute(ctx, eino.BookingAgentID, goal.Describe())
	if err != nil {
		fmt.Fprintf(os.Stderr, "引擎执行失败: %v\n", err)
		os.Exit(1)
	}
	for event := range events {
		if event.Err != nil {
			fmt.Printf("错误: %v\n", event.Err)
			continue
		}
		if event.Output == nil || event.Output.MessageOutput == nil {
			continue
		}
		mv := event.Output.MessageOutput
		msg := mv.Message
		if msg == nil {
			continue
		}
		switch mv.Role {
		case schema.Assistant:
			if msg.Content != "" {
				fmt.Printf("消息: %s\n", msg.Content)
			}
			for _, tc := range msg.ToolCalls {
				if tc.Function.Name != "" {
					fmt.Printf("工具调用: %s\n", tc.Function.Name)
				}
			}
		case schema.Tool:
			if mv.ToolName != "" {
				fmt.Printf("工具响应 [%s]: %s\n", mv.ToolName, msg.Content)
			} else {
				fmt.Printf("工具响应: %s\n", msg.Content)
			}
		default:
			if msg.Content != "" {
				fmt.Printf("消息: %s\n", msg.Content)
			}
		}
	}
}
