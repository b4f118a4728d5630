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
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
)

// DateLayout 行程日期格式（DD-MM-YYYY）
const DateLayout = "02-01-2006"

// maxOffers 对外暴露的最便宜航班数量上限
const maxOffers = 3

// carrier 模拟航司运价表中的一条记录
type carrier struct {
	airline    string
	basePrice  int
	prefix     string
	duration   time.Duration
	durationTx string
}

var carriers = []carrier{
	{airline: "Air India", basePrice: 4500, prefix: "AI", duration: 2*time.Hour + 30*time.Minute, durationTx: "2h 30m"},
	{airline: "IndiGo", basePrice: 4200, prefix: "6E", duration: 2*time.Hour + 25*time.Minute, durationTx: "2h 25m"},
	{airline: "SpiceJet", basePrice: 3800, prefix: "SG", duration: 2*time.Hour + 35*time.Minute, durationTx: "2h 35m"},
	{airline: "Vistara", basePrice: 5200, prefix: "UK", duration: 2*time.Hour + 20*time.Minute, durationTx: "2h 20m"},
	{airline: "Go First", basePrice: 3600, prefix: "G8", duration: 2*time.Hour + 40*time.Minute, durationTx: "2h 40m"},
}

var cityNames = map[string]string{
	"mumbai":    "Mumbai (BOM)",
	"delhi":     "Delhi (DEL)",
	"bangalore": "Bangalore (BLR)",
	"chennai":   "Chennai (MAA)",
	"kolkata":   "Kolkata (CCU)",
	"hyderabad": "Hyderabad (HYD)",
}

// Offer 一条候选航班
type Offer struct {
	FlightNumber  string
	Airline       string
	Departure     string
	Destination   string
	DepartureTime string
	ArrivalTime   string
	Price         int
	Duration      string
	Date          string
}

func (o Offer) dict() Dict {
	return Dict{
		{Key: "flight_number", Val: o.FlightNumber},
		{Key: "airline", Val: o.Airline},
		{Key: "departure", Val: o.Departure},
		{Key: "destination", Val: o.Destination},
		{Key: "departure_time", Val: o.DepartureTime},
		{Key: "arrival_time", Val: o.ArrivalTime},
		{Key: "price", Val: o.Price},
		{Key: "duration", Val: o.Duration},
		{Key: "date", Val: o.Date},
	}
}

// Inventory 模拟航班库存；除随机扰动外无内部状态，每次 Search
// 都是输入加随机源的纯函数（重复调用价格会不同）
type Inventory struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewInventory 创建库存；rng 为 nil 时使用时间种子
func NewInventory(rng *rand.Rand) *Inventory {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Inventory{rng: rng}
}

// Search 按航线/日期/预算搜索航班。日期不合法返回 invalid_input；
// 预算内无航班返回的是区分出的"无结果"，不是错误。
// 结果按价格升序，最多返回最便宜的 3 条。
func (inv *Inventory) Search(departure, destination string, maxPrice float64, date string) (Outcome, []Offer) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return Invalid("Error: Invalid date format. Please use DD-MM-YYYY format. Details: %v", err), nil
	}

	depDisplay := displayCity(departure)
	destDisplay := displayCity(destination)

	inv.mu.Lock()
	var offers []Offer
	for _, c := range carriers {
		price := c.basePrice + inv.rng.Intn(1001) - 500
		if float64(price) > maxPrice {
			continue
		}
		num := fmt.Sprintf("%s%d", c.prefix, 100+inv.rng.Intn(900))
		depHour := 6 + inv.rng.Intn(15)
		depMinute := []int{0, 15, 30, 45}[inv.rng.Intn(4)]
		depClock := time.Date(0, 1, 1, depHour, depMinute, 0, 0, time.UTC)
		offers = append(offers, Offer{
			FlightNumber:  num,
			Airline:       c.airline,
			Departure:     depDisplay,
			Destination:   destDisplay,
			DepartureTime: depClock.Format("15:04"),
			ArrivalTime:   depClock.Add(c.duration).Format("15:04"),
			Price:         price,
			Duration:      c.durationTx,
			Date:          date,
		})
	}
	inv.mu.Unlock()

	if len(offers) == 0 {
		return Failed("No flights found from %s to %s within budget of ₹%.0f", depDisplay, destDisplay, maxPrice), nil
	}

	sort.SliceStable(offers, func(i, j int) bool { return offers[i].Price < offers[j].Price })

	top := offers
	if len(top) > maxOffers {
		top = top[:maxOffers]
	}
	dicts := make([]Dict, 0, len(top))
	for _, o := range top {
		dicts = append(dicts, o.dict())
	}

	out := Success(
		KV{Key: "status", Val: "success"},
		KV{Key: "flights_found", Val: len(offers)},
		KV{Key: "flights", Val: dicts},
		KV{Key: "message", Val: fmt.Sprintf("Found %d flights from %s to %s on %s", len(offers), depDisplay, destDisplay, date)},
	)
	return out, top
}

func displayCity(name string) string {
	if display, ok := cityNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return display
	}
	return name
}
