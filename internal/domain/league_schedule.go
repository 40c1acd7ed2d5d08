package domain

import "time"

// ScheduleRequest 是排班核心的输入
type ScheduleRequest struct {
	Teams         []string           `json:"teams"`
	Venues        []string           `json:"venues"`
	TimeSlots     []time.Time        `json:"timeSlots"` // 长度即轮次数
	Referees      []string           `json:"referees"`
	TeamStrengths map[string]float64 `json:"teamStrengths"`
}

type Fixture struct {
	Home  string `json:"home"`
	Away  string `json:"away"`
	Venue string `json:"venue"`
}

type GenerationStats struct {
	Generation int     `json:"generation"`
	Min        float64 `json:"min"`
	Avg        float64 `json:"avg"`
}

// LeagueSchedule 是排班核心的输出
type LeagueSchedule struct {
	Schedule        [][]Fixture       `json:"schedule"` // 每一轮的比赛列表
	TimeSlots       []time.Time       `json:"timeSlots"`
	Fitness         float64           `json:"fitness"`
	Feasible        bool              `json:"feasible"`
	Partial         bool              `json:"partial"` // 因超时提前结束时为 true
	Seed            int64             `json:"seed"`
	Generations     int               `json:"generations"` // 实际完成的迭代次数
	GenerationStats []GenerationStats `json:"generationStats"`
}

type Violation struct {
	Round   int    `json:"round"`
	Kind    string `json:"kind"`
	Subject string `json:"subject"`
}

type ScheduleCheckResult struct {
	Feasible   bool        `json:"feasible"`
	Fitness    float64     `json:"fitness"`
	Violations []Violation `json:"violations"`
}
