package domain

import "time"

type Team struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`     // 由队名拼音生成的简称，可手动指定
	Strength  float64   `json:"strength"` // 球队实力评分，用于衡量对阵是否均衡
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}

type Venue struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}

// Referee 目前只作为输入被接收，排班核心不会为比赛分配裁判
type Referee struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}
