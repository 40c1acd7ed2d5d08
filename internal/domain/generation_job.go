package domain

import "time"

type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusFailed  JobStatus = "failed"
)

// GenerationOptions 允许单次请求覆盖默认的遗传算法参数
type GenerationOptions struct {
	Seed           int64 `json:"seed"`
	PopulationSize int   `json:"populationSize"`
	MaxGenerations int   `json:"maxGenerations"`
}

type GenerationJob struct {
	ID          string            `json:"id"`
	Status      JobStatus         `json:"status"`
	Request     ScheduleRequest   `json:"request"`
	Options     GenerationOptions `json:"options"`
	NotifyEmail string            `json:"notifyEmail,omitempty"`
	Result      *LeagueSchedule   `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}
