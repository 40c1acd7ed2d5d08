package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/utils"
)

type JobStore interface {
	Save(ctx context.Context, job *domain.GenerationJob) error
	Get(ctx context.Context, id string) (*domain.GenerationJob, error)
}

// Runner 处理 schedule_queue 中的单个排班任务
type Runner struct {
	cfg       *config.Config
	store     JobStore
	publisher Publisher
}

func NewRunner(cfg *config.Config, store JobStore, publisher Publisher) *Runner {
	return &Runner{
		cfg:       cfg,
		store:     store,
		publisher: publisher,
	}
}

// Process 运行一个排班任务并保存结果
// 返回的 error 只表示基础设施故障（redis / rabbitmq），此时消息应当重新入队；
// 输入不合法等任务本身的失败会被记录为 failed 状态，不返回 error
func (r *Runner) Process(ctx context.Context, body []byte) error {
	job := &domain.GenerationJob{}
	if err := json.Unmarshal(body, job); err != nil {
		// 无法解析的消息重试也没有意义，直接丢弃
		slog.Error("排班任务反序列化失败", "error", err)
		return nil
	}

	opCtx, cancel := r.operationContext(ctx)
	defer cancel()

	job.Status = domain.JobStatusRunning
	if err := r.store.Save(opCtx, job); err != nil {
		return err
	}

	start := time.Now()
	s, err := scheduler.New(utils.BuildParameters(r.cfg, job.Options), &job.Request)
	if err != nil {
		job.Status = domain.JobStatusFailed
		job.Error = err.Error()
		slog.Warn("排班任务失败", "id", job.ID, "error", err)
	} else {
		job.Result = s.Schedule(ctx)
		job.Status = domain.JobStatusDone
		metrics.ObserveSchedule("job", job.Result, time.Since(start))
	}

	opCtx, cancel = r.operationContext(ctx)
	defer cancel()

	if err := r.store.Save(opCtx, job); err != nil {
		return err
	}

	if job.NotifyEmail != "" {
		if err := r.notify(ctx, job); err != nil {
			// 结果已经保存，通知失败只记录日志
			slog.Error("无法发送排班完成通知", "id", job.ID, "error", err)
		}
	}

	slog.Info("排班任务已处理", "id", job.ID, "status", job.Status)
	return nil
}

func (r *Runner) notify(ctx context.Context, job *domain.GenerationJob) error {
	data := domain.ScheduleReadyMailData{
		JobID:  job.ID,
		Status: string(job.Status),
	}
	if job.Result != nil {
		data.Rounds = len(job.Result.Schedule)
		data.Fitness = job.Result.Fitness
		data.Feasible = job.Result.Feasible
		data.Partial = job.Result.Partial
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return Publish(ctx, r.publisher, EmailQueue, domain.MailMessage{
		Type: "schedule_ready",
		To:   job.NotifyEmail,
		Data: data,
	})
}

func (r *Runner) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Redis.OperationExpiration)*time.Second)
}
