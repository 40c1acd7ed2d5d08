package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/jobs"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/utils"
)

// generationOptions 是各个排班接口共用的可选参数
type generationOptions struct {
	Seed           int64 `json:"seed"`
	PopulationSize int   `json:"populationSize" validate:"omitempty,min=2,max=10000"`
	MaxGenerations int   `json:"maxGenerations" validate:"omitempty,min=1,max=10000"`
}

func (o generationOptions) toDomain() domain.GenerationOptions {
	return domain.GenerationOptions{
		Seed:           o.Seed,
		PopulationSize: o.PopulationSize,
		MaxGenerations: o.MaxGenerations,
	}
}

type generateRequest struct {
	Teams         []string           `json:"teams" validate:"required,min=2,dive,required"`
	Venues        []string           `json:"venues" validate:"required,min=1,dive,required"`
	TimeSlots     []string           `json:"timeSlots" validate:"required,min=1,dive,datetime=2006-01-02T15:04"`
	Referees      []string           `json:"referees" validate:"dive,required"`
	TeamStrengths map[string]float64 `json:"teamStrengths" validate:"required"`
	generationOptions
}

func (req *generateRequest) toScheduleRequest() (*domain.ScheduleRequest, error) {
	timeSlots, err := utils.ParseTimeSlots(req.TimeSlots)
	if err != nil {
		return nil, err
	}

	return &domain.ScheduleRequest{
		Teams:         req.Teams,
		Venues:        req.Venues,
		TimeSlots:     timeSlots,
		Referees:      req.Referees,
		TeamStrengths: req.TeamStrengths,
	}, nil
}

// effectiveParameters 合并配置与请求中的选项并校验
// 配置本身在启动时已经校验过，这里的失败只可能由请求中的选项引起，因此按无效输入处理
func (h *Handler) effectiveParameters(opts domain.GenerationOptions) (*scheduler.Parameters, error) {
	p := utils.BuildParameters(h.config, opts)
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", scheduler.ErrInvalidInput, err)
	}
	return p, nil
}

// runSchedule 同步运行排班并写回响应，source 用于区分指标
func (h *Handler) runSchedule(w http.ResponseWriter, r *http.Request, req *domain.ScheduleRequest, opts domain.GenerationOptions, source string) {
	parameters, err := h.effectiveParameters(opts)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	s, err := scheduler.New(parameters, req)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrInvalidInput):
			h.badRequest(w, r, err)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	start := time.Now()
	res := s.Schedule(r.Context())
	metrics.ObserveSchedule(source, res, time.Since(start))

	switch {
	case res.Partial:
		h.successResponse(w, r, "排班超时，已返回当前最优结果", res)
	case !res.Feasible:
		h.successResponse(w, r, "未能找到可行的赛程", res)
	default:
		h.successResponse(w, r, "排班成功", res)
	}
}

func (h *Handler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	var req generateRequest

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	scheduleReq, err := req.toScheduleRequest()
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	h.runSchedule(w, r, scheduleReq, req.toDomain(), "sync")
}

func (h *Handler) CheckSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Schedule      [][]domain.Fixture `json:"schedule" validate:"required,min=1"`
		TeamStrengths map[string]float64 `json:"teamStrengths" validate:"required"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := utils.ValidateFixturesWithStrengths(req.Schedule, req.TeamStrengths); err != nil {
		h.badRequest(w, r, err)
		return
	}

	h.successResponse(w, r, "检查完成", scheduler.CheckSchedule(req.Schedule, req.TeamStrengths))
}

func (h *Handler) CreateScheduleJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		generateRequest
		NotifyEmail string `json:"notifyEmail" validate:"omitempty,email"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	scheduleReq, err := req.toScheduleRequest()
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	// 提前校验，避免不合法的任务进入队列
	if err := scheduler.ValidateRequest(scheduleReq); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if _, err := h.effectiveParameters(req.toDomain()); err != nil {
		h.badRequest(w, r, err)
		return
	}

	job := jobs.NewJob(*scheduleReq, req.toDomain(), req.NotifyEmail)

	// 先保存任务再投递，保证 worker 取到任务时可以更新状态
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	if err := h.jobStore.Save(ctx, job); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ctx, cancel = context.WithTimeout(r.Context(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := jobs.Publish(ctx, h.mqChannel, jobs.ScheduleQueue, job); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "排班任务已提交", job)
}

func (h *Handler) GetScheduleJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		h.errorResponse(w, r, "任务ID无效")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	job, err := h.jobStore.Get(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, jobs.ErrJobNotFound):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取排班任务成功", job)
}

func (h *Handler) GenerateRosterSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TimeSlots []string `json:"timeSlots" validate:"required,min=1,dive,datetime=2006-01-02T15:04"`
		generationOptions
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	timeSlots, err := utils.ParseTimeSlots(req.TimeSlots)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	teams, venues, referees, err := h.repository.GetRoster()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.runSchedule(w, r, utils.BuildRosterRequest(teams, venues, referees, timeSlots), req.toDomain(), "roster")
}
