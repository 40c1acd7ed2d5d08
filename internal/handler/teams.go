package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/utils"
)

// teamConstraintError 将唯一约束冲突转换为提示信息，其他错误返回 false
func teamConstraintError(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}

	switch pgErr.ConstraintName {
	case "teams_name_key":
		return "队名已存在", true
	case "teams_code_key":
		return "简称已存在", true
	default:
		return "", false
	}
}

func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string   `json:"name" validate:"required,max=64"`
		Code     string   `json:"code" validate:"omitempty,alphanum,max=16"`
		Strength *float64 `json:"strength" validate:"required,min=0,max=100"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 未指定简称时由队名的拼音生成
	if req.Code == "" {
		req.Code = utils.GenerateTeamCode(req.Name)
		if req.Code == "" {
			h.errorResponse(w, r, "无法由队名生成简称，请手动指定")
			return
		}
	}

	team := &domain.Team{
		Name:     req.Name,
		Code:     req.Code,
		Strength: *req.Strength,
	}

	if err := h.repository.CreateTeam(team); err != nil {
		if msg, ok := teamConstraintError(err); ok {
			h.errorResponse(w, r, msg)
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建球队成功", team)
}

func (h *Handler) GetAllTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.repository.GetAllTeams()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有球队成功", teams)
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	team := r.Context().Value(TeamCtx).(*domain.Team)
	h.successResponse(w, r, "获取球队成功", team)
}

func (h *Handler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     *string  `json:"name" validate:"omitempty,min=1,max=64"`
		Code     *string  `json:"code" validate:"omitempty,alphanum,max=16"`
		Strength *float64 `json:"strength" validate:"omitempty,min=0,max=100"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	team := r.Context().Value(TeamCtx).(*domain.Team)

	if req.Name != nil {
		team.Name = *req.Name
	}
	if req.Code != nil {
		team.Code = *req.Code
	}
	if req.Strength != nil {
		team.Strength = *req.Strength
	}

	if err := h.repository.UpdateTeam(team); err != nil {
		if msg, ok := teamConstraintError(err); ok {
			h.errorResponse(w, r, msg)
			return
		}
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新球队失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新球队成功", team)
}

func (h *Handler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	team := r.Context().Value(TeamCtx).(*domain.Team)

	if err := h.repository.DeleteTeam(team.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "球队不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除球队成功", nil)
}
