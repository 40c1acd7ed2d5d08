package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/domain"
)

func (h *Handler) CreateReferee(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name" validate:"required,max=32"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	referee := &domain.Referee{Name: req.Name}
	if err := h.repository.CreateReferee(referee); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "referees_name_key":
			h.errorResponse(w, r, "裁判已存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建裁判成功", referee)
}

func (h *Handler) GetAllReferees(w http.ResponseWriter, r *http.Request) {
	referees, err := h.repository.GetAllReferees()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有裁判成功", referees)
}

func (h *Handler) DeleteReferee(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.errorResponse(w, r, "裁判ID无效")
		return
	}

	if err := h.repository.DeleteReferee(id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "裁判不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除裁判成功", nil)
}
