package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/domain"
)

func (h *Handler) CreateVenue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name" validate:"required,max=64"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	venue := &domain.Venue{Name: req.Name}
	if err := h.repository.CreateVenue(venue); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "venues_name_key":
			h.errorResponse(w, r, "场地已存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建场地成功", venue)
}

func (h *Handler) GetAllVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := h.repository.GetAllVenues()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有场地成功", venues)
}

func (h *Handler) DeleteVenue(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.errorResponse(w, r, "场地ID无效")
		return
	}

	if err := h.repository.DeleteVenue(id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "场地不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除场地成功", nil)
}
