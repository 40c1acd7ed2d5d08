package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/jobs"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository *repository.Repository
	translator ut.Translator
	mqChannel  jobs.Publisher
	jobStore   jobs.JobStore
	admin      *domain.Admin

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mqCh jobs.Publisher, store jobs.JobStore) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	// 管理员账户来自配置，启动时计算一次密码哈希
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialAdmin.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		translator: trans,
		mqChannel:  mqCh,
		jobStore:   store,
		admin: &domain.Admin{
			Username:     cfg.InitialAdmin.Username,
			PasswordHash: string(hashedPassword),
			Role:         domain.RoleAdmin,
		},

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 排班服务不需要登录
	h.Mux.Route("/schedules", func(r chi.Router) {
		r.Post("/generate", h.GenerateSchedule)
		r.Post("/check", h.CheckSchedule)
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", h.CreateScheduleJob)
			r.Get("/{id}", h.GetScheduleJob)
		})
	})

	// 以下 API 用于维护联赛名单，只有管理员可以调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(h.RequiredRole([]domain.Role{domain.RoleAdmin}))

		r.Route("/teams", func(r chi.Router) {
			r.Post("/", h.CreateTeam)
			r.Get("/", h.GetAllTeams)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.team)
				r.Get("/", h.GetTeam)
				r.Patch("/", h.UpdateTeam)
				r.Delete("/", h.DeleteTeam)
			})
		})

		r.Route("/venues", func(r chi.Router) {
			r.Post("/", h.CreateVenue)
			r.Get("/", h.GetAllVenues)
			r.Delete("/{id}", h.DeleteVenue)
		})

		r.Route("/referees", func(r chi.Router) {
			r.Post("/", h.CreateReferee)
			r.Get("/", h.GetAllReferees)
			r.Delete("/{id}", h.DeleteReferee)
		})

		r.Post("/roster/schedules", h.GenerateRosterSchedule)
	})
}
