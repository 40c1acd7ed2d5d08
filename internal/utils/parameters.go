package utils

import (
	"time"

	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/scheduler"
)

// BuildParameters 以配置为默认值构建遗传算法参数，请求中的非零选项会覆盖默认值
func BuildParameters(cfg *config.Config, opts domain.GenerationOptions) *scheduler.Parameters {
	p := &scheduler.Parameters{
		PopulationSize: cfg.Scheduler.PopulationSize,
		MaxGenerations: cfg.Scheduler.MaxGenerations,
		CrossoverRate:  cfg.Scheduler.CrossoverRate,
		MutationRate:   cfg.Scheduler.MutationRate,
		SwapRate:       cfg.Scheduler.SwapRate,
		VenueRate:      cfg.Scheduler.VenueRate,
		TournamentSize: cfg.Scheduler.TournamentSize,
		EliteCount:     cfg.Scheduler.EliteCount,
		Seed:           opts.Seed,
		Timeout:        time.Duration(cfg.Scheduler.Timeout) * time.Second,
		Workers:        cfg.Scheduler.Workers,
	}

	if opts.PopulationSize > 0 {
		p.PopulationSize = opts.PopulationSize
	}
	if opts.MaxGenerations > 0 {
		p.MaxGenerations = opts.MaxGenerations
	}

	return p
}
