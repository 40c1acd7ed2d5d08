package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/repository"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/seed"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// insertN 调用 n 次 create，返回成功的次数
func insertN(n int, create func() error) int {
	cnt := 0
	for i := 0; i < n; i++ {
		if err := create(); err != nil {
			slog.Error("插入失败", slog.String("error", err.Error()))
			continue
		}
		cnt++
	}
	return cnt
}

func main() {
	var op int
	var n int
	var file string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机球队, 2: 插入随机场地, 3: 插入随机裁判, 4: 从 CSV 文件导入球队)")
	flag.IntVar(&n, "n", 8, "要插入的记录数量")
	flag.StringVar(&file, "file", "./internal/seed/data/teams.csv", "导入球队所用的 CSV 文件，表头为 name,strength[,code]")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)
	if err := repo.EnsureSchema(); err != nil {
		logger.Error("无法创建数据库表", "error", err)
		return
	}

	if (op == 1 || op == 2 || op == 3) && n <= 0 {
		slog.Error("请输入合法的记录数量")
		return
	}

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		// 随机队名可能重复，重复的会因唯一约束插入失败
		cnt := insertN(n, func() error {
			return repo.CreateTeam(utils.GenerateRandomTeam())
		})
		slog.Info("插入球队成功", slog.Int("count", cnt))
	case 2:
		cnt := insertN(n, func() error {
			return repo.CreateVenue(utils.GenerateRandomVenue())
		})
		slog.Info("插入场地成功", slog.Int("count", cnt))
	case 3:
		cnt := insertN(n, func() error {
			return repo.CreateReferee(utils.GenerateRandomReferee())
		})
		slog.Info("插入裁判成功", slog.Int("count", cnt))
	case 4:
		if _, err := seed.SeedTeamsFromCSV(repo, file); err != nil {
			slog.Error("导入球队失败", slog.String("error", err.Error()))
		}
	default:
		slog.Error("指定的操作非法")
	}
}
