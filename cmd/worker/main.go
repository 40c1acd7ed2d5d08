package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/jobs"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/utils"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	// 请求中的选项只会覆盖部分参数，配置本身必须合法
	if err := utils.BuildParameters(cfg, domain.GenerationOptions{}).Validate(); err != nil {
		logger.Error("遗传算法配置无效", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:    cfg.Redis.Password,
		DB:          0,
		DialTimeout: time.Duration(cfg.Redis.ConnectTimeout) * time.Second,
	})
	defer rdb.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Redis.ConnectTimeout)*time.Second)
	defer pingCancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Error("无法连接到 redis", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	if err := jobs.DeclareQueues(ch); err != nil {
		logger.Error("无法声明队列", slog.String("error", err.Error()))
		return
	}

	// 排班是 CPU 密集型任务，每个 worker 一次只处理一个任务
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error("无法设置预取数量", slog.String("error", err.Error()))
		return
	}

	msgs, err := ch.Consume(
		jobs.ScheduleQueue, // 队列
		"",                 // 消费者标识，由 RabbitMQ 自动分配
		false,              // 手动确认
		false,              // 是否独占队列
		false,              // 是否禁止消费者接受自己发送的消息
		false,              // 是否不等待
		nil,                // 额外参数
	)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		return
	}

	runner := jobs.NewRunner(cfg, jobs.NewStore(cfg, rdb), ch)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Error("消息通道已关闭")
					return
				}

				if err := runner.Process(ctx, msg.Body); err != nil {
					logger.Error("排班任务处理失败，稍后重新入队", slog.String("error", err.Error()))
					_ = jobs.Requeue(ctx, msg, time.Duration(cfg.Job.RequeueDelay)*time.Second)
					continue
				}

				_ = msg.Ack(false)
			}
		}
	}()

	logger.Info("等待排班任务...（按 CTRL+C 退出）")
	<-sigChan

	// 正在运行的任务会提前结束，由于结果无法保存，消息会重新入队
	slog.Info("正在关闭 schedule worker...")
	cancel()
	wg.Wait()
	slog.Info("schedule worker 已成功关闭")
}
