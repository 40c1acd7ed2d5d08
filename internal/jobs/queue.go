package jobs

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ScheduleQueue = "schedule_queue"
	EmailQueue    = "email_queue"
)

// Publisher 由 *amqp.Channel 实现
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// DeclareQueues 声明服务用到的所有持久化队列
func DeclareQueues(ch *amqp.Channel) error {
	for _, name := range []string{ScheduleQueue, EmailQueue} {
		if _, err := ch.QueueDeclare(
			name,  // 队列名称
			true,  // 是否持久化
			false, // 是否自动删除
			false, // 是否独占
			false, // 是否不等待
			nil,   // 额外参数
		); err != nil {
			return err
		}
	}
	return nil
}

// Publish 将 v 序列化为 JSON 后发送到指定队列
func Publish(ctx context.Context, p Publisher, queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return p.PublishWithContext(
		ctx,
		"",
		queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Nacker 由 amqp.Delivery 实现
type Nacker interface {
	Nack(multiple, requeue bool) error
}

// Requeue 等待 delay 后再将消息重新入队，redis 或 rabbitmq 故障期间同一个任务不会被反复投递
// ctx 被取消时立即重新入队，交给其他 worker 处理
func Requeue(ctx context.Context, msg Nacker, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}

	return msg.Nack(false, true)
}
