package service

import (
	"context"
	"log"
	"time"

	"github.com/asadsehto/CareToShare/internal/pkg"
	"github.com/asadsehto/CareToShare/internal/repository/mysql"
)

const (
	relayInterval  = 2 * time.Second
	relayBatchSize = 100
)

// OutboxRelayer 轮询 membership_outbox，把成员变更事件投到 kafka。
// 事件和业务写入同一事务落库，投递侧至少一次。
type OutboxRelayer struct {
	outbox   *mysql.OutboxRepository
	producer *pkg.KafkaProducer
}

func NewOutboxRelayer(producer *pkg.KafkaProducer) *OutboxRelayer {
	return &OutboxRelayer{
		outbox:   mysql.NewOutboxRepository(),
		producer: producer,
	}
}

// Run 阻塞轮询，ctx 取消后退出
func (r *OutboxRelayer) Run(ctx context.Context) {
	ticker := time.NewTicker(relayInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.relayOnce(ctx)
		}
	}
}

func (r *OutboxRelayer) relayOnce(ctx context.Context) {
	events, err := r.outbox.List(ctx, relayBatchSize)
	if err != nil {
		log.Printf("outbox relayer: list: %v", err)
		return
	}

	for _, ev := range events {
		key := pkg.MakeKeyFromID(ev.ClassID)
		if err := r.producer.Send(ctx, key, []byte(ev.Payload)); err != nil {
			log.Printf("outbox relayer: send event %d: %v", ev.ID, err)
			if err := r.outbox.MarkFailed(ctx, ev.ID); err != nil {
				log.Printf("outbox relayer: mark failed %d: %v", ev.ID, err)
			}
			continue
		}
		if err := r.outbox.MarkSent(ctx, ev.ID); err != nil {
			log.Printf("outbox relayer: mark sent %d: %v", ev.ID, err)
		}
	}
}
