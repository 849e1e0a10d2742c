package mysql

import (
	"context"

	"github.com/asadsehto/CareToShare/internal/model"

	"gorm.io/gorm"
)

type OutboxRepository struct {
	DB *gorm.DB
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{DB: DB}
}

// List 取一批待投递事件
func (r *OutboxRepository) List(ctx context.Context, batchSize int) ([]model.MembershipOutbox, error) {
	var list []model.MembershipOutbox
	if err := r.DB.WithContext(ctx).
		Where("status = 0").
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// MarkFailed 投递失败，记一次重试
func (r *OutboxRepository) MarkFailed(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.MembershipOutbox{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": 2, "retry": gorm.Expr("retry + 1")}).Error
}

// MarkSent 投递成功
func (r *OutboxRepository) MarkSent(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.MembershipOutbox{}).
		Where("id = ?", id).
		Update("status", 1).Error
}
