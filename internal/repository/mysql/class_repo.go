package mysql

import (
	"context"

	"github.com/asadsehto/CareToShare/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClassRepository struct {
	DB *gorm.DB
}

func NewClassRepository() *ClassRepository {
	return &ClassRepository{DB: DB}
}

// Create 建班并在同一事务里写入 creator 的成员行
func (r *ClassRepository) Create(ctx context.Context, c *model.Class) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		member := &model.ClassMember{
			ClassID: c.ID,
			UserID:  c.CreatorID,
			Role:    model.RoleCreator,
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "class_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(member).Error
	})
}

func (r *ClassRepository) FindByID(ctx context.Context, id uint64) (*model.Class, error) {
	var c model.Class
	err := r.DB.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *ClassRepository) FindByCode(ctx context.Context, code string) (*model.Class, error) {
	var c model.Class
	err := r.DB.WithContext(ctx).Where("class_code = ?", code).First(&c).Error
	return &c, err
}

func (r *ClassRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Class{}).
		Where("class_code = ?", code).
		Count(&count).Error
	return count > 0, err
}

// Discover 发现页：公开+私有都列出（私有要密码才能进），支持搜索
func (r *ClassRepository) Discover(ctx context.Context, search string, offset, limit int) ([]model.Class, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Class{})
	if search != "" {
		pattern := "%" + search + "%"
		q = q.Where("name LIKE ? OR description LIKE ? OR class_code LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var classes []model.Class
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&classes).Error
	return classes, total, err
}

// ListByUser 用户创建或加入的班级，按更新时间倒序
func (r *ClassRepository) ListByUser(ctx context.Context, userID uint64) ([]model.Class, error) {
	var classes []model.Class
	err := r.DB.WithContext(ctx).
		Joins("JOIN class_members cm ON cm.class_id = classes.id AND cm.user_id = ?", userID).
		Order("classes.updated_at DESC").
		Find(&classes).Error
	return classes, err
}

func (r *ClassRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Class{}).Count(&n).Error
	return n, err
}

func (r *ClassRepository) Save(ctx context.Context, c *model.Class) error {
	return r.DB.WithContext(ctx).Save(c).Error
}

// DeleteCascade 删班级联：班内文件转公开并解绑，成员/申请/outbox 一并清理。
// 整个级联在一个事务里，失败即整体回滚。
func (r *ClassRepository) DeleteCascade(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.File{}).
			Where("class_id = ?", id).
			Updates(map[string]any{"visibility": model.VisibilityPublic, "class_id": nil, "class_code": ""}).Error; err != nil {
			return err
		}
		if err := tx.Where("class_id = ?", id).Delete(&model.ClassMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("class_id = ?", id).Delete(&model.ClassJoinRequest{}).Error; err != nil {
			return err
		}
		if err := tx.Where("class_id = ?", id).Delete(&model.MembershipOutbox{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Class{}, id).Error
	})
}
