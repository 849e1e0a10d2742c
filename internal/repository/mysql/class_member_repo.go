package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/asadsehto/CareToShare/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClassMemberRepository struct {
	DB *gorm.DB
}

func NewClassMemberRepository() *ClassMemberRepository {
	return &ClassMemberRepository{DB: DB}
}

// RoleOf 查成员角色。身份一律用 (class_id, user_id) 键比较，不比对象
func (r *ClassMemberRepository) RoleOf(ctx context.Context, classID, userID uint64) (int, bool, error) {
	var m model.ClassMember
	err := r.DB.WithContext(ctx).
		Where("class_id = ? AND user_id = ?", classID, userID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return m.Role, true, nil
}

// Join 幂等插入成员行；真正插入时在同一事务写 outbox 事件。
// 唯一索引 uk_class_user 保证并发加入不会产生重复行。
func (r *ClassMemberRepository) Join(ctx context.Context, classID, userID uint64, role int) (bool, error) {
	var joined bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "class_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&model.ClassMember{ClassID: classID, UserID: userID, Role: role})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		joined = true
		return insertMembershipOutbox(tx, "join", classID, userID)
	})
	return joined, err
}

// Remove 删除成员行（连同 CR 角色一起丢掉），event 区分 leave/remove
func (r *ClassMemberRepository) Remove(ctx context.Context, classID, userID uint64, event string) (bool, error) {
	var removed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("class_id = ? AND user_id = ? AND role <> ?", classID, userID, model.RoleCreator).
			Delete(&model.ClassMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		return insertMembershipOutbox(tx, event, classID, userID)
	})
	return removed, err
}

func (r *ClassMemberRepository) SetRole(ctx context.Context, classID, userID uint64, role int) error {
	return r.DB.WithContext(ctx).Model(&model.ClassMember{}).
		Where("class_id = ? AND user_id = ? AND role <> ?", classID, userID, model.RoleCreator).
		Update("role", role).Error
}

func (r *ClassMemberRepository) Members(ctx context.Context, classID uint64) ([]model.ClassMember, error) {
	var members []model.ClassMember
	err := r.DB.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("role DESC, id ASC").
		Find(&members).Error
	return members, err
}

// AddRequest 幂等追加入班申请
func (r *ClassMemberRepository) AddRequest(ctx context.Context, classID, userID uint64, message string) (bool, error) {
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "class_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&model.ClassJoinRequest{ClassID: classID, UserID: userID, Message: message})
	return res.RowsAffected > 0, res.Error
}

// RemoveRequest 拒绝是幂等的：申请不存在也算成功
func (r *ClassMemberRepository) RemoveRequest(ctx context.Context, classID, userID uint64) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("class_id = ? AND user_id = ?", classID, userID).
		Delete(&model.ClassJoinRequest{})
	return res.RowsAffected > 0, res.Error
}

func (r *ClassMemberRepository) Requests(ctx context.Context, classID uint64) ([]model.ClassJoinRequest, error) {
	var reqs []model.ClassJoinRequest
	err := r.DB.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("created_at ASC").
		Find(&reqs).Error
	return reqs, err
}

// Approve 批准：锁定并删除申请行、插入成员行、记 outbox，单事务完成。
// 两个 CR 并发批准同一申请时，只有先删到行的那个生效。
func (r *ClassMemberRepository) Approve(ctx context.Context, classID, userID uint64) (bool, error) {
	var approved bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req model.ClassJoinRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("class_id = ? AND user_id = ?", classID, userID).
			First(&req).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Delete(&req).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "class_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&model.ClassMember{ClassID: classID, UserID: userID, Role: model.RoleMember}).Error; err != nil {
			return err
		}
		approved = true
		return insertMembershipOutbox(tx, "approve", classID, userID)
	})
	return approved, err
}

func insertMembershipOutbox(tx *gorm.DB, event string, classID, userID uint64) error {
	payload, _ := json.Marshal(map[string]any{
		"event":      event,
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
		"class_id":   classID,
		"user_id":    userID,
	})
	ob := &model.MembershipOutbox{
		EventType: event,
		ClassID:   classID,
		UserID:    userID,
		Payload:   string(payload),
		Status:    0,
	}
	return tx.Create(ob).Error
}
