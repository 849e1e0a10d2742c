package mysql

import (
	"context"

	"github.com/asadsehto/CareToShare/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository() *UserRepository {
	return &UserRepository{DB: DB}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("google_id = ?", googleID).First(&user).Error
	return &user, err
}

func (r *UserRepository) UsernameTaken(ctx context.Context, username string, excludeID uint64) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("username = ? AND id <> ?", username, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) Save(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Save(user).Error
}

// Search 按名字/用户名做大小写不敏感的子串匹配
func (r *UserRepository) Search(ctx context.Context, q string, limit int) ([]model.User, error) {
	var users []model.User
	pattern := "%" + q + "%"
	err := r.DB.WithContext(ctx).
		Where("name LIKE ? OR username LIKE ?", pattern, pattern).
		Limit(limit).
		Find(&users).Error
	return users, err
}

// FindBriefs 批量取作者信息，用来拼装响应里的 uploadedBy/creator
func (r *UserRepository) FindBriefs(ctx context.Context, ids []uint64) (map[uint64]model.UserBrief, error) {
	briefs := make(map[uint64]model.UserBrief, len(ids))
	if len(ids) == 0 {
		return briefs, nil
	}
	var users []model.User
	if err := r.DB.WithContext(ctx).
		Select("id", "name", "username", "avatar").
		Where("id IN ?", ids).
		Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		briefs[users[i].ID] = users[i].Brief()
	}
	return briefs, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).Count(&n).Error
	return n, err
}
