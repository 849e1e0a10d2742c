package mysql

import (
	"context"
	"errors"

	"github.com/asadsehto/CareToShare/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FileLikeRepository struct {
	DB *gorm.DB
}

func NewFileLikeRepository() *FileLikeRepository {
	return &FileLikeRepository{DB: DB}
}

// Toggle 点赞开关：有记录就删、没有就插，like_count 从点赞表重算回填，
// 不做盲目 ±1，避免并发切换时计数漂移。
func (r *FileLikeRepository) Toggle(ctx context.Context, userID, fileID uint64) (liked bool, count int64, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var fl model.FileLike
		ferr := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND file_id = ?", userID, fileID).
			First(&fl).Error
		switch {
		case ferr == nil:
			if err := tx.Delete(&fl).Error; err != nil {
				return err
			}
			liked = false
		case errors.Is(ferr, gorm.ErrRecordNotFound):
			if err := tx.Create(&model.FileLike{UserID: userID, FileID: fileID}).Error; err != nil {
				return err
			}
			liked = true
		default:
			return ferr
		}

		// 从点赞表重算缓存计数
		if err := tx.Model(&model.File{}).
			Where("id = ?", fileID).
			UpdateColumn("like_count", gorm.Expr("(SELECT COUNT(*) FROM file_likes WHERE file_id = ?)", fileID)).
			Error; err != nil {
			return err
		}
		return tx.Model(&model.FileLike{}).
			Where("file_id = ?", fileID).
			Count(&count).Error
	})
	return liked, count, err
}

func (r *FileLikeRepository) IsLiked(ctx context.Context, userID, fileID uint64) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.FileLike{}).
		Where("user_id = ? AND file_id = ?", userID, fileID).
		Count(&count).Error
	return count > 0, err
}

// LikeCount 以点赞表为准
func (r *FileLikeRepository) LikeCount(ctx context.Context, fileID uint64) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.FileLike{}).
		Where("file_id = ?", fileID).
		Count(&count).Error
	return count, err
}
