package mysql

import (
	"context"

	"github.com/asadsehto/CareToShare/internal/model"

	"gorm.io/gorm"
)

type CommentRepository struct {
	DB *gorm.DB
}

func NewCommentRepository() *CommentRepository {
	return &CommentRepository{DB: DB}
}

// Create 写评论并在同一事务里从评论表重算父文件的 comment_count
func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return recountComments(tx, c.FileID)
	})
}

// Delete 删评论并重算计数；两个删除并发时计数仍收敛到账本真实值
func (r *CommentRepository) Delete(ctx context.Context, commentID uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c model.Comment
		if err := tx.First(&c, commentID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&c).Error; err != nil {
			return err
		}
		return recountComments(tx, c.FileID)
	})
}

func (r *CommentRepository) FindByID(ctx context.Context, id uint64) (*model.Comment, error) {
	var c model.Comment
	err := r.DB.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *CommentRepository) ListByFile(ctx context.Context, fileID uint64, offset, limit int) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.DB.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

func (r *CommentRepository) CountByFile(ctx context.Context, fileID uint64) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Comment{}).
		Where("file_id = ?", fileID).
		Count(&count).Error
	return count, err
}

func recountComments(tx *gorm.DB, fileID uint64) error {
	return tx.Model(&model.File{}).
		Where("id = ?", fileID).
		UpdateColumn("comment_count", gorm.Expr("(SELECT COUNT(*) FROM comments WHERE file_id = ?)", fileID)).
		Error
}
