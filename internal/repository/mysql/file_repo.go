package mysql

import (
	"context"

	"github.com/asadsehto/CareToShare/internal/model"

	"gorm.io/gorm"
)

type FileRepository struct {
	DB *gorm.DB
}

func NewFileRepository() *FileRepository {
	return &FileRepository{DB: DB}
}

func (r *FileRepository) Create(ctx context.Context, f *model.File) error {
	return r.DB.WithContext(ctx).Create(f).Error
}

func (r *FileRepository) FindByID(ctx context.Context, id uint64) (*model.File, error) {
	var f model.File
	err := r.DB.WithContext(ctx).First(&f, id).Error
	return &f, err
}

// Recent 首页最新列表，只出公开文件
func (r *FileRepository) Recent(ctx context.Context, limit int) ([]model.File, error) {
	var files []model.File
	err := r.DB.WithContext(ctx).
		Where("visibility = ?", model.VisibilityPublic).
		Order("created_at DESC").
		Limit(limit).
		Find(&files).Error
	return files, err
}

// Popular 按下载量排序，只出公开文件
func (r *FileRepository) Popular(ctx context.Context, limit int) ([]model.File, error) {
	var files []model.File
	err := r.DB.WithContext(ctx).
		Where("visibility = ?", model.VisibilityPublic).
		Order("downloads DESC").
		Limit(limit).
		Find(&files).Error
	return files, err
}

// ByCategory 分类浏览；私有/班级文件不进公共列表
func (r *FileRepository) ByCategory(ctx context.Context, category, sort string) ([]model.File, error) {
	q := r.DB.WithContext(ctx).Where("visibility = ?", model.VisibilityPublic)
	if category != "" && category != "all" {
		q = q.Where("category = ?", category)
	}

	switch sort {
	case "oldest":
		q = q.Order("created_at ASC")
	case "downloads":
		q = q.Order("downloads DESC")
	case "name":
		q = q.Order("title ASC")
	default: // newest
		q = q.Order("created_at DESC")
	}

	var files []model.File
	err := q.Find(&files).Error
	return files, err
}

func (r *FileRepository) ByUploader(ctx context.Context, userID uint64) ([]model.File, error) {
	var files []model.File
	err := r.DB.WithContext(ctx).
		Where("uploaded_by_id = ?", userID).
		Order("created_at DESC").
		Find(&files).Error
	return files, err
}

// PublicByUploader 别人看某个用户的主页时只给公开文件
func (r *FileRepository) PublicByUploader(ctx context.Context, userID uint64) ([]model.File, error) {
	var files []model.File
	err := r.DB.WithContext(ctx).
		Where("uploaded_by_id = ? AND visibility = ?", userID, model.VisibilityPublic).
		Order("created_at DESC").
		Find(&files).Error
	return files, err
}

func (r *FileRepository) ByClass(ctx context.Context, classID uint64, limit int) ([]model.File, error) {
	q := r.DB.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var files []model.File
	err := q.Find(&files).Error
	return files, err
}

func (r *FileRepository) Save(ctx context.Context, f *model.File) error {
	return r.DB.WithContext(ctx).Save(f).Error
}

func (r *FileRepository) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", id).Delete(&model.FileLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("file_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.File{}, id).Error
	})
}

func (r *FileRepository) IncrementViews(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.File{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

// IncrementDownloads 计数并返回新值
func (r *FileRepository) IncrementDownloads(ctx context.Context, id uint64) (int64, error) {
	err := r.DB.WithContext(ctx).Model(&model.File{}).
		Where("id = ?", id).
		UpdateColumn("downloads", gorm.Expr("downloads + 1")).Error
	if err != nil {
		return 0, err
	}
	var f model.File
	if err := r.DB.WithContext(ctx).Select("id", "downloads").First(&f, id).Error; err != nil {
		return 0, err
	}
	return f.Downloads, nil
}

// Search 标题/描述/文件名子串匹配，只出公开文件
func (r *FileRepository) Search(ctx context.Context, q string, limit int) ([]model.File, error) {
	var files []model.File
	pattern := "%" + q + "%"
	err := r.DB.WithContext(ctx).
		Where("visibility = ?", model.VisibilityPublic).
		Where("title LIKE ? OR description LIKE ? OR file_name LIKE ?", pattern, pattern, pattern).
		Order("created_at DESC").
		Limit(limit).
		Find(&files).Error
	return files, err
}

func (r *FileRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.File{}).Count(&n).Error
	return n, err
}

func (r *FileRepository) SumDownloads(ctx context.Context) (int64, error) {
	var sum int64
	err := r.DB.WithContext(ctx).Model(&model.File{}).
		Select("COALESCE(SUM(downloads), 0)").
		Scan(&sum).Error
	return sum, err
}

// UploaderStats 某个用户的文件数和总下载量（搜索结果富化用）
func (r *FileRepository) UploaderStats(ctx context.Context, userID uint64) (count int64, downloads int64, err error) {
	if err = r.DB.WithContext(ctx).Model(&model.File{}).
		Where("uploaded_by_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, 0, err
	}
	err = r.DB.WithContext(ctx).Model(&model.File{}).
		Where("uploaded_by_id = ?", userID).
		Select("COALESCE(SUM(downloads), 0)").
		Scan(&downloads).Error
	return count, downloads, err
}
