package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/asadsehto/CareToShare/internal/apperr"
	"github.com/asadsehto/CareToShare/internal/model"
	"github.com/asadsehto/CareToShare/internal/pkg"
	"github.com/asadsehto/CareToShare/internal/repository/mysql"

	"gorm.io/gorm"
)

// MaxUploadSize 上传上限 100MB
const MaxUploadSize = 100 << 20

const (
	RecentLimit  = 12
	PopularLimit = 8

	driveCleanupTimeout = 30 * time.Second
)

type FileService struct {
	files   *mysql.FileRepository
	users   *mysql.UserRepository
	members *mysql.ClassMemberRepository
	classes *mysql.ClassRepository
}

func NewFileService() *FileService {
	return &FileService{
		files:   mysql.NewFileRepository(),
		users:   mysql.NewUserRepository(),
		members: mysql.NewClassMemberRepository(),
		classes: mysql.NewClassRepository(),
	}
}

type UploadInput struct {
	Title       string
	Description string
	FileName    string
	MimeType    string
	Size        int64
	Visibility  string
	ClassID     *uint64
	Content     io.Reader
}

// Upload 用上传者自己的 Drive 存文件：传 Drive、开公开只读、落库元信息
func (s *FileService) Upload(ctx context.Context, userID uint64, in UploadInput) (*model.File, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Invalid("title", "Title is required")
	}
	if in.FileName == "" || in.Content == nil {
		return nil, apperr.Invalid("file", "File is required")
	}
	if in.Size > MaxUploadSize {
		return nil, apperr.Invalid("file", "File exceeds the 100MB limit")
	}

	visibility := in.Visibility
	if visibility == "" {
		visibility = model.VisibilityPublic
	}
	switch visibility {
	case model.VisibilityPublic, model.VisibilityPrivate:
	case model.VisibilityClass:
		if in.ClassID == nil {
			return nil, apperr.Invalid("classId", "Class is required for class files")
		}
	default:
		return nil, apperr.Invalid("visibility", "Visibility must be public, class or private")
	}

	var classCode string
	if visibility == model.VisibilityClass {
		class, err := s.classes.FindByID(ctx, *in.ClassID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("Class")
			}
			return nil, err
		}
		_, isMember, err := s.members.RoleOf(ctx, class.ID, userID)
		if err != nil {
			return nil, err
		}
		if !isMember {
			return nil, apperr.Forbidden("Only members can upload to this class")
		}
		classCode = class.ClassCode
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.GoogleAccessToken == "" {
		return nil, apperr.Unauthorized("Google authorization expired, please sign in again")
	}

	mimeType := in.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	driveFile, err := pkg.UploadToDrive(ctx, user.GoogleAccessToken, in.FileName, mimeType, in.Content)
	if err != nil {
		var apiErr *pkg.GoogleAPIError
		if errors.As(err, &apiErr) && apiErr.NeedsReauth() {
			return nil, apperr.Unauthorized("Google authorization expired, please sign in again")
		}
		return nil, apperr.Upstream("Failed to upload file to Google Drive", err)
	}

	size := driveFile.Size
	if size == 0 {
		size = in.Size
	}
	file := &model.File{
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		FileName:      in.FileName,
		FileSize:      size,
		MimeType:      mimeType,
		Category:      model.CategoryFromFilename(in.FileName),
		Visibility:    visibility,
		ClassID:       in.ClassID,
		ClassCode:     classCode,
		GoogleDriveID: driveFile.ID,
		DownloadURL:   driveFile.DownloadURL,
		WebViewLink:   driveFile.WebViewLink,
		ThumbnailURL:  driveFile.ThumbnailURL,
		UploadedByID:  userID,
	}
	if err := s.files.Create(ctx, file); err != nil {
		// 落库失败时回收 Drive 上的孤儿文件
		_ = pkg.DeleteFromDrive(context.Background(), user.GoogleAccessToken, driveFile.ID)
		return nil, err
	}

	brief := user.Brief()
	file.UploadedBy = &brief
	return file, nil
}

// SharePhotoInput 从 Google Photos 转存到 Drive
type SharePhotoInput struct {
	Title       string
	Description string
	Filename    string
	MimeType    string
	BaseURL     string
	Visibility  string
	ClassID     *uint64
}

// SharePhoto 先从 Photos baseUrl 拉原图，再走普通上传链路
func (s *FileService) SharePhoto(ctx context.Context, userID uint64, in SharePhotoInput) (*model.File, error) {
	if in.BaseURL == "" {
		return nil, apperr.Invalid("baseUrl", "Photo baseUrl is required")
	}
	if in.Filename == "" {
		return nil, apperr.Invalid("filename", "Filename is required")
	}

	data, err := pkg.FetchBytes(ctx, in.BaseURL+"=d")
	if err != nil {
		return nil, apperr.Upstream("Failed to fetch photo from Google Photos", err)
	}
	if len(data) > MaxUploadSize {
		return nil, apperr.Invalid("file", "File exceeds the 100MB limit")
	}

	title := in.Title
	if title == "" {
		title = in.Filename
	}
	mimeType := in.MimeType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return s.Upload(ctx, userID, UploadInput{
		Title:       title,
		Description: in.Description,
		FileName:    in.Filename,
		MimeType:    mimeType,
		Size:        int64(len(data)),
		Visibility:  in.Visibility,
		ClassID:     in.ClassID,
		Content:     bytes.NewReader(data),
	})
}

// GooglePhotos 用用户存的委托 token 翻相册
func (s *FileService) GooglePhotos(ctx context.Context, userID uint64, pageSize int, pageToken string) (*pkg.PhotosPage, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.GoogleAccessToken == "" {
		return nil, apperr.Unauthorized("Google authorization expired, please sign in again")
	}

	page, err := pkg.ListGooglePhotos(ctx, user.GoogleAccessToken, pageSize, pageToken)
	if err != nil {
		var apiErr *pkg.GoogleAPIError
		if errors.As(err, &apiErr) && apiErr.NeedsReauth() {
			return nil, apperr.Unauthorized("Google authorization expired, please sign in again")
		}
		return nil, apperr.Upstream("Failed to list Google Photos", err)
	}
	return page, nil
}

// GetFile 详情带可见性门禁，读一次记一次浏览
func (s *FileService) GetFile(ctx context.Context, viewerID, fileID uint64) (*model.File, error) {
	file, err := s.findVisible(ctx, viewerID, fileID)
	if err != nil {
		return nil, err
	}
	if err := s.files.IncrementViews(ctx, fileID); err == nil {
		file.Views++
	}
	s.attachUploader(ctx, file)
	return file, nil
}

// Download 记下载数并返回跳转地址
func (s *FileService) Download(ctx context.Context, viewerID, fileID uint64) (string, int64, error) {
	file, err := s.findVisible(ctx, viewerID, fileID)
	if err != nil {
		return "", 0, err
	}
	downloads, err := s.files.IncrementDownloads(ctx, fileID)
	if err != nil {
		return "", 0, err
	}
	return file.DownloadURL, downloads, nil
}

// DeleteFile 只有上传者能删；Drive 侧删除尽力而为
func (s *FileService) DeleteFile(ctx context.Context, userID, fileID uint64) error {
	file, err := s.findFile(ctx, fileID)
	if err != nil {
		return err
	}
	if file.UploadedByID != userID {
		return apperr.Forbidden("Only the uploader can delete this file")
	}

	if err := s.files.Delete(ctx, fileID); err != nil {
		return err
	}

	if user, err := s.users.FindByID(ctx, userID); err == nil && user.GoogleAccessToken != "" {
		go func(token, driveID string) {
			ctx, cancel := context.WithTimeout(context.Background(), driveCleanupTimeout)
			defer cancel()
			_ = pkg.DeleteFromDrive(ctx, token, driveID)
		}(user.GoogleAccessToken, file.GoogleDriveID)
	}
	return nil
}

type UpdateFileInput struct {
	Title       *string
	Description *string
	Visibility  *string
}

// UpdateFile 编辑元信息，不动 Drive 上的内容
func (s *FileService) UpdateFile(ctx context.Context, userID, fileID uint64, in UpdateFileInput) (*model.File, error) {
	file, err := s.findFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.UploadedByID != userID {
		return nil, apperr.Forbidden("Only the uploader can update this file")
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperr.Invalid("title", "Title is required")
		}
		file.Title = title
	}
	if in.Description != nil {
		file.Description = strings.TrimSpace(*in.Description)
	}
	if in.Visibility != nil {
		switch *in.Visibility {
		case model.VisibilityPublic, model.VisibilityPrivate:
			file.Visibility = *in.Visibility
			if *in.Visibility == model.VisibilityPublic {
				file.ClassID = nil
				file.ClassCode = ""
			}
		default:
			return nil, apperr.Invalid("visibility", "Visibility must be public or private")
		}
	}

	if err := s.files.Save(ctx, file); err != nil {
		return nil, err
	}
	s.attachUploader(ctx, file)
	return file, nil
}

// Recent 首页最新 12 条
func (s *FileService) Recent(ctx context.Context) ([]model.File, error) {
	files, err := s.files.Recent(ctx, RecentLimit)
	if err != nil {
		return nil, err
	}
	s.attachUploaders(ctx, files)
	return files, nil
}

// Popular 下载量前 8
func (s *FileService) Popular(ctx context.Context) ([]model.File, error) {
	files, err := s.files.Popular(ctx, PopularLimit)
	if err != nil {
		return nil, err
	}
	s.attachUploaders(ctx, files)
	return files, nil
}

func (s *FileService) ByCategory(ctx context.Context, category, sort string) ([]model.File, error) {
	files, err := s.files.ByCategory(ctx, category, sort)
	if err != nil {
		return nil, err
	}
	s.attachUploaders(ctx, files)
	return files, nil
}

func (s *FileService) findFile(ctx context.Context, fileID uint64) (*model.File, error) {
	file, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("File")
		}
		return nil, err
	}
	return file, nil
}

// findVisible 可见性裁决：私有只给上传者，班级文件只给成员
func (s *FileService) findVisible(ctx context.Context, viewerID, fileID uint64) (*model.File, error) {
	file, err := s.findFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	switch file.Visibility {
	case model.VisibilityPrivate:
		if file.UploadedByID != viewerID {
			return nil, apperr.Forbidden("This file is private")
		}
	case model.VisibilityClass:
		if file.UploadedByID == viewerID {
			break
		}
		if file.ClassID == nil {
			return nil, apperr.Forbidden("Only class members can access this file")
		}
		_, isMember, err := s.members.RoleOf(ctx, *file.ClassID, viewerID)
		if err != nil {
			return nil, err
		}
		if !isMember {
			return nil, apperr.Forbidden("Only class members can access this file")
		}
	}
	return file, nil
}

func (s *FileService) attachUploader(ctx context.Context, file *model.File) {
	briefs, err := s.users.FindBriefs(ctx, []uint64{file.UploadedByID})
	if err != nil {
		return
	}
	if b, ok := briefs[file.UploadedByID]; ok {
		file.UploadedBy = &b
	}
}

func (s *FileService) attachUploaders(ctx context.Context, files []model.File) {
	ids := make([]uint64, 0, len(files))
	for i := range files {
		ids = append(ids, files[i].UploadedByID)
	}
	briefs, err := s.users.FindBriefs(ctx, ids)
	if err != nil {
		return
	}
	for i := range files {
		if b, ok := briefs[files[i].UploadedByID]; ok {
			files[i].UploadedBy = &b
		}
	}
}
