package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/asadsehto/CareToShare/internal/apperr"
	"github.com/asadsehto/CareToShare/internal/model"
	"github.com/asadsehto/CareToShare/internal/repository/mysql"

	"gorm.io/gorm"
)

var usernameRe = regexp.MustCompile(`^[a-z0-9_]+$`)

type UserService struct {
	users *mysql.UserRepository
	files *mysql.FileRepository
}

func NewUserService() *UserService {
	return &UserService{
		users: mysql.NewUserRepository(),
		files: mysql.NewFileRepository(),
	}
}

// UserProfile 对外主页：基本信息 + 公开文件 + 上传统计
type UserProfile struct {
	User           model.UserBrief `json:"user"`
	Files          []model.File    `json:"files"`
	UploadCount    int64           `json:"uploadCount"`
	TotalDownloads int64           `json:"totalDownloads"`
}

func (s *UserService) Profile(ctx context.Context, userID uint64) (*UserProfile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, err
	}

	files, err := s.files.PublicByUploader(ctx, userID)
	if err != nil {
		return nil, err
	}
	brief := user.Brief()
	for i := range files {
		files[i].UploadedBy = &brief
	}

	count, downloads, err := s.files.UploaderStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserProfile{User: brief, Files: files, UploadCount: count, TotalDownloads: downloads}, nil
}

// MyFilesResult 个人文件页：全部上传（含私有和班级文件）+ 聚合统计
type MyFilesResult struct {
	Files          []model.File `json:"files"`
	UploadCount    int64        `json:"uploadCount"`
	TotalDownloads int64        `json:"totalDownloads"`
}

func (s *UserService) MyFiles(ctx context.Context, userID uint64) (*MyFilesResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	files, err := s.files.ByUploader(ctx, userID)
	if err != nil {
		return nil, err
	}
	brief := user.Brief()
	for i := range files {
		files[i].UploadedBy = &brief
	}
	count, downloads, err := s.files.UploaderStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MyFilesResult{Files: files, UploadCount: count, TotalDownloads: downloads}, nil
}

type UpdateProfileInput struct {
	Name     *string
	Username *string
	Avatar   *string
}

// UpdateProfile 用户名统一转小写，只允许字母数字下划线
func (s *UserService) UpdateProfile(ctx context.Context, userID uint64, in UpdateProfileInput) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Invalid("name", "Name cannot be empty")
		}
		user.Name = name
	}
	if in.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*in.Username))
		if !usernameRe.MatchString(username) {
			return nil, apperr.Invalid("username", "Username can only contain letters, numbers and underscores")
		}
		if len(username) < 3 || len(username) > 32 {
			return nil, apperr.Invalid("username", "Username must be 3-32 characters")
		}
		taken, err := s.users.UsernameTaken(ctx, username, userID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.Conflict("Username is already taken")
		}
		user.Username = username
	}
	if in.Avatar != nil {
		user.Avatar = *in.Avatar
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
