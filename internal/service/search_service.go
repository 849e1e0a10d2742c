package service

import (
	"context"
	"strings"

	"github.com/asadsehto/CareToShare/internal/apperr"
	"github.com/asadsehto/CareToShare/internal/model"
	"github.com/asadsehto/CareToShare/internal/repository/mysql"
)

const (
	SearchFileLimit = 20
	SearchUserLimit = 10
)

type SearchService struct {
	files *mysql.FileRepository
	users *mysql.UserRepository
}

func NewSearchService() *SearchService {
	return &SearchService{
		files: mysql.NewFileRepository(),
		users: mysql.NewUserRepository(),
	}
}

// SearchUser 搜索结果里的用户条目，带上传统计
type SearchUser struct {
	model.UserBrief
	UploadCount    int64 `json:"uploadCount"`
	TotalDownloads int64 `json:"totalDownloads"`
}

type SearchResult struct {
	Query string       `json:"query"`
	Files []model.File `json:"files"`
	Users []SearchUser `json:"users"`
}

// Search 按 typ 搜文件/用户/全部；私有/班级文件不进结果
func (s *SearchService) Search(ctx context.Context, query, typ string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Invalid("q", "Search query is required")
	}
	switch typ {
	case "", "all", "files", "users":
	default:
		return nil, apperr.Invalid("type", "Type must be files, users or all")
	}

	result := &SearchResult{Query: query, Files: []model.File{}, Users: []SearchUser{}}

	if typ != "users" {
		files, err := s.files.Search(ctx, query, SearchFileLimit)
		if err != nil {
			return nil, err
		}
		s.attachUploaders(ctx, files)
		result.Files = files
	}

	if typ != "files" {
		matched, err := s.users.Search(ctx, query, SearchUserLimit)
		if err != nil {
			return nil, err
		}
		for i := range matched {
			count, downloads, err := s.files.UploaderStats(ctx, matched[i].ID)
			if err != nil {
				return nil, err
			}
			result.Users = append(result.Users, SearchUser{
				UserBrief:      matched[i].Brief(),
				UploadCount:    count,
				TotalDownloads: downloads,
			})
		}
	}

	return result, nil
}

func (s *SearchService) attachUploaders(ctx context.Context, files []model.File) {
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
