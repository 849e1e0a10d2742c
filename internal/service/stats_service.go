package service

import (
	"context"

	"github.com/asadsehto/CareToShare/internal/repository/mysql"
)

type StatsService struct {
	users   *mysql.UserRepository
	files   *mysql.FileRepository
	classes *mysql.ClassRepository
	devices *mysql.DeviceRepository
}

func NewStatsService() *StatsService {
	return &StatsService{
		users:   mysql.NewUserRepository(),
		files:   mysql.NewFileRepository(),
		classes: mysql.NewClassRepository(),
		devices: mysql.NewDeviceRepository(),
	}
}

// PlatformStats 首页聚合数字
type PlatformStats struct {
	TotalUsers     int64 `json:"totalUsers"`
	TotalFiles     int64 `json:"totalFiles"`
	TotalDownloads int64 `json:"totalDownloads"`
	TotalClasses   int64 `json:"totalClasses"`
}

func (s *StatsService) Platform(ctx context.Context) (*PlatformStats, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	files, err := s.files.Count(ctx)
	if err != nil {
		return nil, err
	}
	downloads, err := s.files.SumDownloads(ctx)
	if err != nil {
		return nil, err
	}
	classes, err := s.classes.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &PlatformStats{
		TotalUsers:     users,
		TotalFiles:     files,
		TotalDownloads: downloads,
		TotalClasses:   classes,
	}, nil
}
