package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/asadsehto/CareToShare/internal/apperr"
	mysqlrepo "github.com/asadsehto/CareToShare/internal/repository/mysql"
	redisrepo "github.com/asadsehto/CareToShare/internal/repository/redis"

	"gorm.io/gorm"
)

const likeDeleteDelay = 500 * time.Millisecond

// LikeStore 点赞账本；Toggle 在事务里重算 like_count 并返回新值
type LikeStore interface {
	Toggle(ctx context.Context, userID, fileID uint64) (liked bool, count int64, err error)
	IsLiked(ctx context.Context, userID, fileID uint64) (bool, error)
	LikeCount(ctx context.Context, fileID uint64) (int64, error)
}

type LikeCache interface {
	GetLikeCountCached(ctx context.Context, fileID uint64) (int64, bool, error)
	SetLikeCount(ctx context.Context, fileID uint64, cnt int64) error
	DeleteCount(ctx context.Context, fileID uint64, delay ...time.Duration) error
}

type LikeLocker interface {
	Acquire(ctx context.Context, fileID uint64, token string) (bool, error)
	Release(ctx context.Context, fileID uint64, token string) error
}

type FileLikeService struct {
	likes LikeStore
	files FileFinder
	cache LikeCache
	lock  LikeLocker
}

func NewFileLikeService() *FileLikeService {
	return &FileLikeService{
		likes: mysqlrepo.NewFileLikeRepository(),
		files: mysqlrepo.NewFileRepository(),
		cache: redisrepo.NewLikeCacheRepository(),
		lock:  &redisrepo.DistLock{RDB: redisrepo.Client},
	}
}

type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"likeCount"`
}

// Toggle 点赞/取消点赞。库内事务重算计数，缓存延迟双删
func (s *FileLikeService) Toggle(ctx context.Context, userID, fileID uint64) (*LikeResult, error) {
	if _, err := s.files.FindByID(ctx, fileID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("File")
		}
		return nil, err
	}

	liked, count, err := s.likes.Toggle(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	_ = s.cache.DeleteCount(ctx, fileID, likeDeleteDelay)
	return &LikeResult{Liked: liked, LikeCount: count}, nil
}

func (s *FileLikeService) IsLiked(ctx context.Context, userID, fileID uint64) (bool, error) {
	return s.likes.IsLiked(ctx, userID, fileID)
}

// LikeCount 缓存优先；miss 时抢锁回源重建，抢不到就直接读库
func (s *FileLikeService) LikeCount(ctx context.Context, fileID uint64) (int64, error) {
	cnt, hit, err := s.cache.GetLikeCountCached(ctx, fileID)
	if err == nil && hit {
		return cnt, nil
	}

	token := lockToken()
	acquired, lockErr := s.lock.Acquire(ctx, fileID, token)

	cnt, err = s.likes.LikeCount(ctx, fileID)
	if err != nil {
		if lockErr == nil && acquired {
			_ = s.lock.Release(ctx, fileID, token)
		}
		return 0, err
	}

	if lockErr == nil && acquired {
		_ = s.cache.SetLikeCount(ctx, fileID, cnt)
		_ = s.lock.Release(ctx, fileID, token)
	}
	return cnt, nil
}

func lockToken() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
