package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	LikeCntTTL       = 24 * time.Hour
	LockTTL          = 300 * time.Millisecond
	LikeCntKeyPrefix = "like:cnt:file"   // 文件点赞计数缓存
	LockKeyPrefix    = "lock:like:file:" // 计数重建锁
)

// LikeCacheRepository 点赞计数的读缓存，库里的点赞表才是事实
type LikeCacheRepository struct {
	likeCntTTL time.Duration
}

type DistLock struct {
	RDB *redis.Client
}

func NewLikeCacheRepository() *LikeCacheRepository {
	return &LikeCacheRepository{likeCntTTL: LikeCntTTL}
}

func (r *LikeCacheRepository) likeCntKey(fileID uint64) string {
	return fmt.Sprintf("%s:%d", LikeCntKeyPrefix, fileID)
}

// GetLikeCountCached 缓存命中返回 (val, true)
func (r *LikeCacheRepository) GetLikeCountCached(ctx context.Context, fileID uint64) (int64, bool, error) {
	ck := r.likeCntKey(fileID)
	val, err := Client.Get(ctx, ck).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	return val, true, err
}

// SetLikeCount 回填计数
func (r *LikeCacheRepository) SetLikeCount(ctx context.Context, fileID uint64, cnt int64) error {
	return Client.Set(ctx, r.likeCntKey(fileID), cnt, r.likeCntTTL).Err()
}

// DeleteCount 删计数 key，交给读侧重建；delay>0 时延迟二删，
// 抵消并发回填窗口的脏数据
func (r *LikeCacheRepository) DeleteCount(ctx context.Context, fileID uint64, delay ...time.Duration) error {
	key := r.likeCntKey(fileID)
	if err := Client.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if len(delay) > 0 && delay[0] > 0 {
		d := delay[0]
		go func() {
			t := time.NewTimer(d)
			defer t.Stop()
			<-t.C
			_ = Client.Del(context.Background(), key).Err()
		}()
	}
	return nil
}

// Acquire 重建计数前抢锁，避免全体打库
func (l *DistLock) Acquire(ctx context.Context, fileID uint64, token string) (bool, error) {
	key := fmt.Sprintf("%s:%d", LockKeyPrefix, fileID)
	return l.RDB.SetNX(ctx, key, token, LockTTL).Result()
}

// Release lua 保证只释放自己持有的锁
func (l *DistLock) Release(ctx context.Context, fileID uint64, token string) error {
	key := fmt.Sprintf("%s:%d", LockKeyPrefix, fileID)
	_, err := redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`).Run(ctx, l.RDB, []string{key}, token).Result()
	return err
}
