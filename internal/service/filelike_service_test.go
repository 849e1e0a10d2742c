package service

import (
	"context"
	"testing"
	"time"

	"github.com/asadsehto/CareToShare/internal/apperr"
	"github.com/asadsehto/CareToShare/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type likeKey struct {
	userID uint64
	fileID uint64
}

// fakeLikeStore 语义对齐 mysql 实现：计数永远从点赞表重算
type fakeLikeStore struct {
	likes map[likeKey]bool
	files *fakeFileFinder
}

func newFakeLikeStore(files *fakeFileFinder) *fakeLikeStore {
	return &fakeLikeStore{likes: make(map[likeKey]bool), files: files}
}

func (f *fakeLikeStore) Toggle(_ context.Context, userID, fileID uint64) (bool, int64, error) {
	k := likeKey{userID, fileID}
	liked := !f.likes[k]
	if liked {
		f.likes[k] = true
	} else {
		delete(f.likes, k)
	}
	count := f.count(fileID)
	if file, ok := f.files.files[fileID]; ok {
		file.LikeCount = count
	}
	return liked, count, nil
}

func (f *fakeLikeStore) IsLiked(_ context.Context, userID, fileID uint64) (bool, error) {
	return f.likes[likeKey{userID, fileID}], nil
}

func (f *fakeLikeStore) LikeCount(_ context.Context, fileID uint64) (int64, error) {
	return f.count(fileID), nil
}

func (f *fakeLikeStore) count(fileID uint64) int64 {
	var n int64
	for k := range f.likes {
		if k.fileID == fileID {
			n++
		}
	}
	return n
}

type fakeLikeCache struct {
	counts  map[uint64]int64
	deletes int
}

func newFakeLikeCache() *fakeLikeCache {
	return &fakeLikeCache{counts: make(map[uint64]int64)}
}

func (f *fakeLikeCache) GetLikeCountCached(_ context.Context, fileID uint64) (int64, bool, error) {
	cnt, ok := f.counts[fileID]
	return cnt, ok, nil
}

func (f *fakeLikeCache) SetLikeCount(_ context.Context, fileID uint64, cnt int64) error {
	f.counts[fileID] = cnt
	return nil
}

func (f *fakeLikeCache) DeleteCount(_ context.Context, fileID uint64, _ ...time.Duration) error {
	delete(f.counts, fileID)
	f.deletes++
	return nil
}

type fakeLocker struct {
	acquire bool
}

func (f *fakeLocker) Acquire(_ context.Context, _ uint64, _ string) (bool, error) {
	return f.acquire, nil
}

func (f *fakeLocker) Release(_ context.Context, _ uint64, _ string) error {
	return nil
}

func newTestLikeService(t *testing.T) (*FileLikeService, *fakeLikeStore, *fakeLikeCache, *fakeLocker) {
	t.Helper()
	files := &fakeFileFinder{files: map[uint64]*model.File{
		testFileID: {ID: testFileID, Title: "notes", UploadedByID: creatorID, Visibility: model.VisibilityPublic},
	}}
	likes := newFakeLikeStore(files)
	cache := newFakeLikeCache()
	lock := &fakeLocker{acquire: true}
	svc := &FileLikeService{likes: likes, files: files, cache: cache, lock: lock}
	return svc, likes, cache, lock
}

// 点两次回到原点：计数归零、点赞集合不含该用户
func TestToggleTwiceRestoresState(t *testing.T) {
	svc, likes, _, _ := newTestLikeService(t)
	ctx := context.Background()

	first, err := svc.Toggle(ctx, studentID, testFileID)
	require.NoError(t, err)
	assert.True(t, first.Liked)
	assert.Equal(t, int64(1), first.LikeCount)

	second, err := svc.Toggle(ctx, studentID, testFileID)
	require.NoError(t, err)
	assert.False(t, second.Liked)
	assert.Equal(t, int64(0), second.LikeCount)

	isLiked, err := svc.IsLiked(ctx, studentID, testFileID)
	require.NoError(t, err)
	assert.False(t, isLiked)
	count, _ := likes.LikeCount(ctx, testFileID)
	assert.Equal(t, int64(0), count)
}

func TestToggleCountsDistinctUsers(t *testing.T) {
	svc, _, _, _ := newTestLikeService(t)
	ctx := context.Background()

	_, err := svc.Toggle(ctx, studentID, testFileID)
	require.NoError(t, err)
	result, err := svc.Toggle(ctx, otherID, testFileID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.LikeCount)

	// 一个人取消不影响另一个人
	result, err = svc.Toggle(ctx, studentID, testFileID)
	require.NoError(t, err)
	assert.False(t, result.Liked)
	assert.Equal(t, int64(1), result.LikeCount)
}

func TestToggleUnknownFile(t *testing.T) {
	svc, _, _, _ := newTestLikeService(t)

	_, err := svc.Toggle(context.Background(), studentID, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

// 写路径删缓存，读路径抢锁回源重建
func TestLikeCountCacheLifecycle(t *testing.T) {
	svc, _, cache, _ := newTestLikeService(t)
	ctx := context.Background()

	_, err := svc.Toggle(ctx, studentID, testFileID)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.deletes)
	_, hit, _ := cache.GetLikeCountCached(ctx, testFileID)
	assert.False(t, hit)

	count, err := svc.LikeCount(ctx, testFileID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	cached, hit, _ := cache.GetLikeCountCached(ctx, testFileID)
	assert.True(t, hit)
	assert.Equal(t, int64(1), cached)
}

// 抢不到锁时直接读库，但不回填缓存
func TestLikeCountWithoutLock(t *testing.T) {
	svc, _, cache, lock := newTestLikeService(t)
	lock.acquire = false
	ctx := context.Background()

	_, err := svc.Toggle(ctx, studentID, testFileID)
	require.NoError(t, err)

	count, err := svc.LikeCount(ctx, testFileID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, hit, _ := cache.GetLikeCountCached(ctx, testFileID)
	assert.False(t, hit)
}
