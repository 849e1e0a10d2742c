package service

import (
	"context"
	"testing"

	"github.com/asadsehto/CareToShare/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUserStore struct {
	users  map[uint64]*model.User
	nextID uint64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uint64]*model.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *model.User) error {
	f.nextID++
	user.ID = f.nextID
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserStore) FindByID(_ context.Context, id uint64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	result := *u
	return &result, nil
}

func (f *fakeUserStore) FindByGoogleID(_ context.Context, googleID string) (*model.User, error) {
	for _, u := range f.users {
		if u.GoogleID == googleID {
			result := *u
			return &result, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserStore) UsernameTaken(_ context.Context, username string, excludeID uint64) (bool, error) {
	for _, u := range f.users {
		if u.Username == username && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) Save(_ context.Context, user *model.User) error {
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func TestDeriveUsername(t *testing.T) {
	store := newFakeUserStore()
	svc := &AuthService{users: store}
	ctx := context.Background()

	// 邮箱前缀清洗成小写字母数字下划线
	name, err := svc.deriveUsername(ctx, "Asad.Sehto+test@gmail.com", "Asad Sehto")
	require.NoError(t, err)
	assert.Equal(t, "asadsehtotest", name)

	// 前缀清洗后为空时退回姓名
	name, err = svc.deriveUsername(ctx, "你好@example.com", "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, "janedoe", name)

	// 都不可用时兜底
	name, err = svc.deriveUsername(ctx, "@example.com", "!!!")
	require.NoError(t, err)
	assert.Equal(t, "user", name)
}

func TestDeriveUsernameCollision(t *testing.T) {
	store := newFakeUserStore()
	svc := &AuthService{users: store}
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &model.User{GoogleID: "g1", Username: "jane"}))
	require.NoError(t, store.Create(ctx, &model.User{GoogleID: "g2", Username: "jane1"}))

	name, err := svc.deriveUsername(ctx, "jane@example.com", "Jane")
	require.NoError(t, err)
	assert.Equal(t, "jane2", name)
}

func TestDeriveUsernameTruncatesLongPrefix(t *testing.T) {
	store := newFakeUserStore()
	svc := &AuthService{users: store}

	name, err := svc.deriveUsername(context.Background(), "abcdefghijklmnopqrstuvwxyz123@example.com", "")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(name), 24)
}
