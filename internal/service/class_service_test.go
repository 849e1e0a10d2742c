package service

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/asadsehto/CareToShare/internal/apperr"
	"github.com/asadsehto/CareToShare/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 内存版班级/成员存储，语义对齐 mysql 实现：
// 成员行唯一、创建者行删不掉、申请队列去重

type memberKey struct {
	classID uint64
	userID  uint64
}

type fakeMemberStore struct {
	roles    map[memberKey]int
	requests map[memberKey]string
}

func newFakeMemberStore() *fakeMemberStore {
	return &fakeMemberStore{
		roles:    make(map[memberKey]int),
		requests: make(map[memberKey]string),
	}
}

func (f *fakeMemberStore) RoleOf(_ context.Context, classID, userID uint64) (int, bool, error) {
	role, ok := f.roles[memberKey{classID, userID}]
	return role, ok, nil
}

func (f *fakeMemberStore) Join(_ context.Context, classID, userID uint64, role int) (bool, error) {
	k := memberKey{classID, userID}
	if _, ok := f.roles[k]; ok {
		return false, nil
	}
	f.roles[k] = role
	return true, nil
}

func (f *fakeMemberStore) Remove(_ context.Context, classID, userID uint64, _ string) (bool, error) {
	k := memberKey{classID, userID}
	role, ok := f.roles[k]
	if !ok || role == model.RoleCreator {
		return false, nil
	}
	delete(f.roles, k)
	return true, nil
}

func (f *fakeMemberStore) SetRole(_ context.Context, classID, userID uint64, role int) error {
	k := memberKey{classID, userID}
	if existing, ok := f.roles[k]; ok && existing != model.RoleCreator {
		f.roles[k] = role
	}
	return nil
}

func (f *fakeMemberStore) Members(_ context.Context, classID uint64) ([]model.ClassMember, error) {
	var members []model.ClassMember
	for k, role := range f.roles {
		if k.classID == classID {
			members = append(members, model.ClassMember{ClassID: k.classID, UserID: k.userID, Role: role})
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].UserID < members[j].UserID })
	return members, nil
}

func (f *fakeMemberStore) AddRequest(_ context.Context, classID, userID uint64, message string) (bool, error) {
	k := memberKey{classID, userID}
	if _, ok := f.requests[k]; ok {
		return false, nil
	}
	f.requests[k] = message
	return true, nil
}

func (f *fakeMemberStore) RemoveRequest(_ context.Context, classID, userID uint64) (bool, error) {
	k := memberKey{classID, userID}
	if _, ok := f.requests[k]; !ok {
		return false, nil
	}
	delete(f.requests, k)
	return true, nil
}

func (f *fakeMemberStore) Requests(_ context.Context, classID uint64) ([]model.ClassJoinRequest, error) {
	var reqs []model.ClassJoinRequest
	for k, msg := range f.requests {
		if k.classID == classID {
			reqs = append(reqs, model.ClassJoinRequest{ClassID: k.classID, UserID: k.userID, Message: msg})
		}
	}
	return reqs, nil
}

func (f *fakeMemberStore) Approve(_ context.Context, classID, userID uint64) (bool, error) {
	k := memberKey{classID, userID}
	if _, ok := f.requests[k]; !ok {
		return false, nil
	}
	delete(f.requests, k)
	if _, ok := f.roles[k]; !ok {
		f.roles[k] = model.RoleMember
	}
	return true, nil
}

type fakeClassStore struct {
	classes map[uint64]*model.Class
	nextID  uint64
	members *fakeMemberStore
	files   *fakeClassFileStore
}

func newFakeClassStore(members *fakeMemberStore, files *fakeClassFileStore) *fakeClassStore {
	return &fakeClassStore{classes: make(map[uint64]*model.Class), members: members, files: files}
}

func (f *fakeClassStore) Create(_ context.Context, c *model.Class) error {
	f.nextID++
	c.ID = f.nextID
	stored := *c
	f.classes[c.ID] = &stored
	// 创建即落创建者成员行，和 mysql 事务行为一致
	f.members.roles[memberKey{c.ID, c.CreatorID}] = model.RoleCreator
	return nil
}

func (f *fakeClassStore) FindByID(_ context.Context, id uint64) (*model.Class, error) {
	c, ok := f.classes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	result := *c
	return &result, nil
}

func (f *fakeClassStore) FindByCode(_ context.Context, code string) (*model.Class, error) {
	for _, c := range f.classes {
		if c.ClassCode == code {
			result := *c
			return &result, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeClassStore) CodeExists(_ context.Context, code string) (bool, error) {
	_, err := f.FindByCode(context.Background(), code)
	return err == nil, nil
}

func (f *fakeClassStore) Discover(_ context.Context, _ string, _, _ int) ([]model.Class, int64, error) {
	var all []model.Class
	for _, c := range f.classes {
		all = append(all, *c)
	}
	return all, int64(len(all)), nil
}

func (f *fakeClassStore) ListByUser(_ context.Context, userID uint64) ([]model.Class, error) {
	var out []model.Class
	for _, c := range f.classes {
		if _, ok := f.members.roles[memberKey{c.ID, userID}]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeClassStore) Save(_ context.Context, c *model.Class) error {
	stored := *c
	f.classes[c.ID] = &stored
	return nil
}

func (f *fakeClassStore) DeleteCascade(_ context.Context, id uint64) error {
	delete(f.classes, id)
	// 班内文件转公开并解绑，和 mysql 级联一致
	for _, file := range f.files.files {
		if file.ClassID != nil && *file.ClassID == id {
			file.Visibility = model.VisibilityPublic
			file.ClassID = nil
			file.ClassCode = ""
		}
	}
	for k := range f.members.roles {
		if k.classID == id {
			delete(f.members.roles, k)
		}
	}
	for k := range f.members.requests {
		if k.classID == id {
			delete(f.members.requests, k)
		}
	}
	return nil
}

type fakeBriefStore struct{}

func (fakeBriefStore) FindBriefs(_ context.Context, ids []uint64) (map[uint64]model.UserBrief, error) {
	briefs := make(map[uint64]model.UserBrief, len(ids))
	for _, id := range ids {
		briefs[id] = model.UserBrief{ID: id, Name: "user", Username: "user"}
	}
	return briefs, nil
}

type fakeClassFileStore struct {
	files map[uint64]*model.File
}

func (f *fakeClassFileStore) ByClass(_ context.Context, classID uint64, _ int) ([]model.File, error) {
	var out []model.File
	for _, file := range f.files {
		if file.ClassID != nil && *file.ClassID == classID {
			out = append(out, *file)
		}
	}
	return out, nil
}

func newTestClassService(t *testing.T) (*ClassService, *fakeClassStore, *fakeMemberStore) {
	t.Helper()
	members := newFakeMemberStore()
	files := &fakeClassFileStore{files: make(map[uint64]*model.File)}
	classes := newFakeClassStore(members, files)
	svc := &ClassService{
		classes: classes,
		members: members,
		users:   fakeBriefStore{},
		files:   files,
	}
	return svc, classes, members
}

const (
	creatorID = uint64(1)
	studentID = uint64(2)
	otherID   = uint64(3)
)

func mustCreateClass(t *testing.T, svc *ClassService, in CreateClassInput) *model.Class {
	t.Helper()
	class, err := svc.CreateClass(context.Background(), creatorID, in)
	require.NoError(t, err)
	return class
}

func TestCreateClassValidation(t *testing.T) {
	svc, _, _ := newTestClassService(t)
	ctx := context.Background()

	_, err := svc.CreateClass(ctx, creatorID, CreateClassInput{Name: "A"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.CreateClass(ctx, creatorID, CreateClassInput{Name: "  x  "})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.CreateClass(ctx, creatorID, CreateClassInput{Name: "Algo", Visibility: "hidden"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	// 私有班必须带密码
	_, err = svc.CreateClass(ctx, creatorID, CreateClassInput{Name: "Algo", Visibility: model.ClassPrivate})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestCreateClass(t *testing.T) {
	svc, _, members := newTestClassService(t)

	class := mustCreateClass(t, svc, CreateClassInput{Name: "  Algorithms  ", Description: " intro "})

	assert.Equal(t, "Algorithms", class.Name)
	assert.Equal(t, "intro", class.Description)
	assert.Equal(t, model.ClassPublic, class.Visibility)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), class.ClassCode)

	// 创建者自动入班且不可移除
	role, ok, err := members.RoleOf(context.Background(), class.ID, creatorID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.RoleCreator, role)
}

func TestCreateClassHashesPassword(t *testing.T) {
	svc, _, _ := newTestClassService(t)

	class := mustCreateClass(t, svc, CreateClassInput{
		Name:       "Secret Club",
		Visibility: model.ClassPrivate,
		Password:   "hunter2",
	})

	assert.NotEqual(t, "hunter2", class.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(class.PasswordHash), []byte("hunter2")))
}

func TestJoinPublicClass(t *testing.T) {
	svc, _, members := newTestClassService(t)
	ctx := context.Background()

	class := mustCreateClass(t, svc, CreateClassInput{Name: "Open Class"})

	require.NoError(t, svc.Join(ctx, studentID, class.ID, ""))
	role, ok, _ := members.RoleOf(ctx, class.ID, studentID)
	assert.True(t, ok)
	assert.Equal(t, model.RoleMember, role)

	// 重复加入
	err := svc.Join(ctx, studentID, class.ID, "")
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestJoinPrivateClassPasswordFlow(t *testing.T) {
	svc, _, _ := newTestClassService(t)
	ctx := context.Background()

	class := mustCreateClass(t, svc, CreateClassInput{
		Name:       "Secret Club",
		Visibility: model.ClassPrivate,
		Password:   "hunter2",
	})

	// 不带密码：要求补密码并回传班级名
	err := svc.Join(ctx, studentID, class.ID, "")
	require.ErrorIs(t, err, apperr.ErrPasswordRequired)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Secret Club", appErr.ClassName)

	// 密码错误
	err = svc.Join(ctx, studentID, class.ID, "wrong")
	assert.ErrorIs(t, err, apperr.ErrIncorrectPassword)

	// 密码正确
	require.NoError(t, svc.Join(ctx, studentID, class.ID, "hunter2"))
	ok, err := svc.IsMember(ctx, class.ID, studentID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestJoinByCode(t *testing.T) {
	svc, _, _ := newTestClassService(t)
	ctx := context.Background()

	class := mustCreateClass(t, svc, CreateClassInput{Name: "Open Class"})

	// 小写带空白的输入也能匹配
	joined, err := svc.JoinByCode(ctx, studentID, strings.ToLower(" "+class.ClassCode+" "), "")
	require.NoError(t, err)
	assert.Equal(t, class.ID, joined.ID)

	_, err = svc.JoinByCode(ctx, otherID, "ZZZZZZ", "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.JoinByCode(ctx, otherID, "   ", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestRequestAndApproveFlow(t *testing.T) {
	svc, _, members := newTestClassService(t)
	ctx := context.Background()

	class := mustCreateClass(t, svc, CreateClassInput{Name: "Seminar"})

	require.NoError(t, svc.RequestToJoin(ctx, studentID, class.ID, "let me in"))

	// 成员批不了
	err := svc.Approve(ctx, studentID, class.ID, studentID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	// 创建者批准后成为成员，申请消失
	require.NoError(t, svc.Approve(ctx, creatorID, class.ID, studentID))
	ok, _ := svc.IsMember(ctx, class.ID, studentID)
	assert.True(t, ok)
	reqs, _ := members.Requests(ctx, class.ID)
	assert.Empty(t, reqs)

	// 没有申请可批
	err = svc.Approve(ctx, creatorID, class.ID, otherID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRequestToJoinAlreadyMember(t *testing.T) {
	svc, _, _ := newTestClassService(t)
	ctx := context.Background()

	class := mustCreateClass(t, svc, CreateClassInput{Name: "Seminar"})
	require.NoError(t, svc.Join(ctx, studentID, class.ID, ""))

	err := svc.RequestToJoin(ctx, studentID, class.ID, "")
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRejectIsIdempotent(t *testing.T) {
	svc, _, _ := newTestClassService(t)
	ctx := context.Background()

	class := mustCreateClass(t, svc, CreateClassInput{Name: "Seminar"})
	require.NoError(t, svc.RequestToJoin(ctx, studentID, class.ID, ""))

	require.NoError(t, svc.Reject(ctx, creatorID, class.ID, studentID))
	require.NoError(t, svc.Reject(ctx, creatorID, class.ID, studentID))

	ok, _ := svc.IsMember(ctx, class.ID, studentID)
	assert.False(t, ok)
}

func TestAddCR(t *testing.T) {
	svc, _, members := newTestClassService(t)
	ctx := context.Background()

	class := mustCreateClass(t, svc, CreateClassInput{Name: "Seminar"})

	// 先得是成员
	err := svc.AddCR(ctx, creatorID, class.ID, studentID)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	require.NoError(t, svc.Join(ctx, studentID, class.ID, ""))
	require.NoError(t, svc.AddCR(ctx, creatorID, class.ID, studentID))
	role, _, _ := members.RoleOf(ctx, class.ID, studentID)
	assert.Equal(t, model.RoleCR, role)

	// 重复提升
	err = svc.AddCR(ctx, creatorID, class.ID, studentID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// CR 不能提升别人，只有创建者可以
	require.NoError(t, svc.Join(ctx, otherID, class.ID, ""))
	err = svc.AddCR(ctx, studentID, class.ID, otherID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestRemoveCRDemotesToMember(t *testing.T) {
	svc, _, members := newTestClassService(t)
	ctx := context.Background()

	class := mustCreateClass(t, svc, CreateClassInput{Name: "Seminar"})
	require.NoError(t, svc.Join(ctx, studentID, class.ID, ""))
	require.NoError(t, svc.AddCR(ctx, creatorID, class.ID, studentID))

	require.NoError(t, svc.RemoveCR(ctx, creatorID, class.ID, studentID))
	role, ok, _ := members.RoleOf(ctx, class.ID, studentID)
	assert.True(t, ok)
	assert.Equal(t, model.RoleMember, role)
}

func TestRemoveMember(t *testing.T) {
	svc, _, _ := newTestClassService(t)
	ctx := context.Background()

	class := mustCreateClass(t, svc, CreateClassInput{Name: "Seminar"})
	require.NoError(t, svc.Join(ctx, studentID, class.ID, ""))
	require.NoError(t, svc.Join(ctx, otherID, class.ID, ""))
	require.NoError(t, svc.AddCR(ctx, creatorID, class.ID, studentID))

	// CR 可以移除普通成员
	require.NoError(t, svc.RemoveMember(ctx, studentID, class.ID, otherID))
	ok, _ := svc.IsMember(ctx, class.ID, otherID)
	assert.False(t, ok)

	// 创建者移不掉
	err := svc.RemoveMember(ctx, studentID, class.ID, creatorID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// 普通成员无权移除
	require.NoError(t, svc.Join(ctx, otherID, class.ID, ""))
	err = svc.RemoveMember(ctx, otherID, class.ID, studentID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestLeave(t *testing.T) {
	svc, _, _ := newTestClassService(t)
	ctx := context.Background()

	class := mustCreateClass(t, svc, CreateClassInput{Name: "Seminar"})
	require.NoError(t, svc.Join(ctx, studentID, class.ID, ""))

	require.NoError(t, svc.Leave(ctx, studentID, class.ID))
	ok, _ := svc.IsMember(ctx, class.ID, studentID)
	assert.False(t, ok)

	// 创建者只能删班
	err := svc.Leave(ctx, creatorID, class.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestDeleteClass(t *testing.T) {
	svc, classes, _ := newTestClassService(t)
	ctx := context.Background()

	class := mustCreateClass(t, svc, CreateClassInput{Name: "Seminar"})
	require.NoError(t, svc.Join(ctx, studentID, class.ID, ""))
	require.NoError(t, svc.AddCR(ctx, creatorID, class.ID, studentID))

	// CR 也删不了
	err := svc.DeleteClass(ctx, studentID, class.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, svc.DeleteClass(ctx, creatorID, class.ID))
	_, err = classes.FindByID(ctx, class.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

// 删班级联：班内文件全部转公开并解除班级关联
func TestDeleteClassFlipsClassFilesPublic(t *testing.T) {
	svc, classes, _ := newTestClassService(t)
	ctx := context.Background()

	class := mustCreateClass(t, svc, CreateClassInput{Name: "Seminar"})
	classID := class.ID
	classes.files.files[1] = &model.File{
		ID:           1,
		Title:        "lecture notes",
		Visibility:   model.VisibilityClass,
		ClassID:      &classID,
		ClassCode:    class.ClassCode,
		UploadedByID: creatorID,
	}

	require.NoError(t, svc.DeleteClass(ctx, creatorID, class.ID))

	file := classes.files.files[1]
	assert.Equal(t, model.VisibilityPublic, file.Visibility)
	assert.Nil(t, file.ClassID)
	assert.Empty(t, file.ClassCode)
}

func TestPrivateClassDetailGate(t *testing.T) {
	svc, _, _ := newTestClassService(t)
	ctx := context.Background()

	class := mustCreateClass(t, svc, CreateClassInput{
		Name:       "Secret Club",
		Visibility: model.ClassPrivate,
		Password:   "hunter2",
	})

	_, err := svc.GetClass(ctx, studentID, class.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, svc.Join(ctx, studentID, class.ID, "hunter2"))
	detail, err := svc.GetClass(ctx, studentID, class.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Members, 2)
}

func TestUpdateClass(t *testing.T) {
	svc, _, _ := newTestClassService(t)
	ctx := context.Background()

	class := mustCreateClass(t, svc, CreateClassInput{Name: "Seminar"})
	require.NoError(t, svc.Join(ctx, studentID, class.ID, ""))

	// 普通成员不能改
	name := "Renamed"
	_, err := svc.UpdateClass(ctx, studentID, class.ID, UpdateClassInput{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, svc.AddCR(ctx, creatorID, class.ID, studentID))
	updated, err := svc.UpdateClass(ctx, studentID, class.ID, UpdateClassInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	short := "x"
	_, err = svc.UpdateClass(ctx, creatorID, class.ID, UpdateClassInput{Name: &short})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestMyClassesSplit(t *testing.T) {
	svc, _, _ := newTestClassService(t)
	ctx := context.Background()

	mine := mustCreateClass(t, svc, CreateClassInput{Name: "Mine"})

	other, err := svc.CreateClass(ctx, otherID, CreateClassInput{Name: "Theirs"})
	require.NoError(t, err)
	require.NoError(t, svc.Join(ctx, creatorID, other.ID, ""))

	created, joined, err := svc.MyClasses(ctx, creatorID)
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.Len(t, joined, 1)
	assert.Equal(t, mine.ID, created[0].ID)
	assert.Equal(t, other.ID, joined[0].ID)
}
