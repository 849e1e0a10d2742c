package service

import (
	"context"
	"strings"
	"testing"

	"github.com/asadsehto/CareToShare/internal/apperr"
	"github.com/asadsehto/CareToShare/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeFileFinder struct {
	files map[uint64]*model.File
}

func (f *fakeFileFinder) FindByID(_ context.Context, id uint64) (*model.File, error) {
	file, ok := f.files[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	result := *file
	return &result, nil
}

// fakeCommentStore 语义对齐 mysql 实现：增删都从账本重算 comment_count
type fakeCommentStore struct {
	comments map[uint64]*model.Comment
	nextID   uint64
	files    *fakeFileFinder
}

func newFakeCommentStore(files *fakeFileFinder) *fakeCommentStore {
	return &fakeCommentStore{comments: make(map[uint64]*model.Comment), files: files}
}

func (f *fakeCommentStore) recount(fileID uint64) {
	var n int64
	for _, c := range f.comments {
		if c.FileID == fileID {
			n++
		}
	}
	if file, ok := f.files.files[fileID]; ok {
		file.CommentCount = n
	}
}

func (f *fakeCommentStore) Create(_ context.Context, c *model.Comment) error {
	f.nextID++
	c.ID = f.nextID
	stored := *c
	f.comments[c.ID] = &stored
	f.recount(c.FileID)
	return nil
}

func (f *fakeCommentStore) Delete(_ context.Context, commentID uint64) error {
	c, ok := f.comments[commentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.comments, commentID)
	f.recount(c.FileID)
	return nil
}

func (f *fakeCommentStore) FindByID(_ context.Context, id uint64) (*model.Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	result := *c
	return &result, nil
}

func (f *fakeCommentStore) ListByFile(_ context.Context, fileID uint64, offset, limit int) ([]model.Comment, error) {
	var out []model.Comment
	for _, c := range f.comments {
		if c.FileID == fileID {
			out = append(out, *c)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCommentStore) CountByFile(_ context.Context, fileID uint64) (int64, error) {
	var n int64
	for _, c := range f.comments {
		if c.FileID == fileID {
			n++
		}
	}
	return n, nil
}

const testFileID = uint64(10)

func newTestCommentService(t *testing.T) (*CommentService, *fakeCommentStore, *fakeFileFinder) {
	t.Helper()
	files := &fakeFileFinder{files: map[uint64]*model.File{
		testFileID: {ID: testFileID, Title: "notes", UploadedByID: creatorID, Visibility: model.VisibilityPublic},
	}}
	comments := newFakeCommentStore(files)
	svc := &CommentService{comments: comments, files: files, users: fakeBriefStore{}}
	return svc, comments, files
}

func TestAddCommentValidation(t *testing.T) {
	svc, _, _ := newTestCommentService(t)
	ctx := context.Background()

	_, err := svc.AddComment(ctx, studentID, testFileID, "   ", nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.AddComment(ctx, studentID, testFileID, strings.Repeat("a", model.CommentMaxLen+1), nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.AddComment(ctx, studentID, 999, "hello", nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

// 增删评论后 comment_count 始终等于账本真实条数
func TestCommentCountTracksLedger(t *testing.T) {
	svc, comments, files := newTestCommentService(t)
	ctx := context.Background()

	first, err := svc.AddComment(ctx, studentID, testFileID, "first", nil)
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, otherID, testFileID, "second", nil)
	require.NoError(t, err)

	ledger, _ := comments.CountByFile(ctx, testFileID)
	assert.Equal(t, int64(2), ledger)
	assert.Equal(t, ledger, files.files[testFileID].CommentCount)

	require.NoError(t, svc.DeleteComment(ctx, studentID, first.ID))

	ledger, _ = comments.CountByFile(ctx, testFileID)
	assert.Equal(t, int64(1), ledger)
	assert.Equal(t, ledger, files.files[testFileID].CommentCount)
}

func TestReplyMustTargetSameFile(t *testing.T) {
	svc, _, files := newTestCommentService(t)
	ctx := context.Background()

	files.files[11] = &model.File{ID: 11, Title: "other", UploadedByID: creatorID}

	parent, err := svc.AddComment(ctx, studentID, testFileID, "parent", nil)
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, otherID, 11, "reply", &parent.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	reply, err := svc.AddComment(ctx, otherID, testFileID, "reply", &parent.ID)
	require.NoError(t, err)
	require.NotNil(t, reply.ParentCommentID)
	assert.Equal(t, parent.ID, *reply.ParentCommentID)
}

// 只有作者能删：文件上传者也不行
func TestDeleteCommentAuthorOnly(t *testing.T) {
	svc, _, _ := newTestCommentService(t)
	ctx := context.Background()

	comment, err := svc.AddComment(ctx, studentID, testFileID, "my take", nil)
	require.NoError(t, err)

	// creatorID 是该文件的上传者
	err = svc.DeleteComment(ctx, creatorID, comment.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	err = svc.DeleteComment(ctx, otherID, comment.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, svc.DeleteComment(ctx, studentID, comment.ID))

	err = svc.DeleteComment(ctx, studentID, comment.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
