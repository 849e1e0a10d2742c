package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/asadsehto/CareToShare/internal/apperr"
	"github.com/asadsehto/CareToShare/internal/model"
	"github.com/asadsehto/CareToShare/internal/repository/mysql"

	"gorm.io/gorm"
)

// CommentStore 评论账本；Create/Delete 同事务重算父文件 comment_count
type CommentStore interface {
	Create(ctx context.Context, c *model.Comment) error
	Delete(ctx context.Context, commentID uint64) error
	FindByID(ctx context.Context, id uint64) (*model.Comment, error)
	ListByFile(ctx context.Context, fileID uint64, offset, limit int) ([]model.Comment, error)
	CountByFile(ctx context.Context, fileID uint64) (int64, error)
}

type FileFinder interface {
	FindByID(ctx context.Context, id uint64) (*model.File, error)
}

type CommentService struct {
	comments CommentStore
	files    FileFinder
	users    BriefStore
}

func NewCommentService() *CommentService {
	return &CommentService{
		comments: mysql.NewCommentRepository(),
		files:    mysql.NewFileRepository(),
		users:    mysql.NewUserRepository(),
	}
}

// AddComment 最长 500 字；parentID 非空时是楼中楼回复
func (s *CommentService) AddComment(ctx context.Context, userID, fileID uint64, text string, parentID *uint64) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Invalid("text", "Comment cannot be empty")
	}
	if utf8.RuneCountInString(text) > model.CommentMaxLen {
		return nil, apperr.Invalid("text", "Comment cannot exceed 500 characters")
	}

	if _, err := s.files.FindByID(ctx, fileID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("File")
		}
		return nil, err
	}

	if parentID != nil {
		parent, err := s.comments.FindByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("Parent comment")
			}
			return nil, err
		}
		if parent.FileID != fileID {
			return nil, apperr.Invalid("parentCommentId", "Parent comment belongs to a different file")
		}
	}

	comment := &model.Comment{FileID: fileID, UserID: userID, Text: text, ParentCommentID: parentID}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	briefs, err := s.users.FindBriefs(ctx, []uint64{userID})
	if err == nil {
		if b, ok := briefs[userID]; ok {
			comment.User = &b
		}
	}
	return comment, nil
}

// DeleteComment 只有评论作者可删，文件上传者也不行
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uint64) error {
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Comment")
		}
		return err
	}
	if comment.UserID != userID {
		return apperr.Forbidden("You can only delete your own comments")
	}
	return s.comments.Delete(ctx, commentID)
}

// ListComments 倒序分页
func (s *CommentService) ListComments(ctx context.Context, fileID uint64, page, limit int) ([]model.Comment, int64, error) {
	if _, err := s.files.FindByID(ctx, fileID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, apperr.NotFound("File")
		}
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	comments, err := s.comments.ListByFile(ctx, fileID, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.comments.CountByFile(ctx, fileID)
	if err != nil {
		return nil, 0, err
	}
	s.attachAuthors(ctx, comments)
	return comments, total, nil
}

func (s *CommentService) attachAuthors(ctx context.Context, comments []model.Comment) {
	if len(comments) == 0 {
		return
	}
	ids := make([]uint64, 0, len(comments))
	for i := range comments {
		ids = append(ids, comments[i].UserID)
	}
	briefs, err := s.users.FindBriefs(ctx, ids)
	if err != nil {
		return
	}
	for i := range comments {
		if b, ok := briefs[comments[i].UserID]; ok {
			comments[i].User = &b
		}
	}
}
