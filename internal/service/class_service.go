package service

import (
	"context"
	"errors"
	"strings"

	"github.com/asadsehto/CareToShare/internal/apperr"
	"github.com/asadsehto/CareToShare/internal/model"
	"github.com/asadsehto/CareToShare/internal/pkg"
	"github.com/asadsehto/CareToShare/internal/repository/mysql"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ClassStore 班级聚合的持久化依赖
type ClassStore interface {
	Create(ctx context.Context, c *model.Class) error
	FindByID(ctx context.Context, id uint64) (*model.Class, error)
	FindByCode(ctx context.Context, code string) (*model.Class, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	Discover(ctx context.Context, search string, offset, limit int) ([]model.Class, int64, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Class, error)
	Save(ctx context.Context, c *model.Class) error
	DeleteCascade(ctx context.Context, id uint64) error
}

// MemberStore 成员/角色/申请队列的持久化依赖
type MemberStore interface {
	RoleOf(ctx context.Context, classID, userID uint64) (int, bool, error)
	Join(ctx context.Context, classID, userID uint64, role int) (bool, error)
	Remove(ctx context.Context, classID, userID uint64, event string) (bool, error)
	SetRole(ctx context.Context, classID, userID uint64, role int) error
	Members(ctx context.Context, classID uint64) ([]model.ClassMember, error)
	AddRequest(ctx context.Context, classID, userID uint64, message string) (bool, error)
	RemoveRequest(ctx context.Context, classID, userID uint64) (bool, error)
	Requests(ctx context.Context, classID uint64) ([]model.ClassJoinRequest, error)
	Approve(ctx context.Context, classID, userID uint64) (bool, error)
}

type BriefStore interface {
	FindBriefs(ctx context.Context, ids []uint64) (map[uint64]model.UserBrief, error)
}

type ClassFileStore interface {
	ByClass(ctx context.Context, classID uint64, limit int) ([]model.File, error)
}

type ClassService struct {
	classes ClassStore
	members MemberStore
	users   BriefStore
	files   ClassFileStore
	// 入班申请通知，可为 nil
	notifier *JoinNotifier
}

func NewClassService(notifier *JoinNotifier) *ClassService {
	return &ClassService{
		classes:  mysql.NewClassRepository(),
		members:  mysql.NewClassMemberRepository(),
		users:    mysql.NewUserRepository(),
		files:    mysql.NewFileRepository(),
		notifier: notifier,
	}
}

type CreateClassInput struct {
	Name        string
	Description string
	Visibility  string
	Thumbnail   string
	Password    string
}

func (s *ClassService) CreateClass(ctx context.Context, userID uint64, in CreateClassInput) (*model.Class, error) {
	name := strings.TrimSpace(in.Name)
	if len(name) < 2 {
		return nil, apperr.Invalid("name", "Class name must be at least 2 characters")
	}

	visibility := in.Visibility
	if visibility == "" {
		visibility = model.ClassPublic
	}
	if visibility != model.ClassPublic && visibility != model.ClassPrivate {
		return nil, apperr.Invalid("visibility", "Visibility must be public or private")
	}
	if visibility == model.ClassPrivate && in.Password == "" {
		return nil, apperr.Invalid("password", "Password is required for private classes")
	}

	code, err := pkg.GenerateClassCode(func(c string) (bool, error) {
		return s.classes.CodeExists(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	var passwordHash string
	if visibility == model.ClassPrivate {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		passwordHash = string(hash)
	}

	class := &model.Class{
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		Thumbnail:    in.Thumbnail,
		ClassCode:    code,
		Visibility:   visibility,
		PasswordHash: passwordHash,
		CreatorID:    userID,
	}
	if err := s.classes.Create(ctx, class); err != nil {
		return nil, err
	}
	s.attachCreator(ctx, class)
	return class, nil
}

// ClassDetail 班级详情响应：成员、待审批申请、最新班级文件
type ClassDetail struct {
	*model.Class
	Members      []model.ClassMember      `json:"members"`
	JoinRequests []model.ClassJoinRequest `json:"joinRequests"`
	Files        []model.File             `json:"files"`
}

func (s *ClassService) GetClass(ctx context.Context, viewerID, classID uint64) (*ClassDetail, error) {
	class, err := s.findClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	// 私有班级只有成员能看详情
	if class.Visibility == model.ClassPrivate {
		ok, err := s.IsMember(ctx, classID, viewerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.Forbidden("This is a private class")
		}
	}

	members, err := s.members.Members(ctx, classID)
	if err != nil {
		return nil, err
	}
	requests, err := s.members.Requests(ctx, classID)
	if err != nil {
		return nil, err
	}
	files, err := s.files.ByClass(ctx, classID, 20)
	if err != nil {
		return nil, err
	}

	detail := &ClassDetail{Class: class, Members: members, JoinRequests: requests, Files: files}
	s.attachDetailBriefs(ctx, detail)
	return detail, nil
}

func (s *ClassService) GetByCode(ctx context.Context, code string) (*model.Class, error) {
	class, err := s.classes.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Class")
		}
		return nil, err
	}
	s.attachCreator(ctx, class)
	return class, nil
}

func (s *ClassService) Discover(ctx context.Context, search string, page, limit int) ([]model.Class, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	classes, total, err := s.classes.Discover(ctx, search, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, err
	}
	s.attachCreators(ctx, classes)
	return classes, total, nil
}

// MyClasses 分成我创建的和我加入的
func (s *ClassService) MyClasses(ctx context.Context, userID uint64) (created, joined []model.Class, err error) {
	classes, err := s.classes.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	s.attachCreators(ctx, classes)
	created = make([]model.Class, 0)
	joined = make([]model.Class, 0)
	for _, c := range classes {
		if c.CreatorID == userID {
			created = append(created, c)
		} else {
			joined = append(joined, c)
		}
	}
	return created, joined, nil
}

// Join 直接加入：公开班直进，私有班校验密码
func (s *ClassService) Join(ctx context.Context, userID, classID uint64, password string) error {
	class, err := s.findClass(ctx, classID)
	if err != nil {
		return err
	}
	return s.joinClass(ctx, userID, class, password)
}

// JoinByCode 用班级码加入，按班级可见性走同一条路
func (s *ClassService) JoinByCode(ctx context.Context, userID uint64, code, password string) (*model.Class, error) {
	if strings.TrimSpace(code) == "" {
		return nil, apperr.Invalid("code", "Class code is required")
	}
	class, err := s.classes.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Class")
		}
		return nil, err
	}
	if err := s.joinClass(ctx, userID, class, password); err != nil {
		return nil, err
	}
	s.attachCreator(ctx, class)
	return class, nil
}

func (s *ClassService) joinClass(ctx context.Context, userID uint64, class *model.Class, password string) error {
	_, isMember, err := s.members.RoleOf(ctx, class.ID, userID)
	if err != nil {
		return err
	}
	if isMember {
		return apperr.Conflict("You are already a member of this class")
	}

	if class.Visibility == model.ClassPrivate {
		if password == "" {
			return apperr.PasswordRequired(class.Name)
		}
		if bcrypt.CompareHashAndPassword([]byte(class.PasswordHash), []byte(password)) != nil {
			return apperr.IncorrectPassword()
		}
	}

	_, err = s.members.Join(ctx, class.ID, userID, model.RoleMember)
	return err
}

// RequestToJoin 显式申请入班，进待审批队列并通知创建者
func (s *ClassService) RequestToJoin(ctx context.Context, userID, classID uint64, message string) error {
	class, err := s.findClass(ctx, classID)
	if err != nil {
		return err
	}
	_, isMember, err := s.members.RoleOf(ctx, classID, userID)
	if err != nil {
		return err
	}
	if isMember {
		return apperr.Conflict("You are already a member of this class")
	}

	added, err := s.members.AddRequest(ctx, classID, userID, message)
	if err != nil {
		return err
	}
	if added && s.notifier != nil {
		s.notifier.NotifyJoinRequest(class, userID, message)
	}
	return nil
}

// Approve 批准入班，CR 或创建者操作
func (s *ClassService) Approve(ctx context.Context, actorID, classID, targetID uint64) error {
	if err := s.requireCR(ctx, classID, actorID, "Only CRs can approve join requests"); err != nil {
		return err
	}
	approved, err := s.members.Approve(ctx, classID, targetID)
	if err != nil {
		return err
	}
	if !approved {
		return apperr.NotFound("Join request")
	}
	return nil
}

// Reject 拒绝入班，幂等
func (s *ClassService) Reject(ctx context.Context, actorID, classID, targetID uint64) error {
	if err := s.requireCR(ctx, classID, actorID, "Only CRs can reject join requests"); err != nil {
		return err
	}
	_, err := s.members.RemoveRequest(ctx, classID, targetID)
	return err
}

// AddCR 提升为班代表，只有创建者能操作
func (s *ClassService) AddCR(ctx context.Context, actorID, classID, targetID uint64) error {
	if err := s.requireCreator(ctx, classID, actorID, "Only the class creator can add CRs"); err != nil {
		return err
	}
	role, isMember, err := s.members.RoleOf(ctx, classID, targetID)
	if err != nil {
		return err
	}
	if !isMember {
		return apperr.Invalid("userId", "User must be a member first")
	}
	if role >= model.RoleCR {
		return apperr.Conflict("User is already a CR")
	}
	return s.members.SetRole(ctx, classID, targetID, model.RoleCR)
}

// RemoveCR 降级回普通成员，只有创建者能操作
func (s *ClassService) RemoveCR(ctx context.Context, actorID, classID, targetID uint64) error {
	if err := s.requireCreator(ctx, classID, actorID, "Only the class creator can remove CRs"); err != nil {
		return err
	}
	return s.members.SetRole(ctx, classID, targetID, model.RoleMember)
}

// RemoveMember 移除成员（连 CR 身份一起），创建者永远移不掉
func (s *ClassService) RemoveMember(ctx context.Context, actorID, classID, targetID uint64) error {
	class, err := s.findClass(ctx, classID)
	if err != nil {
		return err
	}
	if err := s.requireCR(ctx, classID, actorID, "Only CRs can remove members"); err != nil {
		return err
	}
	if class.CreatorID == targetID {
		return apperr.Conflict("Cannot remove the class creator")
	}
	_, err = s.members.Remove(ctx, classID, targetID, "remove")
	return err
}

// Leave 退班；创建者只能删班，不能退
func (s *ClassService) Leave(ctx context.Context, userID, classID uint64) error {
	class, err := s.findClass(ctx, classID)
	if err != nil {
		return err
	}
	if class.CreatorID == userID {
		return apperr.Conflict("Creator cannot leave. Delete the class instead.")
	}
	_, err = s.members.Remove(ctx, classID, userID, "leave")
	return err
}

type UpdateClassInput struct {
	Name        *string
	Description *string
	Visibility  *string
	Thumbnail   *string
}

// UpdateClass 编辑班级信息，CR 或创建者操作
func (s *ClassService) UpdateClass(ctx context.Context, actorID, classID uint64, in UpdateClassInput) (*model.Class, error) {
	class, err := s.findClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if err := s.requireCR(ctx, classID, actorID, "Only CRs can update class"); err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if len(name) < 2 {
			return nil, apperr.Invalid("name", "Class name must be at least 2 characters")
		}
		class.Name = name
	}
	if in.Description != nil {
		class.Description = strings.TrimSpace(*in.Description)
	}
	if in.Visibility != nil {
		if *in.Visibility != model.ClassPublic && *in.Visibility != model.ClassPrivate {
			return nil, apperr.Invalid("visibility", "Visibility must be public or private")
		}
		class.Visibility = *in.Visibility
	}
	if in.Thumbnail != nil {
		class.Thumbnail = *in.Thumbnail
	}

	if err := s.classes.Save(ctx, class); err != nil {
		return nil, err
	}
	s.attachCreator(ctx, class)
	return class, nil
}

// DeleteClass 删班级联：班内文件全部转公开并解除关联，只有创建者能删
func (s *ClassService) DeleteClass(ctx context.Context, actorID, classID uint64) error {
	if err := s.requireCreator(ctx, classID, actorID, "Only the creator can delete the class"); err != nil {
		return err
	}
	return s.classes.DeleteCascade(ctx, classID)
}

// ClassFiles 班级文件列表，仅成员可见
func (s *ClassService) ClassFiles(ctx context.Context, viewerID, classID uint64) ([]model.File, error) {
	if _, err := s.findClass(ctx, classID); err != nil {
		return nil, err
	}
	ok, err := s.IsMember(ctx, classID, viewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Forbidden("Only members can view class files")
	}
	files, err := s.files.ByClass(ctx, classID, 0)
	if err != nil {
		return nil, err
	}
	s.attachFileUploaders(ctx, files)
	return files, nil
}

// IsMember 创建者和 CR 隐含满足成员判断（都有成员行）
func (s *ClassService) IsMember(ctx context.Context, classID, userID uint64) (bool, error) {
	_, ok, err := s.members.RoleOf(ctx, classID, userID)
	return ok, err
}

func (s *ClassService) findClass(ctx context.Context, classID uint64) (*model.Class, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Class")
		}
		return nil, err
	}
	return class, nil
}

func (s *ClassService) requireCR(ctx context.Context, classID, userID uint64, msg string) error {
	role, ok, err := s.members.RoleOf(ctx, classID, userID)
	if err != nil {
		return err
	}
	if !ok || role < model.RoleCR {
		return apperr.Forbidden(msg)
	}
	return nil
}

func (s *ClassService) requireCreator(ctx context.Context, classID, userID uint64, msg string) error {
	class, err := s.findClass(ctx, classID)
	if err != nil {
		return err
	}
	if class.CreatorID != userID {
		return apperr.Forbidden(msg)
	}
	return nil
}

func (s *ClassService) attachCreator(ctx context.Context, class *model.Class) {
	briefs, err := s.users.FindBriefs(ctx, []uint64{class.CreatorID})
	if err != nil {
		return
	}
	if b, ok := briefs[class.CreatorID]; ok {
		class.Creator = &b
	}
}

func (s *ClassService) attachCreators(ctx context.Context, classes []model.Class) {
	ids := make([]uint64, 0, len(classes))
	for i := range classes {
		ids = append(ids, classes[i].CreatorID)
	}
	briefs, err := s.users.FindBriefs(ctx, ids)
	if err != nil {
		return
	}
	for i := range classes {
		if b, ok := briefs[classes[i].CreatorID]; ok {
			classes[i].Creator = &b
		}
	}
}

func (s *ClassService) attachDetailBriefs(ctx context.Context, d *ClassDetail) {
	ids := []uint64{d.CreatorID}
	for i := range d.Members {
		ids = append(ids, d.Members[i].UserID)
	}
	for i := range d.JoinRequests {
		ids = append(ids, d.JoinRequests[i].UserID)
	}
	for i := range d.Files {
		ids = append(ids, d.Files[i].UploadedByID)
	}
	briefs, err := s.users.FindBriefs(ctx, ids)
	if err != nil {
		return
	}
	if b, ok := briefs[d.CreatorID]; ok {
		d.Class.Creator = &b
	}
	for i := range d.Members {
		if b, ok := briefs[d.Members[i].UserID]; ok {
			d.Members[i].User = &b
		}
	}
	for i := range d.JoinRequests {
		if b, ok := briefs[d.JoinRequests[i].UserID]; ok {
			d.JoinRequests[i].User = &b
		}
	}
	for i := range d.Files {
		if b, ok := briefs[d.Files[i].UploadedByID]; ok {
			d.Files[i].UploadedBy = &b
		}
	}
}

func (s *ClassService) attachFileUploaders(ctx context.Context, files []model.File) {
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
