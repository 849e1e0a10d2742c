package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/asadsehto/CareToShare/internal/model"
	"github.com/asadsehto/CareToShare/internal/pkg"
	"github.com/asadsehto/CareToShare/internal/repository/mysql"
)

// JoinNotifier 入班申请邮件通知，异步发送不阻塞请求
type JoinNotifier struct {
	cfg   pkg.SMTPConfig
	users *mysql.UserRepository
}

func NewJoinNotifier(cfg pkg.SMTPConfig) *JoinNotifier {
	return &JoinNotifier{cfg: cfg, users: mysql.NewUserRepository()}
}

// NotifyJoinRequest 给班级创建者发申请通知，失败只记日志
func (n *JoinNotifier) NotifyJoinRequest(class *model.Class, requesterID uint64, message string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		creator, err := n.users.FindByID(ctx, class.CreatorID)
		if err != nil {
			log.Printf("join notifier: find creator %d: %v", class.CreatorID, err)
			return
		}
		requester, err := n.users.FindByID(ctx, requesterID)
		if err != nil {
			log.Printf("join notifier: find requester %d: %v", requesterID, err)
			return
		}

		subject := fmt.Sprintf("New join request for %s", class.Name)
		body := pkg.JoinRequestHTML(class.Name, requester.Name, message)
		if err := pkg.SendEmail(n.cfg, creator.Email, subject, body); err != nil {
			log.Printf("join notifier: send to %s: %v", creator.Email, err)
		}
	}()
}
