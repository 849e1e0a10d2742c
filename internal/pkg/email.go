package pkg

import (
	"crypto/tls"
	"fmt"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func SendEmail(cfg SMTPConfig, to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	return d.DialAndSend(m)
}

// JoinRequestHTML 入班申请通知邮件正文
func JoinRequestHTML(className, requesterName, message string) string {
	body := fmt.Sprintf(`<p>Hi,</p><p><b>%s</b> has requested to join your class <b>%s</b>.</p>`, requesterName, className)
	if message != "" {
		body += fmt.Sprintf(`<p>Message: %s</p>`, message)
	}
	body += `<p>Open CareToShare to approve or reject the request.</p>`
	return body
}
