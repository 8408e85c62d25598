package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"folio/config"
	"folio/models"
)

// Mailer is the outbound mail collaborator used by the contact inbox.
type Mailer interface {
	NotifyContact(msg *models.ContactMessage) error
	SendContactReply(msg *models.ContactMessage, reply string) error
}

type EmailService struct {
	host     string
	port     string
	user     string
	password string
	from     string
	inbox    string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailService(cfg config.SMTPConfig, inbox string) *EmailService {
	return &EmailService{
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.User,
		password: cfg.Password,
		from:     cfg.From,
		inbox:    inbox,
		send:     smtp.SendMail,
	}
}

func (e *EmailService) Configured() bool {
	return e.host != "" && e.from != ""
}

// NotifyContact tells the site owner a contact message arrived.
func (e *EmailService) NotifyContact(msg *models.ContactMessage) error {
	if e.inbox == "" {
		return nil
	}
	subject := "New contact message from " + msg.Name
	body := fmt.Sprintf(`Name: %s
Email: %s
Phone: %s

%s
`, msg.Name, msg.Email, msg.Phone, msg.Message)

	return e.deliver(e.inbox, subject, body)
}

func (e *EmailService) SendContactReply(msg *models.ContactMessage, reply string) error {
	subject := "Re: your message"
	body := fmt.Sprintf(`Hi %s,

%s

---
On %s you wrote:
%s
`, msg.Name, reply, msg.CreatedAt.Format("2006-01-02"), quote(msg.Message))

	return e.deliver(msg.Email, subject, body)
}

func (e *EmailService) deliver(to, subject, body string) error {
	if !e.Configured() {
		return fmt.Errorf("smtp is not configured")
	}

	message := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", headerValue(e.from), headerValue(to), headerValue(subject), body)

	var auth smtp.Auth
	if e.user != "" {
		auth = smtp.PlainAuth("", e.user, e.password, e.host)
	}
	addr := fmt.Sprintf("%s:%s", e.host, e.port)

	if err := e.send(addr, auth, e.from, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// headerValue folds CR and LF into spaces so user input cannot start a
// new header line.
func headerValue(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == '\r' || r == '\n'
	}), " ")
}

func quote(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = "> " + l
	}
	return strings.Join(lines, "\n")
}
