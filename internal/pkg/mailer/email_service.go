package mailer

import (
	"fmt"
	"html"

	"kidsgpt-be/internal/pkg/logger"

	"gopkg.in/gomail.v2"
)

type MisuseAlert struct {
	ParentName string
	ChildName  string
	Question   string
	Score      int
	// ReviewURL points at the parent dashboard.
	ReviewURL string
}

type IEmailService interface {
	SendMisuseAlert(toEmail string, alert MisuseAlert) error
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	dialer      sender
	senderEmail string
	logger      logger.ILogger
}

func NewEmailService(host string, port int, username, password, senderEmail string, log logger.ILogger) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: senderEmail,
		logger:      log,
	}
}

func (s *emailService) SendMisuseAlert(toEmail string, alert MisuseAlert) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("KidsGPT: %s may be using chat for homework answers", alert.ChildName))
	m.SetBody("text/html", misuseAlertBody(alert))

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("MAILER", "Failed to send misuse alert", map[string]interface{}{
			"to":    toEmail,
			"error": err.Error(),
		})
		return err
	}

	s.logger.Info("MAILER", "Misuse alert sent", map[string]interface{}{"to": toEmail})
	return nil
}

func misuseAlertBody(a MisuseAlert) string {
	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Hi %s,</h2>
			<p>A recent chat by <strong>%s</strong> looked like a request for direct homework answers.</p>
			<p>Misuse score: <strong>%d / 100</strong></p>
			<blockquote style="border-left: 4px solid #FFB300; margin: 0; padding-left: 12px;">%s</blockquote>
			<a href="%s" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block; margin-top: 16px;">Review conversations</a>
		</div>
	`,
		html.EscapeString(a.ParentName),
		html.EscapeString(a.ChildName),
		a.Score,
		html.EscapeString(a.Question),
		html.EscapeString(a.ReviewURL),
	)
}
