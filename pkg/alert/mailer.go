package alert

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
	"k8s.io/klog/v2"

	"github.com/upms-lab/upms-backend/dao/model"
	"github.com/upms-lab/upms-backend/pkg/config"
)

// Mailer delivers decision notices to applicants. Failures are the
// caller's to log; a notice must never fail a decision.
type Mailer interface {
	SendDecisionNotice(ctx context.Context, receiver string, projectName string, status model.ApplicationStatus) error
}

// NewMailer returns the SMTP mailer, or a nop when SMTP is unconfigured.
func NewMailer() Mailer {
	conf := config.GetConfig()
	if conf.SMTP.Host == "" {
		klog.Info("smtp not configured, decision notices disabled")
		return &NopMailer{}
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(conf.SMTP.Host, conf.SMTP.Port, conf.SMTP.User, conf.SMTP.Password),
		sender: conf.SMTP.Sender,
	}
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	sender string
}

func (m *SMTPMailer) SendDecisionNotice(
	_ context.Context, receiver, projectName string, status model.ApplicationStatus) error {
	subject := fmt.Sprintf("[UPMS] Your application to %s", projectName)
	var body string
	switch status {
	case model.ApplicationConfirmed:
		body = fmt.Sprintf("Congratulations! You have been confirmed for project %s.", projectName)
	case model.ApplicationRejected:
		body = fmt.Sprintf("Unfortunately your application to project %s was not selected this round.", projectName)
	default:
		body = fmt.Sprintf("Your application to project %s was moved back to pending.", projectName)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", receiver)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}

type NopMailer struct{}

func (m *NopMailer) SendDecisionNotice(
	_ context.Context, _, _ string, _ model.ApplicationStatus) error {
	return nil
}
