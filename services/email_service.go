package services

import (
	"crypto/tls"
	"fmt"
	"net/smtp"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/config"
)

// Notifier delivers participant-facing notifications. Callers treat delivery
// as best effort and never fail a business operation on a send error.
type Notifier interface {
	SendTicketEmail(userEmail, eventName, ticketID, qrCodeURL string) error
	SendTeamInviteEmail(userEmail, teamName, eventName, inviteCode string) error
	SendTeamFinalizedEmail(userEmail, teamName, eventName, ticketID string) error
	SendOrderReviewedEmail(userEmail, eventName, itemName, status, comment string) error
	SendOrganizerCredentialsEmail(userEmail, organizerName, password string) error
}

type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	tlsconfig := &tls.Config{
		ServerName: s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("smtp tls dial failed: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("smtp client creation failed: %w", err)
		}
	} else {
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("smtp dial failed: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("smtp STARTTLS failed: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth failed: %w", err)
	}

	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("smtp MAIL FROM failed: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO failed: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA failed: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("smtp message write failed: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("smtp DATA close failed: %w", err)
	}
	return nil
}

func (s *EmailService) SendTicketEmail(userEmail, eventName, ticketID, qrCodeURL string) error {
	subject := fmt.Sprintf("Your ticket for %s", eventName)
	body := fmt.Sprintf(
		`<p>You are registered for <b>%s</b>.</p>
		<p>Ticket ID: <code>%s</code></p>
		<p><img src="%s" alt="ticket QR code"></p>`,
		eventName, ticketID, qrCodeURL)
	return s.SendEmail([]string{userEmail}, subject, body)
}

func (s *EmailService) SendTeamInviteEmail(userEmail, teamName, eventName, inviteCode string) error {
	subject := fmt.Sprintf("Invitation to join team %s", teamName)
	body := fmt.Sprintf(
		`<p>You have been invited to join <b>%s</b> for <b>%s</b>.</p>
		<p>Join with code <code>%s</code> at %s/events.</p>`,
		teamName, eventName, inviteCode, s.cfg.PublicURL)
	return s.SendEmail([]string{userEmail}, subject, body)
}

func (s *EmailService) SendTeamFinalizedEmail(userEmail, teamName, eventName, ticketID string) error {
	subject := fmt.Sprintf("Team %s is registered for %s", teamName, eventName)
	body := fmt.Sprintf(
		`<p>Your team <b>%s</b> is now registered for <b>%s</b>.</p>
		<p>Your ticket ID: <code>%s</code></p>`,
		teamName, eventName, ticketID)
	return s.SendEmail([]string{userEmail}, subject, body)
}

func (s *EmailService) SendOrderReviewedEmail(userEmail, eventName, itemName, status, comment string) error {
	subject := fmt.Sprintf("Your order for %s: %s", itemName, status)
	body := fmt.Sprintf(
		`<p>Your order for <b>%s</b> (%s) has been <b>%s</b>.</p>`,
		itemName, eventName, status)
	if comment != "" {
		body += fmt.Sprintf(`<p>Reviewer comment: %s</p>`, comment)
	}
	return s.SendEmail([]string{userEmail}, subject, body)
}

func (s *EmailService) SendOrganizerCredentialsEmail(userEmail, organizerName, password string) error {
	subject := fmt.Sprintf("Organizer account for %s", organizerName)
	body := fmt.Sprintf(
		`<p>An organizer account for <b>%s</b> has been created.</p>
		<p>Login: <code>%s</code><br>Temporary password: <code>%s</code></p>
		<p>Sign in at %s and change the password.</p>`,
		organizerName, userEmail, password, s.cfg.PublicURL)
	return s.SendEmail([]string{userEmail}, subject, body)
}
