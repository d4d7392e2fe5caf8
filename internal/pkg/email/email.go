package email

import (
	"fmt"
	"html"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// EmailService defines the interface for email operations
type EmailService interface {
	SendActivationEmail(toEmail, toName, token string) error
	SendReverificationEmail(toEmail, toName, token string) error
	SendNotice(toEmail, toName, subject, message string) error
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	BaseURL   string // Base URL for links in emails
}

// Sender delivers a composed message. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailServiceImpl implements EmailService
type EmailServiceImpl struct {
	config SMTPConfig
	sender Sender
	logger zerolog.Logger
}

// NewEmailService creates a new EmailService
func NewEmailService(config SMTPConfig, logger zerolog.Logger) EmailService {
	var sender Sender
	if config.Username != "" && config.Password != "" {
		sender = gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)
	}
	return NewEmailServiceWithSender(config, sender, logger)
}

// NewEmailServiceWithSender creates an EmailService over a custom sender; a nil sender only logs
func NewEmailServiceWithSender(config SMTPConfig, sender Sender, logger zerolog.Logger) *EmailServiceImpl {
	return &EmailServiceImpl{
		config: config,
		sender: sender,
		logger: logger,
	}
}

// SendActivationEmail sends the account activation link
func (s *EmailServiceImpl) SendActivationEmail(toEmail, toName, token string) error {
	link := fmt.Sprintf("%s/api/v1/auth/activate?token=%s", s.config.BaseURL, token)
	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Welcome to SocietyHub!</h2>
				<p>Hello %s,</p>
				<p>Please activate your account by clicking the button below:</p>
				<div style="text-align: center; margin: 30px 0;">
					<a href="%s" style="background-color: #4a86e8; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; font-weight: bold;">Activate Account</a>
				</div>
				<p>Alternatively, you can use this activation code: <strong>%s</strong></p>
				<p>This link expires in 48 hours. Unactivated accounts are removed after that.</p>
				<p>Best regards,<br>The SocietyHub Team</p>
			</div>
		</body>
		</html>
	`, html.EscapeString(toName), link, token)

	return s.send(toEmail, "Activate Your Account - SocietyHub", body, link)
}

// SendReverificationEmail asks an existing user to confirm they are still a student
func (s *EmailServiceImpl) SendReverificationEmail(toEmail, toName, token string) error {
	link := fmt.Sprintf("%s/api/v1/auth/reverify?token=%s", s.config.BaseURL, token)
	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Please confirm your university email</h2>
				<p>Hello %s,</p>
				<p>To keep your SocietyHub account active we need you to confirm your university email address again.</p>
				<div style="text-align: center; margin: 30px 0;">
					<a href="%s" style="background-color: #4a86e8; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; font-weight: bold;">Confirm Email</a>
				</div>
				<p>If you do not confirm, your account will be deactivated and later deleted.</p>
				<p>Best regards,<br>The SocietyHub Team</p>
			</div>
		</body>
		</html>
	`, html.EscapeString(toName), link)

	return s.send(toEmail, "Confirm Your Email - SocietyHub", body, link)
}

// SendNotice sends a short informational email
func (s *EmailServiceImpl) SendNotice(toEmail, toName, subject, message string) error {
	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<p>Hello %s,</p>
				<p>%s</p>
				<p>Best regards,<br>The SocietyHub Team</p>
			</div>
		</body>
		</html>
	`, html.EscapeString(toName), html.EscapeString(message))

	return s.send(toEmail, subject, body, "")
}

func (s *EmailServiceImpl) send(toEmail, subject, htmlBody, link string) error {
	if s.sender == nil {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("subject", subject).
			Str("link", link).
			Msg("SMTP credentials not configured - email not sent. Use the link above for testing.")
		return nil
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.config.FromEmail, s.config.FromName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.sender.DialAndSend(m); err != nil {
		s.logger.Error().Err(err).Str("toEmail", toEmail).Str("subject", subject).Msg("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info().Str("toEmail", toEmail).Str("subject", subject).Msg("Email sent")
	return nil
}
