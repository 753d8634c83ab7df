// Package mailer sends transactional email through Amazon SES v2.
package mailer

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

// Invitation is the content of a group invitation email.
type Invitation struct {
	To          string
	InviterName string
	GroupName   string
	AcceptURL   string
	ExpiresAt   time.Time
}

// Sender delivers invitation mail.
type Sender interface {
	SendInvitation(ctx context.Context, inv Invitation) error
}

// sesAPI is the subset of *sesv2.Client the mailer calls.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Config configures the SES sender.
type Config struct {
	Region           string
	FromAddress      string
	FromName         string
	ConfigurationSet string
}

// SES sends mail with SES v2. With no from address it only logs.
type SES struct {
	client  sesAPI
	cfg     Config
	enabled bool
	logger  *zap.Logger
}

// NewSES builds a sender from the default AWS credential chain.
func NewSES(ctx context.Context, cfg Config, logger *zap.Logger) (*SES, error) {
	if cfg.FromAddress == "" {
		logger.Warn("email disabled: EMAIL_FROM_ADDRESS not configured")
		return &SES{cfg: cfg, logger: logger}, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	logger.Info("email enabled", zap.String("from", cfg.FromAddress), zap.String("region", cfg.Region))
	return newSES(sesv2.NewFromConfig(awsCfg), cfg, logger), nil
}

func newSES(client sesAPI, cfg Config, logger *zap.Logger) *SES {
	return &SES{client: client, cfg: cfg, enabled: true, logger: logger}
}

// Enabled reports whether messages are actually delivered.
func (s *SES) Enabled() bool { return s.enabled }

// SendInvitation sends the group invitation with its accept link.
func (s *SES) SendInvitation(ctx context.Context, inv Invitation) error {
	subject := fmt.Sprintf("%s invited you to %s", inv.InviterName, inv.GroupName)
	expires := inv.ExpiresAt.Format("2006-01-02 15:04 MST")

	textBody := fmt.Sprintf(`Hi,

%s invited you to join the group "%s" on PhotoMap.

Accept the invitation:
%s

This link expires at %s.
`, inv.InviterName, inv.GroupName, inv.AcceptURL, expires)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body>
	<p>Hi,</p>
	<p><strong>%s</strong> invited you to join the group <strong>%s</strong> on PhotoMap.</p>
	<p><a href="%s">Accept invitation</a></p>
	<p style="font-size: 12px; color: #666;">This link expires at %s.</p>
</body>
</html>
`, html.EscapeString(inv.InviterName), html.EscapeString(inv.GroupName), html.EscapeString(inv.AcceptURL), expires)

	return s.send(ctx, inv.To, subject, htmlBody, textBody)
}

func (s *SES) send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	if !s.enabled {
		s.logger.Info("email skipped (disabled)", zap.String("to", to), zap.String("subject", subject))
		return nil
	}

	from := s.cfg.FromAddress
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromAddress)
	}
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	if s.cfg.ConfigurationSet != "" {
		input.ConfigurationSetName = aws.String(s.cfg.ConfigurationSet)
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("ses send failed", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("ses send email: %w", err)
	}
	s.logger.Info("email sent", zap.String("to", to), zap.String("message_id", aws.ToString(out.MessageId)))
	return nil
}
