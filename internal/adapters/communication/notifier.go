// Package communication delivers offer emails and staff notifications over
// SES and SNS. Every send is best-effort from the caller's point of view.
package communication

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"
	"time"

	"parkingspace-workers/internal/common/config"
	"parkingspace-workers/internal/common/logger"
	"parkingspace-workers/internal/common/metrics"
	"parkingspace-workers/internal/common/validation"
	"parkingspace-workers/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
)

const (
	KindOfferEmail = "offer-email"
	KindContact    = "contact"
	KindRole       = "role"
)

// ErrEmailDisabled is returned for an offer email when email delivery is
// switched off. Nothing was sent.
var ErrEmailDisabled = errors.New("email delivery disabled")

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// OfferEmail is the data rendered into the parking space offer.
type OfferEmail struct {
	To               string
	FirstName        string
	RentalObjectCode string
	Address          string
	DistrictCaption  string
	MonthlyRent      float64
	ApplicationType  domain.ApplicationType
	ExpiresAt        time.Time
}

var offerTemplate = template.Must(template.New("offer").Parse(
	`Hej {{.FirstName}}!

Du har erbjudits bilplatsen {{.RentalObjectCode}} på {{.Address}}{{if .DistrictCaption}} ({{.DistrictCaption}}){{end}}.
Månadshyra: {{printf "%.0f" .MonthlyRent}} kr.
Ansökningstyp: {{.ApplicationType}}.

Svara på erbjudandet senast {{.ExpiresAt.Format "2006-01-02"}}.
`))

type Notifier struct {
	ses    SESService
	sns    SNSService
	config config.NotificationConfig
	logger logger.Logger
}

func NewNotifier(sesClient SESService, snsClient SNSService, cfg config.NotificationConfig, log logger.Logger) *Notifier {
	return &Notifier{
		ses:    sesClient,
		sns:    snsClient,
		config: cfg,
		logger: log.WithFields(map[string]interface{}{"adapter": "communication"}),
	}
}

func (n *Notifier) SendParkingSpaceOfferEmail(ctx context.Context, offer OfferEmail) error {
	var body bytes.Buffer
	if err := offerTemplate.Execute(&body, offer); err != nil {
		return n.failed(KindOfferEmail, fmt.Errorf("render offer email: %w", err))
	}

	subject := fmt.Sprintf("Erbjudande om bilplats %s", offer.RentalObjectCode)
	err := n.sendEmail(ctx, offer.To, subject, body.String())
	switch {
	case errors.Is(err, ErrEmailDisabled):
		return err
	case err != nil:
		return n.failed(KindOfferEmail, err)
	}
	return nil
}

// SendNotificationToContact emails the contact and, when SMS is enabled and a
// phone number is known, sends the message by SMS as well.
func (n *Notifier) SendNotificationToContact(ctx context.Context, contact domain.Contact, subject, message string) error {
	if err := n.sendEmail(ctx, contact.EmailAddress, subject, message); err != nil && !errors.Is(err, ErrEmailDisabled) {
		return n.failed(KindContact, err)
	}

	if n.config.SMS.Enabled && validation.ValidatePhone(contact.PhoneNumber) {
		if err := n.sendSMS(ctx, contact.PhoneNumber, message); err != nil {
			return n.failed(KindContact, err)
		}
	}
	return nil
}

// SendNotificationToRole emails the mailbox configured for role. It is a
// no-op while email is disabled.
func (n *Notifier) SendNotificationToRole(ctx context.Context, role, subject, message string) error {
	to, ok := n.config.Roles[role]
	if !ok {
		return n.failed(KindRole, fmt.Errorf("no mailbox configured for role %q", role))
	}
	if err := n.sendEmail(ctx, to, subject, message); err != nil && !errors.Is(err, ErrEmailDisabled) {
		return n.failed(KindRole, err)
	}
	return nil
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) error {
	if !n.config.Email.Enabled {
		n.logger.Debug("email disabled, skipping", map[string]interface{}{"subject": subject})
		return ErrEmailDisabled
	}
	if !validation.ValidateEmail(to) {
		return fmt.Errorf("invalid recipient address %q", to)
	}

	notificationID := uuid.New().String()
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.config.Email.FromEmail),
	})
	if err != nil {
		return fmt.Errorf("ses send %s: %w", notificationID, err)
	}

	n.logger.Info("email sent", map[string]interface{}{
		"notificationId": notificationID,
		"subject":        subject,
	})
	return nil
}

func (n *Notifier) sendSMS(ctx context.Context, to, message string) error {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	}
	if n.config.SMS.SenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {DataType: aws.String("String"), StringValue: aws.String(n.config.SMS.SenderID)},
		}
	}

	if _, err := n.sns.Publish(ctx, input); err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

func (n *Notifier) failed(kind string, err error) error {
	metrics.NotificationsFailed.WithLabelValues(kind).Inc()
	n.logger.Warn("notification failed", map[string]interface{}{
		"kind":  kind,
		"error": err,
	})
	return err
}
