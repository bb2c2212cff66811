// internal/alerts/notifier.go
package alerts

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"apartment-search/internal/common/errors"
	"apartment-search/internal/common/logger"
	"apartment-search/internal/common/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Notifier delivers saved-search match alerts over email and, for high
// priority matches, SMS.
type Notifier struct {
	config    *Config
	db        *sql.DB
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
}

func NewNotifier(config *Config, db *sql.DB, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		config:    config,
		db:        db,
		logger:    log.WithFields(map[string]interface{}{"component": "alert-notifier"}),
		sesClient: sesClient,
		snsClient: snsClient,
	}
}

// Notify delivers one alert. Delivery failures are reported in the output
// status rather than as errors; only missing configuration is fatal.
func (n *Notifier) Notify(ctx context.Context, input *Input) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, n.config.Timeout)
	defer cancel()

	if input.Match.Score < n.config.MinScore {
		return nil, fmt.Errorf("score %.0f below alert threshold %.0f", input.Match.Score, n.config.MinScore)
	}

	email, phone, err := n.recipientContact(ctx, input.UserID)
	if err != nil {
		n.logger.Warn("recipient not found", map[string]interface{}{
			"userId": input.UserID,
		})
		return &Output{
			NotificationID: uuid.New().String(),
			Status:         StatusDisabled,
			Priority:       PriorityNormal,
			SentAt:         time.Now().UTC().Format(time.RFC3339),
		}, nil
	}

	priority := PriorityNormal
	if input.Match.Score >= n.config.HighScore {
		priority = PriorityHigh
	}

	subject, body := renderAlert(input)
	sentAt := time.Now().UTC().Format(time.RFC3339)
	notificationID := uuid.New().String()

	emailSent := false
	smsSent := false

	if n.config.EmailEnabled && email != "" {
		if err := n.sendEmail(ctx, email, subject, body); err != nil {
			n.logger.Error("email send failed", map[string]interface{}{
				"error": errors.NewNotificationSendFailedError("email", err),
				"email": email,
			})
			metrics.AlertsDelivered.WithLabelValues(StatusFailed).Inc()
			return &Output{NotificationID: notificationID, Status: StatusFailed, Priority: priority, SentAt: sentAt}, nil
		}
		emailSent = true
	}

	if n.config.SMSEnabled && phone != "" && priority == n.config.PriorityThreshold {
		if err := n.sendSMS(ctx, phone, body); err != nil {
			n.logger.Error("SMS send failed", map[string]interface{}{
				"error": errors.NewNotificationSendFailedError("sms", err),
				"phone": phone,
			})
			metrics.AlertsDelivered.WithLabelValues(StatusFailed).Inc()
			return &Output{NotificationID: notificationID, Status: StatusFailed, Priority: priority, SentAt: sentAt}, nil
		}
		smsSent = true
	}

	status := StatusDisabled
	if emailSent || smsSent {
		status = StatusSent
	}

	metrics.AlertsDelivered.WithLabelValues(status).Inc()

	n.logger.Info("alert processed", map[string]interface{}{
		"notificationId": notificationID,
		"userId":         input.UserID,
		"status":         status,
		"priority":       priority,
	})

	return &Output{
		NotificationID: notificationID,
		Status:         status,
		Priority:       priority,
		SentAt:         sentAt,
	}, nil
}

func (n *Notifier) recipientContact(ctx context.Context, userID string) (string, string, error) {
	var email, phone string
	err := n.db.QueryRowContext(ctx,
		`SELECT email, phone FROM users WHERE id = $1`, userID).Scan(&email, &phone)
	return email, phone, err
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
				Html: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.config.FromEmail),
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, to, message string) error {
	_, err := n.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

func renderAlert(input *Input) (string, string) {
	l := input.Match.Listing

	subject := fmt.Sprintf("New match for %q: %s", input.SearchName, l.Title)

	var b strings.Builder
	fmt.Fprintf(&b, "A listing scored %.0f/100 against your saved search %q.\n\n", input.Match.Score, input.SearchName)
	fmt.Fprintf(&b, "%s\n", l.Title)
	fmt.Fprintf(&b, "$%.0f/mo, %d bed / %.1f bath", l.Price, l.Bedrooms, l.Bathrooms)
	if l.Neighborhood != "" {
		fmt.Fprintf(&b, ", %s", l.Neighborhood)
	}
	if l.City != "" {
		fmt.Fprintf(&b, ", %s", l.City)
	}
	b.WriteString("\n")
	return subject, b.String()
}
