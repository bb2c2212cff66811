// internal/alerts/notifier_test.go
package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apartment-search/internal/common/logger"
	"apartment-search/internal/models"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	calls         int
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls++
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	calls       int
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls++
	return m.PublishFunc(ctx, params, optFns...)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:           30 * time.Second,
		MinScore:          60,
		HighScore:         90,
		EmailEnabled:      true,
		SMSEnabled:        true,
		FromEmail:         "alerts@apartment-search.test",
		PriorityThreshold: PriorityHigh,
		AWSRegion:         "us-east-1",
	}
}

func createTestInput(score float64) *Input {
	return &Input{
		UserID:     "user-1",
		SearchName: "quiet 2-bed",
		Match: Match{
			Score: score,
			Listing: models.Listing{
				ID:           "l1",
				Title:        "Sunny two bedroom",
				Price:        1750,
				Bedrooms:     2,
				Bathrooms:    1,
				Neighborhood: "Ballard",
				City:         "Seattle",
			},
		},
	}
}

func okSES() *MockSESService {
	return &MockSESService{SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		return &ses.SendEmailOutput{}, nil
	}}
}

func okSNS() *MockSNSService {
	return &MockSNSService{PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
		return &sns.PublishOutput{}, nil
	}}
}

func setupNotifier(t *testing.T, cfg *Config, sesMock *MockSESService, snsMock *MockSNSService) (*Notifier, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewNotifier(cfg, db, sesMock, snsMock, logger.NewTestLogger(t)), mock
}

func expectContact(mock sqlmock.Sqlmock, email, phone string) {
	mock.ExpectQuery("SELECT email, phone FROM users").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone"}).AddRow(email, phone))
}

// ==========================
// Delivery Tests
// ==========================

func TestNotify_HighScoreSendsEmailAndSMS(t *testing.T) {
	sesMock, snsMock := okSES(), okSNS()
	n, mock := setupNotifier(t, createTestConfig(), sesMock, snsMock)
	expectContact(mock, "user@example.com", "+12065550100")

	out, err := n.Notify(context.Background(), createTestInput(95))
	require.NoError(t, err)

	assert.Equal(t, StatusSent, out.Status)
	assert.Equal(t, PriorityHigh, out.Priority)
	assert.Equal(t, 1, sesMock.calls)
	assert.Equal(t, 1, snsMock.calls)
}

func TestNotify_NormalPrioritySkipsSMS(t *testing.T) {
	sesMock, snsMock := okSES(), okSNS()
	n, mock := setupNotifier(t, createTestConfig(), sesMock, snsMock)
	expectContact(mock, "user@example.com", "+12065550100")

	out, err := n.Notify(context.Background(), createTestInput(75))
	require.NoError(t, err)

	assert.Equal(t, StatusSent, out.Status)
	assert.Equal(t, PriorityNormal, out.Priority)
	assert.Equal(t, 1, sesMock.calls)
	assert.Zero(t, snsMock.calls)
}

func TestNotify_BelowThresholdIsError(t *testing.T) {
	n, _ := setupNotifier(t, createTestConfig(), okSES(), okSNS())

	_, err := n.Notify(context.Background(), createTestInput(40))
	assert.Error(t, err)
}

func TestNotify_UnknownRecipientIsDisabled(t *testing.T) {
	sesMock := okSES()
	n, mock := setupNotifier(t, createTestConfig(), sesMock, okSNS())

	mock.ExpectQuery("SELECT email, phone FROM users").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone"}))

	out, err := n.Notify(context.Background(), createTestInput(95))
	require.NoError(t, err)

	assert.Equal(t, StatusDisabled, out.Status)
	assert.Zero(t, sesMock.calls)
}

func TestNotify_EmailFailureReportsFailed(t *testing.T) {
	sesMock := &MockSESService{SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		return nil, errors.New("ses throttled")
	}}
	n, mock := setupNotifier(t, createTestConfig(), sesMock, okSNS())
	expectContact(mock, "user@example.com", "")

	out, err := n.Notify(context.Background(), createTestInput(95))
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, out.Status)
}

func TestNotify_AllChannelsDisabled(t *testing.T) {
	cfg := createTestConfig()
	cfg.EmailEnabled = false
	cfg.SMSEnabled = false

	sesMock, snsMock := okSES(), okSNS()
	n, mock := setupNotifier(t, cfg, sesMock, snsMock)
	expectContact(mock, "user@example.com", "+12065550100")

	out, err := n.Notify(context.Background(), createTestInput(95))
	require.NoError(t, err)

	assert.Equal(t, StatusDisabled, out.Status)
	assert.Zero(t, sesMock.calls)
	assert.Zero(t, snsMock.calls)
}

func TestRenderAlert(t *testing.T) {
	subject, body := renderAlert(createTestInput(88))

	assert.Contains(t, subject, "quiet 2-bed")
	assert.Contains(t, subject, "Sunny two bedroom")
	assert.Contains(t, body, "scored 88/100")
	assert.Contains(t, body, "$1750/mo")
	assert.Contains(t, body, "Ballard, Seattle")
}
