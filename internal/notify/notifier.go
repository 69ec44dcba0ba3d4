// Package notify sends intervention alerts for top-priority at-risk
// customers after a batch run.
package notify

import (
	"context"
	"fmt"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"

	"retention-engine/internal/common/config"
	stderrors "retention-engine/internal/common/errors"
	"retention-engine/internal/common/logger"
	"retention-engine/internal/common/metrics"
	"retention-engine/internal/models"
)

// SESService is the subset of the SES client used here, extracted so tests
// can substitute a mock.
type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SNSService is the subset of the SNS client used here.
type SNSService interface {
	Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Notifier fans a batch's VIP and high-value at-risk customers out to the
// configured channels.
type Notifier struct {
	cfg config.NotificationConfig
	ses SESService
	sns SNSService
	log logger.Logger
}

// New creates a Notifier. Either client may be nil when its channel is
// disabled.
func New(cfg config.NotificationConfig, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{cfg: cfg, ses: sesClient, sns: snsClient, log: log}
}

// alertWorthy reports whether a scored customer crosses the alerting bar.
// Only the two value-aware priorities alert; pure risk priorities are left to
// the regular retention queue.
func alertWorthy(c models.ScoredCustomer) bool {
	return c.InterventionPriority == models.PriorityVIPAtRisk ||
		c.InterventionPriority == models.PriorityHighValueAtRisk
}

// AlertBatch sends one digest per enabled channel covering every
// alert-worthy customer in the batch. A batch with none is a no-op.
func (n *Notifier) AlertBatch(ctx context.Context, runID string, customers []models.ScoredCustomer) error {
	var flagged []models.ScoredCustomer
	for _, c := range customers {
		if alertWorthy(c) {
			flagged = append(flagged, c)
		}
	}
	if len(flagged) == 0 {
		n.log.Debug("No alert-worthy customers in batch", map[string]interface{}{"runId": runID})
		return nil
	}

	notificationID := uuid.New().String()
	log := n.log.WithFields(map[string]interface{}{
		"notificationId": notificationID,
		"runId":          runID,
		"flagged":        len(flagged),
	})

	if n.cfg.Email.Enabled {
		if err := n.sendEmail(ctx, notificationID, flagged); err != nil {
			log.WithError(err).Error("Email alert failed", nil)
			return err
		}
		metrics.AlertsSent.WithLabelValues("email").Inc()
		log.Info("Email alert sent", nil)
	}

	if n.cfg.SMS.Enabled {
		if err := n.sendSMS(ctx, notificationID, flagged); err != nil {
			log.WithError(err).Error("SMS alert failed", nil)
			return err
		}
		metrics.AlertsSent.WithLabelValues("sms").Inc()
		log.Info("SMS alert sent", nil)
	}

	return nil
}

func (n *Notifier) sendEmail(ctx context.Context, notificationID string, flagged []models.ScoredCustomer) error {
	if n.ses == nil {
		return stderrors.NewNotificationSendFailedError("email", fmt.Errorf("ses client not configured"))
	}

	subject := fmt.Sprintf("[Retention] %d at-risk high-value customers need intervention", len(flagged))
	body := emailBody(notificationID, flagged)

	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source: awssdk.String(n.cfg.Email.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{n.cfg.Email.ToEmail},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: awssdk.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: awssdk.String(body)},
			},
		},
	})
	if err != nil {
		return stderrors.NewNotificationSendFailedError("email", err)
	}
	return nil
}

func (n *Notifier) sendSMS(ctx context.Context, notificationID string, flagged []models.ScoredCustomer) error {
	if n.sns == nil {
		return stderrors.NewNotificationSendFailedError("sms", fmt.Errorf("sns client not configured"))
	}

	vip := 0
	for _, c := range flagged {
		if c.InterventionPriority == models.PriorityVIPAtRisk {
			vip++
		}
	}
	message := fmt.Sprintf("Retention alert %s: %d customers flagged (%d VIP). Check the dashboard.",
		notificationID[:8], len(flagged), vip)

	_, err := n.sns.Publish(ctx, &sns.PublishInput{
		PhoneNumber: awssdk.String(n.cfg.SMS.ToPhone),
		Message:     awssdk.String(message),
	})
	if err != nil {
		return stderrors.NewNotificationSendFailedError("sms", err)
	}
	return nil
}

func emailBody(notificationID string, flagged []models.ScoredCustomer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Notification %s\n\n", notificationID)
	fmt.Fprintf(&b, "The latest scoring run flagged %d customers for immediate intervention:\n\n", len(flagged))
	for _, c := range flagged {
		fmt.Fprintf(&b, "  customer %d: %s (risk %.1f, value %d, %s)\n",
			c.CustomerID, c.InterventionPriority, c.CompositeRiskScore,
			c.CustomerValueScore, c.RiskCategory)
	}
	b.WriteString("\nPriority 1 customers should be contacted within 24 hours.\n")
	return b.String()
}
