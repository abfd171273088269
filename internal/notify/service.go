package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/smtp"
	"time"

	"overlaykit/internal/logger"
	"overlaykit/internal/metrics"
	"overlaykit/internal/user"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	QueueKey       = "notifications"
	FailedQueueKey = "notifications:failed"

	maxTries = 3
)

const (
	TypeTopUpCompleted = "topup_completed"
	TypePurchase       = "purchase"
)

// Job is one queued e-mail. It is stored as JSON in the redis list.
type Job struct {
	Type    string    `json:"type"`
	UserID  int       `json:"user_id"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

// UserLookup resolves the recipient of a receipt.
type UserLookup interface {
	GetByID(ctx context.Context, userID int) (*user.User, error)
}

type SMTPConfig struct {
	From     string
	FromName string
	Host     string
	Port     string
	User     string
	Pass     string
}

// Service queues receipts in redis and delivers them over SMTP from a
// single worker loop. Delivery is best effort: the ledger never waits on it.
type Service struct {
	redis      *redis.Client
	users      UserLookup
	smtp       SMTPConfig
	retryDelay time.Duration
	send       func(Job) error
}

func New(rdb *redis.Client, users UserLookup, cfg SMTPConfig) *Service {
	s := &Service{
		redis:      rdb,
		users:      users,
		smtp:       cfg,
		retryDelay: 5 * time.Second,
	}
	s.send = s.sendSMTP
	return s
}

func (s *Service) Enqueue(ctx context.Context, job Job) error {
	if job.Created.IsZero() {
		job.Created = time.Now()
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if err := s.redis.LPush(ctx, QueueKey, string(data)).Err(); err != nil {
		metrics.RecordNotification(job.Type, "enqueue_failed")
		logger.Error("notification not queued", "type", job.Type, "user_id", job.UserID, "error", err)
		return err
	}

	metrics.RecordNotification(job.Type, "queued")
	logger.Info("notification queued", "type", job.Type, "user_id", job.UserID)
	return nil
}

func (s *Service) SendTopUpReceipt(ctx context.Context, userID int, paymentID uuid.UUID, credits, balance int64) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	body := fmt.Sprintf(`Hi %s,

Your top-up has been confirmed.

Payment: %s
Credits added: %d
New balance: %d

- Overlaykit`, u.Name, paymentID, credits, balance)

	return s.Enqueue(ctx, Job{
		Type:    TypeTopUpCompleted,
		UserID:  u.ID,
		To:      u.Email,
		Name:    u.Name,
		Subject: fmt.Sprintf("Top-up confirmed: %d credits", credits),
		Body:    body,
	})
}

func (s *Service) SendPurchaseReceipt(ctx context.Context, userID int, packageName string, expiresAt time.Time, balance int64) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	body := fmt.Sprintf(`Hi %s,

Thanks for your purchase.

Package: %s
Active until: %s
Remaining balance: %d credits

- Overlaykit`, u.Name, packageName, expiresAt.UTC().Format("Jan 2, 2006 15:04 MST"), balance)

	return s.Enqueue(ctx, Job{
		Type:    TypePurchase,
		UserID:  u.ID,
		To:      u.Email,
		Name:    u.Name,
		Subject: "Subscription active - " + packageName,
		Body:    body,
	})
}

// Start runs the delivery loop until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("notification worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("notification worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, QueueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			logger.Warn("notification queue unavailable", "error", err)
			s.sleep(ctx, time.Second)
		}
		return
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Error("bad notification payload", "error", err)
		return
	}

	job.Tries++
	if err := s.send(job); err != nil {
		logger.Error("notification send failed", "type", job.Type, "to", job.To, "attempt", job.Tries, "error", err)

		if job.Tries < maxTries {
			s.sleep(ctx, s.retryDelay)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.WithoutCancel(ctx), QueueKey, string(data))
			metrics.RecordNotification(job.Type, "retry")
			return
		}
		s.saveFailed(ctx, job, err)
		return
	}

	metrics.RecordNotification(job.Type, "sent")
	logger.Info("notification sent", "type", job.Type, "to", job.To)
}

func (s *Service) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (s *Service) sendSMTP(job Job) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.smtp.FromName, s.smtp.From)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.smtp.User != "" && s.smtp.Pass != "" {
		auth = smtp.PlainAuth("", s.smtp.User, s.smtp.Pass, s.smtp.Host)
	}

	return smtp.SendMail(s.smtp.Host+":"+s.smtp.Port, auth, s.smtp.From, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(ctx context.Context, job Job, err error) {
	failed := map[string]any{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.WithoutCancel(ctx), FailedQueueKey, string(data))
	metrics.RecordNotification(job.Type, "failed")
	logger.Error("notification moved to failed queue", "type", job.Type, "to", job.To, "tries", job.Tries)
}

// QueueLength also refreshes the queue length gauge.
func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, QueueKey).Result()
	metrics.NotificationQueueLength.Set(float64(length))
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}
