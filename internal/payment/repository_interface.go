package payment

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists payment requests. The Mark* updates are conditional on
// the current status and report whether a row actually changed, so a late or
// duplicated callback can never move a request out of completed.
type Repository interface {
	Create(ctx context.Context, p *PaymentRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*PaymentRequest, error)
	ListByUser(ctx context.Context, userID int, limit int) ([]PaymentRequest, error)
	MergeMetadata(ctx context.Context, id uuid.UUID, md Metadata) error
	MarkConfirming(ctx context.Context, id uuid.UUID, txID string, confirmations int) (bool, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, txID string, confirmations int) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, md Metadata) (bool, error)
}
