package payment

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirming Status = "confirming"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Metadata is the free-form jsonb column on payment_requests. It holds the
// processor's deposit address and any failure detail.
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("payment metadata: unsupported type %T", src)
	}
	out := Metadata{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

type PaymentRequest struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	UserID        int        `db:"user_id" json:"user_id"`
	Coin          string     `db:"coin" json:"coin"`
	AmountFiat    float64    `db:"amount_fiat" json:"amount_fiat"`
	CreditsToAdd  int64      `db:"credits_to_add" json:"credits_to_add"`
	Status        Status     `db:"status" json:"status"`
	TxID          *string    `db:"txid" json:"txid,omitempty"`
	Confirmations int        `db:"confirmations" json:"confirmations"`
	Metadata      Metadata   `db:"metadata" json:"metadata"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
	CompletedAt   *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// Callback is one delivery from the crypto processor, decoded from the
// webhook query string.
type Callback struct {
	PaymentID     string
	Secret        string
	TxID          string
	Confirmations int
	Pending       bool
}

type CreateTopUpRequest struct {
	Coin       string  `json:"coin" binding:"required,alphanum,min=2,max=16"`
	AmountFiat float64 `json:"amount_fiat" binding:"required,gt=0"`
}

type TopUpResponse struct {
	Payment *PaymentRequest `json:"payment"`
	Address string          `json:"address"`
}
