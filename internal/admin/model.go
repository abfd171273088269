package admin

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionLockUser      Action = "lock_user"
	ActionUnlockUser    Action = "unlock_user"
	ActionEditUser      Action = "edit_user"
	ActionDeleteUser    Action = "delete_user"
	ActionAssignPackage Action = "assign_package"
	ActionCredit        Action = "credit"
	ActionDebit         Action = "debit"
)

// Details is the jsonb snapshot stored with each audit entry.
type Details map[string]any

func (d Details) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

func (d *Details) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*d = Details{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("audit details: unsupported type %T", src)
	}
	out := Details{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*d = out
	return nil
}

// AuditEntry is append-only. Nothing updates or deletes these rows.
type AuditEntry struct {
	ID           uuid.UUID `db:"id" json:"id"`
	AdminUserID  int       `db:"admin_user_id" json:"admin_user_id"`
	Action       Action    `db:"action" json:"action"`
	TargetUserID int       `db:"target_user_id" json:"target_user_id"`
	Details      Details   `db:"details" json:"details"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type AdjustWalletRequest struct {
	Action      string  `json:"action" binding:"required,oneof=credit debit"`
	Amount      float64 `json:"amount" binding:"required"`
	Description string  `json:"description" binding:"max=255"`
}

type AssignPackageRequest struct {
	PackageID string `json:"package_id" binding:"required,uuid"`
}
