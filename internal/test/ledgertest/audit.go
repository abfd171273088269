package ledgertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"overlaykit/internal/admin"

	"github.com/google/uuid"
)

type Audit struct {
	mu      sync.Mutex
	entries []admin.AuditEntry

	// Fail makes Append return this error.
	Fail error
}

var _ admin.AuditRepository = (*Audit)(nil)

func NewAudit() *Audit {
	return &Audit{}
}

// Entries returns a copy of the log in write order.
func (s *Audit) Entries() []admin.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]admin.AuditEntry(nil), s.entries...)
}

func (s *Audit) Append(ctx context.Context, e *admin.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail != nil {
		return s.Fail
	}
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	s.entries = append(s.entries, *e)
	return nil
}

func (s *Audit) List(ctx context.Context, targetUserID int, limit, offset int) ([]admin.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []admin.AuditEntry{}
	for _, e := range s.entries {
		if targetUserID == 0 || e.TargetUserID == targetUserID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []admin.AuditEntry{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
