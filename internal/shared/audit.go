package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditEntry represents a record stored in security_audit.
type AuditEntry struct {
	ActorID string
	Action  string
	Target  string
	Origin  string
	Meta    map[string]any
	At      time.Time
}

// AuditTrail persists security-relevant actions (logins, resets,
// moderation) so operators can reconstruct what happened after the fact.
type AuditTrail struct {
	pool *pgxpool.Pool
}

// NewAuditTrail returns a new AuditTrail.
func NewAuditTrail(pool *pgxpool.Pool) *AuditTrail {
	return &AuditTrail{pool: pool}
}

// Record persists the entry. A nil trail is a no-op so callers do not
// have to branch in tests.
func (t *AuditTrail) Record(ctx context.Context, entry AuditEntry) error {
	if t == nil || t.pool == nil {
		return nil
	}
	if entry.Action == "" {
		return errors.New("audit entry requires an action")
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	metaJSON, err := json.Marshal(entry.Meta)
	if err != nil {
		return err
	}
	_, err = t.pool.Exec(ctx, `INSERT INTO security_audit (actor_id, action, target, origin, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, $6)`, entry.ActorID, entry.Action, entry.Target, entry.Origin, metaJSON, entry.At)
	return err
}
