package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
	"github.com/boddenberg/smartsave-bfa-go/internal/infra/resilience"
)

const snapshotsTable = "financial_snapshots"

var errTableMissing = fmt.Errorf("%s table not found", snapshotsTable)

// snapshotRow maps the financial_snapshots table columns.
type snapshotRow struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	CapturedAt time.Time       `json:"captured_at"`
	Payload    json.RawMessage `json:"payload"`
}

func (r snapshotRow) toDomain() (*domain.StoredSnapshot, error) {
	out := &domain.StoredSnapshot{ID: r.ID, UserID: r.UserID, CapturedAt: r.CapturedAt}
	if len(r.Payload) > 0 {
		if err := json.Unmarshal(r.Payload, &out.Snapshot); err != nil {
			return nil, fmt.Errorf("decode snapshot payload: %w", err)
		}
	}
	return out, nil
}

// --- Snapshot store (implements port.SnapshotStore) ---

// GetLatestSnapshot returns the most recent snapshot captured for userID.
func (c *Client) GetLatestSnapshot(ctx context.Context, userID string) (*domain.StoredSnapshot, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetLatestSnapshot")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var snapshot *domain.StoredSnapshot

	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("%s?user_id=eq.%s&order=captured_at.desc&limit=1", snapshotsTable, url.QueryEscape(userID))
		body, err := c.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			return resilience.Permanent(&domain.ErrNotFound{Resource: "snapshot", ID: userID})
		}

		var rows []snapshotRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return resilience.Permanent(fmt.Errorf("failed to decode snapshot rows: %w", err))
		}
		if len(rows) == 0 {
			return resilience.Permanent(&domain.ErrNotFound{Resource: "snapshot", ID: userID})
		}

		s, err := rows[0].toDomain()
		if err != nil {
			return resilience.Permanent(err)
		}
		snapshot = s
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return snapshot, nil
}

// SaveSnapshot inserts a new snapshot row and returns what was stored.
func (c *Client) SaveSnapshot(ctx context.Context, s *domain.StoredSnapshot) (*domain.StoredSnapshot, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SaveSnapshot")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", s.UserID),
		attribute.String("snapshot.id", s.ID),
	)

	payload, err := json.Marshal(s.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot payload: %w", err)
	}
	row, err := json.Marshal(snapshotRow{
		ID:         s.ID,
		UserID:     s.UserID,
		CapturedAt: s.CapturedAt.UTC(),
		Payload:    payload,
	})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot row: %w", err)
	}

	var saved *domain.StoredSnapshot

	err = c.execute(ctx, func() error {
		body, err := c.doRequest(ctx, http.MethodPost, snapshotsTable, row)
		if err != nil {
			return err
		}

		var rows []snapshotRow
		if len(body) > 0 {
			if err := json.Unmarshal(body, &rows); err != nil {
				return resilience.Permanent(fmt.Errorf("failed to decode inserted row: %w", err))
			}
		}
		if len(rows) == 0 {
			// Prefer header ignored by the server: echo what we sent
			copied := *s
			saved = &copied
			return nil
		}

		stored, err := rows[0].toDomain()
		if err != nil {
			return resilience.Permanent(err)
		}
		saved = stored
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	c.logger.Info("snapshot stored",
		zap.String("user_id", saved.UserID),
		zap.String("snapshot_id", saved.ID),
	)
	return saved, nil
}

// Ping checks that PostgREST answers for the snapshots table.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Supabase.Ping")
	defer span.End()

	body, err := c.doRequest(ctx, http.MethodGet, snapshotsTable+"?select=id&limit=1", nil)
	if err != nil {
		return resilience.Translate(serviceName, err)
	}
	// doRequest maps 404 and 204 to a nil body; a table that answers has a
	// JSON array.
	if body == nil {
		return &domain.ErrExternalService{Service: serviceName, Err: errTableMissing}
	}
	return nil
}
