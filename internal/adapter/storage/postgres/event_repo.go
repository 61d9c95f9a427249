package postgres

import (
	"context"
	"fmt"
	"strings"

	"invite-escrow-ledger/internal/core/domain"
	"invite-escrow-ledger/internal/core/ports"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
)

// EventRepo implements ports.EscrowEventRepository over the escrow_events
// journal table. Amounts are stored as NUMERIC(78,0) so full 256-bit values
// survive the round trip; addresses are stored in their checksummed hex form.
type EventRepo struct {
	pool Pool
}

// NewEventRepo creates a new EventRepo.
func NewEventRepo(pool Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

// EnsureSchema creates the journal table if it does not exist yet.
func (r *EventRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS escrow_events (
		id UUID PRIMARY KEY,
		kind TEXT NOT NULL,
		inviter TEXT NOT NULL,
		invitee TEXT NOT NULL,
		amount NUMERIC(78,0) NOT NULL,
		day BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create escrow_events table: %w", err)
	}
	return nil
}

// Append inserts one event within a caller-owned database transaction.
func (r *EventRepo) Append(ctx context.Context, tx pgx.Tx, event *domain.EscrowEvent) error {
	query := `INSERT INTO escrow_events (id, kind, inviter, invitee, amount, day, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		event.ID, string(event.Kind), event.Inviter.Hex(), event.Invitee.Hex(),
		event.Amount.String(), int64(event.Day), event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert escrow event: %w", err)
	}
	return nil
}

// List fetches journal events with filtering and pagination, newest first.
func (r *EventRepo) List(ctx context.Context, params ports.EventListParams) ([]domain.EscrowEvent, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.Party != nil {
		conditions = append(conditions, fmt.Sprintf("(inviter = $%d OR invitee = $%d)", argIdx, argIdx))
		args = append(args, params.Party.Hex())
		argIdx++
	}
	if params.Kind != nil {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", argIdx))
		args = append(args, string(*params.Kind))
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM escrow_events %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count escrow events: %w", err)
	}

	// Fetch page
	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT id, kind, inviter, invitee, amount::text, day, created_at
		FROM escrow_events %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list escrow events: %w", err)
	}
	defer rows.Close()

	var events []domain.EscrowEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate escrow event rows: %w", err)
	}
	return events, total, nil
}

// GetStats retrieves aggregated journal counts.
func (r *EventRepo) GetStats(ctx context.Context) (*ports.EventStats, error) {
	query := `SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE kind = 'ESCROW_CREATED') AS created,
		COUNT(*) FILTER (WHERE kind = 'ESCROW_REDEEMED') AS redeemed,
		COUNT(*) FILTER (WHERE kind = 'ESCROW_REFUNDED') AS refunded,
		COUNT(*) FILTER (WHERE kind = 'ESCROW_REVOKED') AS revoked
		FROM escrow_events`

	stats := &ports.EventStats{}
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.TotalEvents, &stats.Created, &stats.Redeemed, &stats.Refunded, &stats.Revoked,
	)
	if err != nil {
		return nil, fmt.Errorf("get escrow event stats: %w", err)
	}
	return stats, nil
}

// scanEvent scans one journal row back into the domain shape.
func scanEvent(row pgx.Row) (domain.EscrowEvent, error) {
	var (
		ev               domain.EscrowEvent
		kind             string
		inviter, invitee string
		amount           string
		day              int64
	)
	if err := row.Scan(&ev.ID, &kind, &inviter, &invitee, &amount, &day, &ev.CreatedAt); err != nil {
		return ev, fmt.Errorf("scan escrow event: %w", err)
	}
	amt, ok := sdkmath.NewIntFromString(amount)
	if !ok {
		return ev, fmt.Errorf("stored amount %q is not an integer", amount)
	}
	ev.Kind = domain.EscrowEventKind(kind)
	ev.Inviter = common.HexToAddress(inviter)
	ev.Invitee = common.HexToAddress(invitee)
	ev.Amount = amt
	ev.Day = uint64(day)
	return ev, nil
}
