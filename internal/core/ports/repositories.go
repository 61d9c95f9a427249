package ports

import (
	"context"

	"invite-escrow-ledger/internal/core/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
)

// EscrowEventRepository persists the journal of ledger notifications.
// Append runs inside a caller-owned transaction so that all events of one
// ledger operation land atomically.
type EscrowEventRepository interface {
	Append(ctx context.Context, tx pgx.Tx, event *domain.EscrowEvent) error
	List(ctx context.Context, params EventListParams) ([]domain.EscrowEvent, int64, error)
	GetStats(ctx context.Context) (*EventStats, error)
}

// EventListParams holds filter + pagination for listing journal events.
type EventListParams struct {
	Party    *common.Address // matches inviter or invitee
	Kind     *domain.EscrowEventKind
	Page     int
	PageSize int
}

// EventStats holds aggregated journal counts for the dashboard.
type EventStats struct {
	TotalEvents int64
	Created     int64
	Redeemed    int64
	Refunded    int64
	Revoked     int64
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
