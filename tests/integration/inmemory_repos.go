package integration

import (
	"context"
	"fmt"
	"sync"

	"invite-escrow-ledger/internal/core/domain"
	"invite-escrow-ledger/internal/core/ports"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Identity Oracle ---

type fakeIdentityOracle struct {
	mu        sync.RWMutex
	eligible  map[common.Address]bool
	onboarded map[common.Address]bool
	trust     map[common.Address]map[common.Address]bool
}

func newFakeIdentityOracle() *fakeIdentityOracle {
	return &fakeIdentityOracle{
		eligible:  make(map[common.Address]bool),
		onboarded: make(map[common.Address]bool),
		trust:     make(map[common.Address]map[common.Address]bool),
	}
}

func (o *fakeIdentityOracle) addPrincipal(addr common.Address) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.eligible[addr] = true
}

func (o *fakeIdentityOracle) setTrust(truster, trustee common.Address, trusted bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.trust[truster] == nil {
		o.trust[truster] = make(map[common.Address]bool)
	}
	o.trust[truster][trustee] = trusted
}

func (o *fakeIdentityOracle) IsEligiblePrincipal(ctx context.Context, addr common.Address) (bool, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.eligible[addr], nil
}

func (o *fakeIdentityOracle) IsOnboarded(ctx context.Context, addr common.Address) (bool, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.onboarded[addr], nil
}

func (o *fakeIdentityOracle) Trusts(ctx context.Context, truster, trustee common.Address) (bool, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.trust[truster][trustee], nil
}

// --- In-Memory Value Mover ---

type recordedTransfer struct {
	To     common.Address
	Amount sdkmath.Int
	Mode   string // "original" or "convert"
}

type fakeValueMover struct {
	mu           sync.Mutex
	transfers    []recordedTransfer
	failOriginal bool
	failConvert  bool
}

func newFakeValueMover() *fakeValueMover {
	return &fakeValueMover{}
}

func (m *fakeValueMover) TransferOriginal(ctx context.Context, to common.Address, amount sdkmath.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOriginal {
		return fmt.Errorf("mover unavailable")
	}
	m.transfers = append(m.transfers, recordedTransfer{To: to, Amount: amount, Mode: "original"})
	return nil
}

func (m *fakeValueMover) ConvertAndTransfer(ctx context.Context, to common.Address, amount sdkmath.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failConvert {
		return fmt.Errorf("mover unavailable")
	}
	m.transfers = append(m.transfers, recordedTransfer{To: to, Amount: amount, Mode: "convert"})
	return nil
}

func (m *fakeValueMover) recorded() []recordedTransfer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]recordedTransfer, len(m.transfers))
	copy(out, m.transfers)
	return out
}

// --- In-Memory Event Repo ---

type inMemoryEventRepo struct {
	mu     sync.RWMutex
	events []domain.EscrowEvent
}

func newInMemoryEventRepo() *inMemoryEventRepo {
	return &inMemoryEventRepo{}
}

func (r *inMemoryEventRepo) Append(ctx context.Context, tx pgx.Tx, event *domain.EscrowEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *inMemoryEventRepo) List(ctx context.Context, params ports.EventListParams) ([]domain.EscrowEvent, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var filtered []domain.EscrowEvent
	// newest first, matching the SQL repo's ordering
	for i := len(r.events) - 1; i >= 0; i-- {
		ev := r.events[i]
		if params.Party != nil && ev.Inviter != *params.Party && ev.Invitee != *params.Party {
			continue
		}
		if params.Kind != nil && ev.Kind != *params.Kind {
			continue
		}
		filtered = append(filtered, ev)
	}
	total := int64(len(filtered))

	start := (params.Page - 1) * params.PageSize
	if start >= len(filtered) {
		return []domain.EscrowEvent{}, total, nil
	}
	end := start + params.PageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], total, nil
}

func (r *inMemoryEventRepo) GetStats(ctx context.Context) (*ports.EventStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &ports.EventStats{}
	for _, ev := range r.events {
		stats.TotalEvents++
		switch ev.Kind {
		case domain.EventEscrowCreated:
			stats.Created++
		case domain.EventEscrowRedeemed:
			stats.Redeemed++
		case domain.EventEscrowRefunded:
			stats.Refunded++
		case domain.EventEscrowRevoked:
			stats.Revoked++
		}
	}
	return stats, nil
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
