package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"invite-escrow-ledger/internal/core/domain"
	"invite-escrow-ledger/internal/core/ports"
	"invite-escrow-ledger/pkg/apperror"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// EscrowServiceImpl implements ports.EscrowService. It keeps the live ledger
// state in memory and journals every settlement to Postgres after the fact.
//
// Mutating operations are serialized by a non-blocking ReentrancyGate taken
// before the state mutex: a collaborator (oracle or mover) that calls back
// into the ledger mid-operation fails with ESC_010 instead of deadlocking on
// the mutex. Collaborator calls are always made outside the locked section.
type EscrowServiceImpl struct {
	oracle     ports.IdentityOracle
	mover      ports.ValueMover
	clock      ports.DayClock
	decay      ports.DecayFunction
	eventRepo  ports.EscrowEventRepository
	transactor ports.DBTransactor
	minAmount  sdkmath.Int
	maxAmount  sdkmath.Int
	log        zerolog.Logger

	gate ReentrancyGate

	mu        sync.RWMutex
	escrows   map[domain.Pair]domain.EscrowRecord
	byInvitee *domain.RelationIndex // owner = invitee, values = inviters
	byInviter *domain.RelationIndex // owner = inviter, values = invitees
}

// NewEscrowService creates a new EscrowServiceImpl with an empty ledger.
func NewEscrowService(
	oracle ports.IdentityOracle,
	mover ports.ValueMover,
	clock ports.DayClock,
	decay ports.DecayFunction,
	eventRepo ports.EscrowEventRepository,
	transactor ports.DBTransactor,
	minAmount, maxAmount sdkmath.Int,
	log zerolog.Logger,
) *EscrowServiceImpl {
	return &EscrowServiceImpl{
		oracle:     oracle,
		mover:      mover,
		clock:      clock,
		decay:      decay,
		eventRepo:  eventRepo,
		transactor: transactor,
		minAmount:  minAmount,
		maxAmount:  maxAmount,
		log:        log,
		escrows:    make(map[domain.Pair]domain.EscrowRecord),
		byInvitee:  domain.NewRelationIndex(),
		byInviter:  domain.NewRelationIndex(),
	}
}

// settlementEntry is one destroyed escrow captured before its transfer, with
// enough state to reinsert the record if settlement cannot complete.
type settlementEntry struct {
	pair    domain.Pair
	record  domain.EscrowRecord
	settled sdkmath.Int
}

// Create locks a deposited amount into a new escrow for the (inviter,
// invitee) pair named by the hook notification.
func (s *EscrowServiceImpl) Create(ctx context.Context, req ports.CreateEscrowRequest) (*domain.EscrowEvent, error) {
	if !s.gate.Enter() {
		return nil, apperror.ErrReentrantCall()
	}
	defer s.gate.Exit()

	// Precondition order is observable when several fail at once: eligibility,
	// authorization, amount, onboarding, counterpart validity, duplicate pair,
	// and trust last.
	inviter := req.AssetOwner
	eligible, err := s.oracle.IsEligiblePrincipal(ctx, inviter)
	if err != nil {
		return nil, apperror.ErrOracleFailure(fmt.Errorf("eligibility check: %w", err))
	}
	if !eligible {
		return nil, apperror.ErrIneligiblePrincipal()
	}
	if req.Operator != inviter || req.Source != inviter {
		return nil, apperror.ErrOperatorMismatch()
	}
	if req.Amount.LT(s.minAmount) || req.Amount.GT(s.maxAmount) {
		return nil, apperror.ErrAmountOutOfRange(req.Amount.String(), s.minAmount.String(), s.maxAmount.String())
	}

	onboarded, err := s.oracle.IsOnboarded(ctx, req.Invitee)
	if err != nil {
		return nil, apperror.ErrOracleFailure(fmt.Errorf("onboarding check: %w", err))
	}
	if onboarded {
		return nil, apperror.ErrCounterpartAlreadyOnboarded()
	}
	if req.Invitee == (common.Address{}) || req.Invitee == domain.Sentinel || req.Invitee == inviter {
		return nil, apperror.ErrInvalidCounterpart()
	}

	today := s.clock.Today()
	pair := domain.Pair{Inviter: inviter, Invitee: req.Invitee}

	s.mu.RLock()
	rec, exists := s.escrows[pair]
	s.mu.RUnlock()
	if exists && s.projectedAt(rec, today).IsPositive() {
		return nil, apperror.ErrDuplicateRelationship()
	}

	trusts, err := s.oracle.Trusts(ctx, inviter, req.Invitee)
	if err != nil {
		return nil, apperror.ErrOracleFailure(fmt.Errorf("trust check: %w", err))
	}
	if !trusts {
		return nil, apperror.ErrTrustMissingOrExpired()
	}

	// The gate serializes mutations, so the duplicate check above still holds.
	s.mu.Lock()
	if exists {
		// Fully decayed leftover: purge it so the pair can be reused.
		s.destroyLocked(pair)
	}
	s.escrows[pair] = domain.EscrowRecord{
		FaceValue:      req.Amount,
		LastUpdatedDay: today,
		CreatedAt:      time.Now().UTC(),
	}
	s.byInvitee.Insert(req.Invitee, inviter)
	s.byInviter.Insert(inviter, req.Invitee)
	s.mu.Unlock()

	ev := domain.NewEscrowEvent(domain.EventEscrowCreated, inviter, req.Invitee, req.Amount, today)
	s.journal(ctx, ev)

	s.log.Info().
		Str("inviter", inviter.Hex()).
		Str("invitee", req.Invitee.Hex()).
		Str("amount", req.Amount.String()).
		Uint64("day", today).
		Msg("escrow created")

	return ev, nil
}

// Redeem settles every escrow held for the invitee: the chosen inviter is
// paid the projected value in the original asset, every other inviter is
// refunded theirs in the decaying form. All records for the invitee are
// destroyed before any value moves.
func (s *EscrowServiceImpl) Redeem(ctx context.Context, req ports.RedeemRequest) (*ports.RedeemResult, error) {
	if !s.gate.Enter() {
		return nil, apperror.ErrReentrantCall()
	}
	defer s.gate.Exit()

	today := s.clock.Today()
	chosenPair := domain.Pair{Inviter: req.ChosenInviter, Invitee: req.Invitee}

	s.mu.RLock()
	chosenRec, ok := s.escrows[chosenPair]
	s.mu.RUnlock()
	if !ok || !s.projectedAt(chosenRec, today).IsPositive() {
		return nil, apperror.ErrNoSuchRelationship()
	}

	// Trust is re-verified at redemption time, before anything is destroyed.
	trusts, err := s.oracle.Trusts(ctx, req.ChosenInviter, req.Invitee)
	if err != nil {
		return nil, apperror.ErrOracleFailure(fmt.Errorf("trust check: %w", err))
	}
	if !trusts {
		return nil, apperror.ErrTrustMissingOrExpired()
	}

	// The gate guarantees no other mutation ran since the check above, so
	// the plan built here is built against the same state.
	s.mu.Lock()
	var plan []settlementEntry // enumeration order, for faithful restore
	chosenIdx := -1
	for _, inviter := range s.byInvitee.Enumerate(req.Invitee) {
		pair := domain.Pair{Inviter: inviter, Invitee: req.Invitee}
		rec := s.escrows[pair]
		if inviter == req.ChosenInviter {
			chosenIdx = len(plan)
		}
		plan = append(plan, settlementEntry{pair: pair, record: rec, settled: s.projectedAt(rec, today)})
	}
	for _, e := range plan {
		s.destroyLocked(e.pair)
	}
	s.mu.Unlock()

	chosen := plan[chosenIdx]
	others := make([]settlementEntry, 0, len(plan)-1)
	others = append(others, plan[:chosenIdx]...)
	others = append(others, plan[chosenIdx+1:]...)

	// The chosen inviter gets the original asset back; the rest are refunded
	// in the decaying representation. Entries that decayed to zero are
	// destroyed without a transfer.
	if err := s.mover.TransferOriginal(ctx, req.ChosenInviter, chosen.settled); err != nil {
		s.restore(plan)
		return nil, apperror.ErrTransferFailure(fmt.Errorf("redeem payout: %w", err))
	}
	for i, e := range others {
		if e.settled.IsZero() {
			continue
		}
		if err := s.mover.ConvertAndTransfer(ctx, e.pair.Inviter, e.settled); err != nil {
			// Escrows already paid out stay destroyed; the rest come back.
			s.restore(others[i:])
			result := s.redeemResult(chosen, others[:i], today)
			s.journalRedeem(ctx, result)
			return nil, apperror.ErrTransferFailure(fmt.Errorf("refund to %s: %w", e.pair.Inviter.Hex(), err))
		}
	}

	result := s.redeemResult(chosen, others, today)
	s.journalRedeem(ctx, result)

	s.log.Info().
		Str("invitee", req.Invitee.Hex()).
		Str("chosen_inviter", req.ChosenInviter.Hex()).
		Str("redeemed", chosen.settled.String()).
		Int("refunds", len(others)).
		Msg("escrows redeemed")

	return result, nil
}

// RevokeOne withdraws a single escrow back to its inviter at the projected
// current value.
func (s *EscrowServiceImpl) RevokeOne(ctx context.Context, req ports.RevokeRequest) (*domain.EscrowEvent, error) {
	if !s.gate.Enter() {
		return nil, apperror.ErrReentrantCall()
	}
	defer s.gate.Exit()

	today := s.clock.Today()
	pair := domain.Pair{Inviter: req.Inviter, Invitee: req.Invitee}

	s.mu.Lock()
	rec, ok := s.escrows[pair]
	if !ok {
		s.mu.Unlock()
		return nil, apperror.ErrNoSuchRelationship()
	}
	settled := s.projectedAt(rec, today)
	if !settled.IsPositive() {
		s.mu.Unlock()
		return nil, apperror.ErrNoSuchRelationship()
	}
	s.destroyLocked(pair)
	s.mu.Unlock()

	if err := s.mover.ConvertAndTransfer(ctx, req.Inviter, settled); err != nil {
		s.restore([]settlementEntry{{pair: pair, record: rec, settled: settled}})
		return nil, apperror.ErrTransferFailure(fmt.Errorf("revoke payout: %w", err))
	}

	ev := domain.NewEscrowEvent(domain.EventEscrowRevoked, req.Inviter, req.Invitee, settled, today)
	s.journal(ctx, ev)

	s.log.Info().
		Str("inviter", req.Inviter.Hex()).
		Str("invitee", req.Invitee.Hex()).
		Str("settled", settled.String()).
		Msg("escrow revoked")

	return ev, nil
}

// RevokeAll withdraws every escrow the inviter holds in one batched
// settlement: all records are destroyed, projected values accumulate, and a
// single transfer moves the total. An inviter with no escrows is a no-op.
func (s *EscrowServiceImpl) RevokeAll(ctx context.Context, inviter common.Address) (*ports.RevokeAllResult, error) {
	if !s.gate.Enter() {
		return nil, apperror.ErrReentrantCall()
	}
	defer s.gate.Exit()

	today := s.clock.Today()

	s.mu.Lock()
	var plan []settlementEntry
	total := sdkmath.ZeroInt()
	for _, invitee := range s.byInviter.Enumerate(inviter) {
		pair := domain.Pair{Inviter: inviter, Invitee: invitee}
		rec := s.escrows[pair]
		settled := s.projectedAt(rec, today)
		plan = append(plan, settlementEntry{pair: pair, record: rec, settled: settled})
		total = total.Add(settled)
	}
	for _, e := range plan {
		s.destroyLocked(e.pair)
	}
	s.mu.Unlock()

	if len(plan) == 0 {
		return &ports.RevokeAllResult{Total: total}, nil
	}

	if total.IsPositive() {
		if err := s.mover.ConvertAndTransfer(ctx, inviter, total); err != nil {
			s.restore(plan)
			return nil, apperror.ErrTransferFailure(fmt.Errorf("bulk revoke payout: %w", err))
		}
	}

	// Fully decayed entries are purged without a notification: a balance that
	// reached zero is already treated as non-existent everywhere else.
	result := &ports.RevokeAllResult{Total: total}
	for _, e := range plan {
		if e.settled.IsZero() {
			continue
		}
		result.Revoked = append(result.Revoked,
			domain.NewEscrowEvent(domain.EventEscrowRevoked, e.pair.Inviter, e.pair.Invitee, e.settled, today))
	}
	s.journal(ctx, result.Revoked...)

	s.log.Info().
		Str("inviter", inviter.Hex()).
		Int("count", len(result.Revoked)).
		Str("total", total.String()).
		Msg("all escrows revoked")

	return result, nil
}

// ListInviters returns the inviters currently holding a live escrow for the
// invitee, newest relationship first. Fully decayed leftovers are hidden.
func (s *EscrowServiceImpl) ListInviters(ctx context.Context, invitee common.Address) ([]common.Address, error) {
	today := s.clock.Today()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []common.Address
	for _, inviter := range s.byInvitee.Enumerate(invitee) {
		rec := s.escrows[domain.Pair{Inviter: inviter, Invitee: invitee}]
		if s.projectedAt(rec, today).IsPositive() {
			out = append(out, inviter)
		}
	}
	return out, nil
}

// ListInvitees returns the invitees the inviter currently holds a live
// escrow for, newest relationship first.
func (s *EscrowServiceImpl) ListInvitees(ctx context.Context, inviter common.Address) ([]common.Address, error) {
	today := s.clock.Today()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []common.Address
	for _, invitee := range s.byInviter.Enumerate(inviter) {
		rec := s.escrows[domain.Pair{Inviter: inviter, Invitee: invitee}]
		if s.projectedAt(rec, today).IsPositive() {
			out = append(out, invitee)
		}
	}
	return out, nil
}

// CurrentBalance returns the projected value of one escrow. A record that
// decayed to zero is reported as absent, matching what the mutating
// operations would do with it.
func (s *EscrowServiceImpl) CurrentBalance(ctx context.Context, inviter, invitee common.Address) (*ports.BalanceInfo, error) {
	today := s.clock.Today()

	s.mu.RLock()
	rec, ok := s.escrows[domain.Pair{Inviter: inviter, Invitee: invitee}]
	s.mu.RUnlock()
	if !ok {
		return nil, apperror.ErrNoSuchRelationship()
	}

	settled := s.projectedAt(rec, today)
	if !settled.IsPositive() {
		return nil, apperror.ErrNoSuchRelationship()
	}
	elapsed := uint64(0)
	if today > rec.LastUpdatedDay {
		elapsed = today - rec.LastUpdatedDay
	}
	return &ports.BalanceInfo{Amount: settled, DaysElapsed: elapsed}, nil
}

// projectedAt computes the current value of a record on the given day.
func (s *EscrowServiceImpl) projectedAt(rec domain.EscrowRecord, today uint64) sdkmath.Int {
	elapsed := uint64(0)
	if today > rec.LastUpdatedDay {
		elapsed = today - rec.LastUpdatedDay
	}
	return s.decay.Project(rec.FaceValue, elapsed)
}

// destroyLocked removes a record and both of its index links. Caller holds mu.
func (s *EscrowServiceImpl) destroyLocked(pair domain.Pair) {
	delete(s.escrows, pair)
	s.byInvitee.Remove(pair.Invitee, pair.Inviter)
	s.byInviter.Remove(pair.Inviter, pair.Invitee)
}

// restore reinserts destroyed records after a failed settlement. Entries are
// replayed in reverse so head insertion reproduces the original list order.
func (s *EscrowServiceImpl) restore(entries []settlementEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		s.escrows[e.pair] = e.record
		s.byInvitee.Insert(e.pair.Invitee, e.pair.Inviter)
		s.byInviter.Insert(e.pair.Inviter, e.pair.Invitee)
	}
}

// redeemResult builds the event set for a (possibly partial) redemption.
func (s *EscrowServiceImpl) redeemResult(chosen settlementEntry, refunded []settlementEntry, today uint64) *ports.RedeemResult {
	result := &ports.RedeemResult{
		Redeemed: domain.NewEscrowEvent(domain.EventEscrowRedeemed,
			chosen.pair.Inviter, chosen.pair.Invitee, chosen.settled, today),
	}
	for _, e := range refunded {
		result.Refunded = append(result.Refunded,
			domain.NewEscrowEvent(domain.EventEscrowRefunded, e.pair.Inviter, e.pair.Invitee, e.settled, today))
	}
	return result
}

// journalRedeem journals a redemption's events as one batch.
func (s *EscrowServiceImpl) journalRedeem(ctx context.Context, result *ports.RedeemResult) {
	events := append([]*domain.EscrowEvent{result.Redeemed}, result.Refunded...)
	s.journal(ctx, events...)
}

// journal persists events in one database transaction. The journal is an
// audit trail, not the source of truth, so persistence failures are logged
// and swallowed rather than failing the already-settled operation.
func (s *EscrowServiceImpl) journal(ctx context.Context, events ...*domain.EscrowEvent) {
	if len(events) == 0 {
		return
	}
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("journal: begin tx failed, events dropped")
		return
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	for _, ev := range events {
		if err := s.eventRepo.Append(ctx, dbTx, ev); err != nil {
			s.log.Warn().Err(err).Str("event_id", ev.ID.String()).Msg("journal: append failed, batch dropped")
			return
		}
	}
	if err := dbTx.Commit(ctx); err != nil {
		s.log.Warn().Err(err).Msg("journal: commit failed, batch dropped")
	}
}
