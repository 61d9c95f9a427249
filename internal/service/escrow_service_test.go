package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"invite-escrow-ledger/internal/core/domain"
	"invite-escrow-ledger/internal/core/ports"
	"invite-escrow-ledger/internal/core/ports/mocks"
	"invite-escrow-ledger/pkg/apperror"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	inviterA = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	inviterB = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	inviterC = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	inviteeX = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	inviteeY = common.HexToAddress("0x00000000000000000000000000000000000000ef")
)

// mockTx implements pgx.Tx for testing
type mockTx struct{ pgx.Tx }

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error   { return nil }

type escrowTestDeps struct {
	svc        *EscrowServiceImpl
	oracle     *mocks.MockIdentityOracle
	mover      *mocks.MockValueMover
	eventRepo  *mocks.MockEscrowEventRepository
	transactor *mocks.MockDBTransactor
	ctrl       *gomock.Controller
	day        *uint64
}

// setupEscrowService wires the engine with a mutable day counter and a real
// halving decay schedule: after one day every balance is worth half its face
// value, which keeps expected settlements easy to read.
func setupEscrowService(t *testing.T) *escrowTestDeps {
	ctrl := gomock.NewController(t)
	day := uint64(0)
	d := &escrowTestDeps{
		oracle:     mocks.NewMockIdentityOracle(ctrl),
		mover:      mocks.NewMockValueMover(ctrl),
		eventRepo:  mocks.NewMockEscrowEventRepository(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		ctrl:       ctrl,
		day:        &day,
	}
	clock := mocks.NewMockDayClock(ctrl)
	clock.EXPECT().Today().DoAndReturn(func() uint64 { return *d.day }).AnyTimes()

	decay, err := NewDemurrageSchedule("0.5", time.Date(2020, 10, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	d.svc = NewEscrowService(
		d.oracle, d.mover, clock, decay, d.eventRepo, d.transactor,
		sdkmath.NewInt(10), sdkmath.NewInt(1000), zerolog.Nop(),
	)
	return d
}

// expectJournal arms the journal path for n appended events.
func (d *escrowTestDeps) expectJournal(n int) {
	tx := &mockTx{}
	d.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	d.eventRepo.EXPECT().Append(gomock.Any(), tx, gomock.Any()).Return(nil).Times(n)
}

// seed installs an escrow record directly, bypassing Create's checks.
func (d *escrowTestDeps) seed(inviter, invitee common.Address, face int64, day uint64) {
	pair := domain.Pair{Inviter: inviter, Invitee: invitee}
	d.svc.escrows[pair] = domain.EscrowRecord{
		FaceValue:      sdkmath.NewInt(face),
		LastUpdatedDay: day,
		CreatedAt:      time.Now().UTC(),
	}
	d.svc.byInvitee.Insert(invitee, inviter)
	d.svc.byInviter.Insert(inviter, invitee)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func createReq(inviter, invitee common.Address, amount int64) ports.CreateEscrowRequest {
	return ports.CreateEscrowRequest{
		Operator:   inviter,
		Source:     inviter,
		AssetOwner: inviter,
		Invitee:    invitee,
		Amount:     sdkmath.NewInt(amount),
	}
}

// ==================== Create Tests ====================

func TestEscrowService_Create_Success(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()
	*d.day = 5

	d.oracle.EXPECT().IsEligiblePrincipal(ctx, inviterA).Return(true, nil)
	d.oracle.EXPECT().IsOnboarded(ctx, inviteeX).Return(false, nil)
	d.oracle.EXPECT().Trusts(ctx, inviterA, inviteeX).Return(true, nil)
	d.expectJournal(1)

	ev, err := d.svc.Create(ctx, createReq(inviterA, inviteeX, 100))
	require.NoError(t, err)
	assert.Equal(t, domain.EventEscrowCreated, ev.Kind)
	assert.Equal(t, inviterA, ev.Inviter)
	assert.Equal(t, inviteeX, ev.Invitee)
	assert.Equal(t, sdkmath.NewInt(100), ev.Amount)
	assert.Equal(t, uint64(5), ev.Day)

	bal, err := d.svc.CurrentBalance(ctx, inviterA, inviteeX)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(100), bal.Amount)
	assert.Equal(t, uint64(0), bal.DaysElapsed)

	inviters, err := d.svc.ListInviters(ctx, inviteeX)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{inviterA}, inviters)

	invitees, err := d.svc.ListInvitees(ctx, inviterA)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{inviteeX}, invitees)
}

func TestEscrowService_Create_OperatorMismatch(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.oracle.EXPECT().IsEligiblePrincipal(ctx, inviterA).Return(true, nil).Times(2)

	req := createReq(inviterA, inviteeX, 100)
	req.Operator = inviterB
	_, err := d.svc.Create(ctx, req)
	assertCode(t, err, "ESC_002")

	req = createReq(inviterA, inviteeX, 100)
	req.Source = inviterB
	_, err = d.svc.Create(ctx, req)
	assertCode(t, err, "ESC_002")
}

func TestEscrowService_Create_AmountOutOfRange(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.oracle.EXPECT().IsEligiblePrincipal(ctx, inviterA).Return(true, nil).Times(2)

	_, err := d.svc.Create(ctx, createReq(inviterA, inviteeX, 9))
	assertCode(t, err, "ESC_003")

	_, err = d.svc.Create(ctx, createReq(inviterA, inviteeX, 1001))
	assertCode(t, err, "ESC_003")
}

func TestEscrowService_Create_InvalidCounterpart(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.oracle.EXPECT().IsEligiblePrincipal(ctx, inviterA).Return(true, nil).Times(3)
	d.oracle.EXPECT().IsOnboarded(ctx, gomock.Any()).Return(false, nil).Times(3)

	_, err := d.svc.Create(ctx, createReq(inviterA, common.Address{}, 100))
	assertCode(t, err, "ESC_006")

	_, err = d.svc.Create(ctx, createReq(inviterA, domain.Sentinel, 100))
	assertCode(t, err, "ESC_006")

	_, err = d.svc.Create(ctx, createReq(inviterA, inviterA, 100))
	assertCode(t, err, "ESC_006")
}

func TestEscrowService_Create_OracleRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("ineligible inviter", func(t *testing.T) {
		d := setupEscrowService(t)
		defer d.ctrl.Finish()
		d.oracle.EXPECT().IsEligiblePrincipal(ctx, inviterA).Return(false, nil)

		_, err := d.svc.Create(ctx, createReq(inviterA, inviteeX, 100))
		assertCode(t, err, "ESC_001")
	})

	t.Run("invitee already onboarded", func(t *testing.T) {
		d := setupEscrowService(t)
		defer d.ctrl.Finish()
		d.oracle.EXPECT().IsEligiblePrincipal(ctx, inviterA).Return(true, nil)
		d.oracle.EXPECT().IsOnboarded(ctx, inviteeX).Return(true, nil)

		_, err := d.svc.Create(ctx, createReq(inviterA, inviteeX, 100))
		assertCode(t, err, "ESC_005")
	})

	t.Run("trust missing", func(t *testing.T) {
		d := setupEscrowService(t)
		defer d.ctrl.Finish()
		d.oracle.EXPECT().IsEligiblePrincipal(ctx, inviterA).Return(true, nil)
		d.oracle.EXPECT().IsOnboarded(ctx, inviteeX).Return(false, nil)
		d.oracle.EXPECT().Trusts(ctx, inviterA, inviteeX).Return(false, nil)

		_, err := d.svc.Create(ctx, createReq(inviterA, inviteeX, 100))
		assertCode(t, err, "ESC_009")
	})

	t.Run("oracle unavailable", func(t *testing.T) {
		d := setupEscrowService(t)
		defer d.ctrl.Finish()
		d.oracle.EXPECT().IsEligiblePrincipal(ctx, inviterA).Return(false, errors.New("timeout"))

		_, err := d.svc.Create(ctx, createReq(inviterA, inviteeX, 100))
		assertCode(t, err, "SYS_002")
	})
}

func TestEscrowService_Create_DuplicateRelationship(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()
	d.seed(inviterA, inviteeX, 100, 0)

	// The duplicate check precedes the trust check, so a duplicate pair is
	// reported as ESC_007 even when trust has lapsed since creation. No
	// Trusts expectation is armed: the oracle must not be consulted.
	d.oracle.EXPECT().IsEligiblePrincipal(ctx, inviterA).Return(true, nil)
	d.oracle.EXPECT().IsOnboarded(ctx, inviteeX).Return(false, nil)

	_, err := d.svc.Create(ctx, createReq(inviterA, inviteeX, 100))
	assertCode(t, err, "ESC_007")
}

func TestEscrowService_Create_EligibilityCheckedFirst(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	// An ineligible inviter fails with ESC_001 even when the request also
	// carries an out-of-range amount and a mismatched operator.
	d.oracle.EXPECT().IsEligiblePrincipal(ctx, inviterA).Return(false, nil)

	req := createReq(inviterA, inviteeX, 5)
	req.Operator = inviterB
	_, err := d.svc.Create(ctx, req)
	assertCode(t, err, "ESC_001")
}

func TestEscrowService_Create_ReplacesFullyDecayedLeftover(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	// At the halving schedule a face value of 100 is worth zero after 7 days.
	d.seed(inviterA, inviteeX, 100, 0)
	*d.day = 7

	d.oracle.EXPECT().IsEligiblePrincipal(ctx, inviterA).Return(true, nil)
	d.oracle.EXPECT().IsOnboarded(ctx, inviteeX).Return(false, nil)
	d.oracle.EXPECT().Trusts(ctx, inviterA, inviteeX).Return(true, nil)
	d.expectJournal(1)

	_, err := d.svc.Create(ctx, createReq(inviterA, inviteeX, 500))
	require.NoError(t, err)

	bal, err := d.svc.CurrentBalance(ctx, inviterA, inviteeX)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(500), bal.Amount, "fresh anchor, not the stale one")

	inviters, err := d.svc.ListInviters(ctx, inviteeX)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{inviterA}, inviters, "no duplicate index link after purge")
}

func TestEscrowService_Create_JournalFailureDoesNotFailOperation(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.oracle.EXPECT().IsEligiblePrincipal(ctx, inviterA).Return(true, nil)
	d.oracle.EXPECT().IsOnboarded(ctx, inviteeX).Return(false, nil)
	d.oracle.EXPECT().Trusts(ctx, inviterA, inviteeX).Return(true, nil)
	d.transactor.EXPECT().Begin(gomock.Any()).Return(nil, errors.New("db down"))

	_, err := d.svc.Create(ctx, createReq(inviterA, inviteeX, 100))
	require.NoError(t, err, "journal is best-effort")

	_, err = d.svc.CurrentBalance(ctx, inviterA, inviteeX)
	assert.NoError(t, err)
}

// ==================== Redeem Tests ====================

func TestEscrowService_Redeem_MultipleInviters(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.seed(inviterA, inviteeX, 100, 0)
	d.seed(inviterB, inviteeX, 200, 0)
	d.seed(inviterC, inviteeX, 400, 0)
	*d.day = 1 // everything is worth half its face value

	d.oracle.EXPECT().Trusts(ctx, inviterB, inviteeX).Return(true, nil)
	d.mover.EXPECT().TransferOriginal(ctx, inviterB, sdkmath.NewInt(100)).Return(nil)
	d.mover.EXPECT().ConvertAndTransfer(ctx, inviterC, sdkmath.NewInt(200)).Return(nil)
	d.mover.EXPECT().ConvertAndTransfer(ctx, inviterA, sdkmath.NewInt(50)).Return(nil)
	d.expectJournal(3)

	result, err := d.svc.Redeem(ctx, ports.RedeemRequest{Invitee: inviteeX, ChosenInviter: inviterB})
	require.NoError(t, err)

	assert.Equal(t, domain.EventEscrowRedeemed, result.Redeemed.Kind)
	assert.Equal(t, inviterB, result.Redeemed.Inviter)
	assert.Equal(t, sdkmath.NewInt(100), result.Redeemed.Amount)

	require.Len(t, result.Refunded, 2)
	for _, ev := range result.Refunded {
		assert.Equal(t, domain.EventEscrowRefunded, ev.Kind)
		assert.Equal(t, inviteeX, ev.Invitee)
	}

	// Every record and index link for the invitee is gone.
	inviters, err := d.svc.ListInviters(ctx, inviteeX)
	require.NoError(t, err)
	assert.Empty(t, inviters)
	for _, inviter := range []common.Address{inviterA, inviterB, inviterC} {
		invitees, err := d.svc.ListInvitees(ctx, inviter)
		require.NoError(t, err)
		assert.Empty(t, invitees)
	}
}

func TestEscrowService_Redeem_PaysChosenInviterInOriginalAsset(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.seed(inviterA, inviteeX, 100, 0)
	d.seed(inviterB, inviteeX, 100, 0)

	// Redemption consumes the invitation: the chosen inviter is made whole
	// in the original asset, the other inviter gets the wrapped refund. The
	// invitee receives no transfer from the ledger.
	d.oracle.EXPECT().Trusts(ctx, inviterB, inviteeX).Return(true, nil)
	d.mover.EXPECT().TransferOriginal(ctx, inviterB, sdkmath.NewInt(100)).Return(nil)
	d.mover.EXPECT().ConvertAndTransfer(ctx, inviterA, sdkmath.NewInt(100)).Return(nil)
	d.expectJournal(2)

	result, err := d.svc.Redeem(ctx, ports.RedeemRequest{Invitee: inviteeX, ChosenInviter: inviterB})
	require.NoError(t, err)
	assert.Equal(t, inviterB, result.Redeemed.Inviter)
	require.Len(t, result.Refunded, 1)
	assert.Equal(t, inviterA, result.Refunded[0].Inviter)
}

func TestEscrowService_Redeem_NoSuchRelationship(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	_, err := d.svc.Redeem(ctx, ports.RedeemRequest{Invitee: inviteeX, ChosenInviter: inviterA})
	assertCode(t, err, "ESC_008")

	// A fully decayed chosen escrow counts as absent too.
	d.seed(inviterA, inviteeX, 100, 0)
	*d.day = 7
	_, err = d.svc.Redeem(ctx, ports.RedeemRequest{Invitee: inviteeX, ChosenInviter: inviterA})
	assertCode(t, err, "ESC_008")
}

func TestEscrowService_Redeem_TrustRevoked(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.seed(inviterA, inviteeX, 100, 0)
	d.seed(inviterB, inviteeX, 200, 0)

	d.oracle.EXPECT().Trusts(ctx, inviterA, inviteeX).Return(false, nil)

	_, err := d.svc.Redeem(ctx, ports.RedeemRequest{Invitee: inviteeX, ChosenInviter: inviterA})
	assertCode(t, err, "ESC_009")

	// Nothing was destroyed.
	inviters, err := d.svc.ListInviters(ctx, inviteeX)
	require.NoError(t, err)
	assert.Len(t, inviters, 2)
}

func TestEscrowService_Redeem_PayoutFailureRestoresEverything(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.seed(inviterA, inviteeX, 100, 0)
	d.seed(inviterB, inviteeX, 200, 0)

	d.oracle.EXPECT().Trusts(ctx, inviterA, inviteeX).Return(true, nil)
	d.mover.EXPECT().TransferOriginal(ctx, inviterA, sdkmath.NewInt(100)).Return(errors.New("mover down"))

	_, err := d.svc.Redeem(ctx, ports.RedeemRequest{Invitee: inviteeX, ChosenInviter: inviterA})
	assertCode(t, err, "SYS_003")

	inviters, err := d.svc.ListInviters(ctx, inviteeX)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{inviterB, inviterA}, inviters, "insertion order restored")

	bal, err := d.svc.CurrentBalance(ctx, inviterA, inviteeX)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(100), bal.Amount)
}

func TestEscrowService_Redeem_RefundFailureKeepsPaidDestroyed(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.seed(inviterA, inviteeX, 100, 0)
	d.seed(inviterB, inviteeX, 200, 0)

	d.oracle.EXPECT().Trusts(ctx, inviterB, inviteeX).Return(true, nil)
	d.mover.EXPECT().TransferOriginal(ctx, inviterB, sdkmath.NewInt(200)).Return(nil)
	d.mover.EXPECT().ConvertAndTransfer(ctx, inviterA, sdkmath.NewInt(100)).Return(errors.New("mover down"))
	d.expectJournal(1) // only the completed payout is journaled

	_, err := d.svc.Redeem(ctx, ports.RedeemRequest{Invitee: inviteeX, ChosenInviter: inviterB})
	assertCode(t, err, "SYS_003")

	// The paid-out chosen escrow stays destroyed; the unpaid refund returns.
	_, err = d.svc.CurrentBalance(ctx, inviterB, inviteeX)
	assertCode(t, err, "ESC_008")
	bal, err := d.svc.CurrentBalance(ctx, inviterA, inviteeX)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(100), bal.Amount)
}

func TestEscrowService_Redeem_ZeroSettledRefundSkipsTransfer(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.seed(inviterA, inviteeX, 100, 0) // fully decayed by day 7
	d.seed(inviterB, inviteeX, 800, 4) // worth 100 on day 7

	*d.day = 7
	d.oracle.EXPECT().Trusts(ctx, inviterB, inviteeX).Return(true, nil)
	d.mover.EXPECT().TransferOriginal(ctx, inviterB, sdkmath.NewInt(100)).Return(nil)
	// No ConvertAndTransfer: inviterA's entry settles at zero.
	d.expectJournal(2)

	result, err := d.svc.Redeem(ctx, ports.RedeemRequest{Invitee: inviteeX, ChosenInviter: inviterB})
	require.NoError(t, err)
	require.Len(t, result.Refunded, 1)
	assert.True(t, result.Refunded[0].Amount.IsZero())
}

// ==================== RevokeOne Tests ====================

func TestEscrowService_RevokeOne_Success(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.seed(inviterA, inviteeX, 100, 0)
	*d.day = 1

	d.mover.EXPECT().ConvertAndTransfer(ctx, inviterA, sdkmath.NewInt(50)).Return(nil)
	d.expectJournal(1)

	ev, err := d.svc.RevokeOne(ctx, ports.RevokeRequest{Inviter: inviterA, Invitee: inviteeX})
	require.NoError(t, err)
	assert.Equal(t, domain.EventEscrowRevoked, ev.Kind)
	assert.Equal(t, sdkmath.NewInt(50), ev.Amount)

	_, err = d.svc.CurrentBalance(ctx, inviterA, inviteeX)
	assertCode(t, err, "ESC_008")
}

func TestEscrowService_RevokeOne_NoSuchRelationship(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	_, err := d.svc.RevokeOne(ctx, ports.RevokeRequest{Inviter: inviterA, Invitee: inviteeX})
	assertCode(t, err, "ESC_008")

	d.seed(inviterA, inviteeX, 100, 0)
	*d.day = 7
	_, err = d.svc.RevokeOne(ctx, ports.RevokeRequest{Inviter: inviterA, Invitee: inviteeX})
	assertCode(t, err, "ESC_008")
}

func TestEscrowService_RevokeOne_TransferFailureRestores(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.seed(inviterA, inviteeX, 100, 0)
	d.mover.EXPECT().ConvertAndTransfer(ctx, inviterA, sdkmath.NewInt(100)).Return(errors.New("mover down"))

	_, err := d.svc.RevokeOne(ctx, ports.RevokeRequest{Inviter: inviterA, Invitee: inviteeX})
	assertCode(t, err, "SYS_003")

	bal, err := d.svc.CurrentBalance(ctx, inviterA, inviteeX)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(100), bal.Amount)
}

// ==================== RevokeAll Tests ====================

func TestEscrowService_RevokeAll_BatchesOneTransfer(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.seed(inviterA, inviteeX, 100, 0)
	d.seed(inviterA, inviteeY, 200, 0)
	d.seed(inviterB, inviteeX, 400, 0) // untouched

	d.mover.EXPECT().ConvertAndTransfer(ctx, inviterA, sdkmath.NewInt(300)).Return(nil)
	d.expectJournal(2)

	result, err := d.svc.RevokeAll(ctx, inviterA)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(300), result.Total)
	assert.Len(t, result.Revoked, 2)

	invitees, err := d.svc.ListInvitees(ctx, inviterA)
	require.NoError(t, err)
	assert.Empty(t, invitees)

	bal, err := d.svc.CurrentBalance(ctx, inviterB, inviteeX)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(400), bal.Amount, "other inviters are untouched")
}

func TestEscrowService_RevokeAll_PurgesFullyDecayedSilently(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.seed(inviterA, inviteeX, 100, 0) // zero by day 7
	d.seed(inviterA, inviteeY, 800, 4) // worth 100 on day 7
	*d.day = 7

	// The decayed entry is purged without a notification; only the live one
	// is revoked and counted.
	d.mover.EXPECT().ConvertAndTransfer(ctx, inviterA, sdkmath.NewInt(100)).Return(nil)
	d.expectJournal(1)

	result, err := d.svc.RevokeAll(ctx, inviterA)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(100), result.Total)
	require.Len(t, result.Revoked, 1)
	assert.Equal(t, inviteeY, result.Revoked[0].Invitee)

	assert.Empty(t, d.svc.escrows, "decayed leftover purged alongside the live entry")
}

func TestEscrowService_RevokeAll_EmptyIsNoOp(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	result, err := d.svc.RevokeAll(ctx, inviterA)
	require.NoError(t, err)
	assert.True(t, result.Total.IsZero())
	assert.Empty(t, result.Revoked)
}

func TestEscrowService_RevokeAll_TransferFailureRestoresAll(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.seed(inviterA, inviteeX, 100, 0)
	d.seed(inviterA, inviteeY, 200, 0)

	d.mover.EXPECT().ConvertAndTransfer(ctx, inviterA, sdkmath.NewInt(300)).Return(errors.New("mover down"))

	_, err := d.svc.RevokeAll(ctx, inviterA)
	assertCode(t, err, "SYS_003")

	invitees, err := d.svc.ListInvitees(ctx, inviterA)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{inviteeY, inviteeX}, invitees, "insertion order restored")
}

// ==================== Reentrancy ====================

func TestEscrowService_ReentrantCallbackIsRejected(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.oracle.EXPECT().IsEligiblePrincipal(ctx, inviterA).Return(true, nil)
	d.oracle.EXPECT().IsOnboarded(ctx, inviteeX).Return(false, nil)
	d.oracle.EXPECT().Trusts(ctx, inviterA, inviteeX).DoAndReturn(
		func(ctx context.Context, _, _ common.Address) (bool, error) {
			// A misbehaving collaborator calling back into the ledger
			// mid-operation must fail fast, not deadlock.
			_, err := d.svc.RevokeOne(ctx, ports.RevokeRequest{Inviter: inviterA, Invitee: inviteeX})
			assertCode(t, err, "ESC_010")
			return true, nil
		})
	d.expectJournal(1)

	_, err := d.svc.Create(ctx, createReq(inviterA, inviteeX, 100))
	require.NoError(t, err, "outer operation completes despite the rejected callback")
}

// ==================== Views ====================

func TestEscrowService_ListInviters_HidesFullyDecayed(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.seed(inviterA, inviteeX, 100, 0) // zero by day 7
	d.seed(inviterB, inviteeX, 800, 4) // still live on day 7
	*d.day = 7

	inviters, err := d.svc.ListInviters(ctx, inviteeX)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{inviterB}, inviters)
}

func TestEscrowService_CurrentBalance_Projection(t *testing.T) {
	d := setupEscrowService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.seed(inviterA, inviteeX, 100, 2)
	*d.day = 5

	bal, err := d.svc.CurrentBalance(ctx, inviterA, inviteeX)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(12), bal.Amount, "100 halved over 3 days, truncated")
	assert.Equal(t, uint64(3), bal.DaysElapsed)

	*d.day = 9
	_, err = d.svc.CurrentBalance(ctx, inviterA, inviteeX)
	assertCode(t, err, "ESC_008")
}
