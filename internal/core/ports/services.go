package ports

import (
	"context"
	"time"

	"invite-escrow-ledger/internal/core/domain"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

// --- External collaborators ---

// IdentityOracle answers eligibility and trust questions about principals.
// The ledger never caches answers: trust in particular is re-verified at the
// moment it matters.
type IdentityOracle interface {
	IsEligiblePrincipal(ctx context.Context, addr common.Address) (bool, error)
	IsOnboarded(ctx context.Context, addr common.Address) (bool, error)
	Trusts(ctx context.Context, truster, trustee common.Address) (bool, error)
}

// ValueMover executes value transfers on the external asset holder.
// TransferOriginal moves the base asset; ConvertAndTransfer first wraps the
// amount into its time-decaying representation.
type ValueMover interface {
	TransferOriginal(ctx context.Context, to common.Address, amount sdkmath.Int) error
	ConvertAndTransfer(ctx context.Context, to common.Address, amount sdkmath.Int) error
}

// DayClock yields the current absolute ledger day index.
type DayClock interface {
	Today() uint64
}

// DecayFunction projects an anchored balance forward in time.
// Implementations must be deterministic, monotonically non-increasing in
// elapsedDays, and satisfy Project(v, 0) == v.
type DecayFunction interface {
	Project(initial sdkmath.Int, elapsedDays uint64) sdkmath.Int
}

// --- Escrow ledger (core) ---

// EscrowService is the demurrage-adjusted escrow accounting engine.
type EscrowService interface {
	Create(ctx context.Context, req CreateEscrowRequest) (*domain.EscrowEvent, error)
	Redeem(ctx context.Context, req RedeemRequest) (*RedeemResult, error)
	RevokeOne(ctx context.Context, req RevokeRequest) (*domain.EscrowEvent, error)
	RevokeAll(ctx context.Context, inviter common.Address) (*RevokeAllResult, error)

	ListInviters(ctx context.Context, invitee common.Address) ([]common.Address, error)
	ListInvitees(ctx context.Context, inviter common.Address) ([]common.Address, error)
	CurrentBalance(ctx context.Context, inviter, invitee common.Address) (*BalanceInfo, error)
}

// CreateEscrowRequest carries a validated asset-transfer hook notification.
// AssetOwner identifies the asset class the deposit arrived in, which for a
// personal asset is its owner's address; the create operation requires
// Operator == Source == AssetOwner.
type CreateEscrowRequest struct {
	Operator   common.Address
	Source     common.Address
	AssetOwner common.Address
	Invitee    common.Address
	Amount     sdkmath.Int
}

// RedeemRequest consumes the chosen inviter's escrow on behalf of the invitee.
type RedeemRequest struct {
	Invitee       common.Address
	ChosenInviter common.Address
}

// RevokeRequest withdraws one escrow on behalf of the inviter.
type RevokeRequest struct {
	Inviter common.Address
	Invitee common.Address
}

// RedeemResult reports the full unwinding of an invitee's escrows: one
// redeemed settlement for the chosen inviter and a refund per other inviter.
type RedeemResult struct {
	Redeemed *domain.EscrowEvent
	Refunded []*domain.EscrowEvent
}

// RevokeAllResult reports a bulk revocation: one event per destroyed escrow
// and the accumulated total moved in a single transfer.
type RevokeAllResult struct {
	Revoked []*domain.EscrowEvent
	Total   sdkmath.Int
}

// BalanceInfo is the projected current value of one escrow and its age.
type BalanceInfo struct {
	Amount      sdkmath.Int
	DaysElapsed uint64
}

// --- Ambient services ---

// SignatureService handles HMAC-SHA256 signing and verification.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
	BuildCanonicalString(method, path string, timestamp int64, nonce string, body string) string
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations for the operator dashboard.
type TokenService interface {
	Generate(subject string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Subject string
}

// NonceStore manages nonce uniqueness for hook replay prevention.
type NonceStore interface {
	// CheckAndSet atomically checks if nonce exists, sets it if not.
	// Returns true if nonce is new (valid), false if already used.
	CheckAndSet(ctx context.Context, scope string, nonce string, ttl time.Duration) (bool, error)
}

// AuthService authenticates the dashboard operator.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}

// ReportingService exposes the journal to the dashboard.
type ReportingService interface {
	ListEvents(ctx context.Context, params EventListParams) ([]domain.EscrowEvent, int64, error)
	GetStats(ctx context.Context) (*EventStats, error)
}
