package domain

import (
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

// Pair identifies one escrow relationship: the ordered (inviter, invitee)
// address pair. At most one active EscrowRecord exists per Pair.
type Pair struct {
	Inviter common.Address
	Invitee common.Address
}

// EscrowRecord is the locked-value entry for one (inviter, invitee) pair.
//
// FaceValue is the amount locked at creation and never changes; the current
// redeemable value is always re-projected from it as
// decay(FaceValue, today - LastUpdatedDay). Projections are never compounded:
// LastUpdatedDay stays at the creation day for the record's whole lifetime.
// A record exists iff FaceValue is non-zero; full decay to zero makes the
// record semantically absent even while it is still stored.
type EscrowRecord struct {
	FaceValue      sdkmath.Int
	LastUpdatedDay uint64
	CreatedAt      time.Time
}
