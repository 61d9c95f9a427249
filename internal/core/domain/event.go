package domain

import (
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// EscrowEventKind classifies a ledger notification.
type EscrowEventKind string

const (
	// EventEscrowCreated: an inviter locked value for an invitee.
	EventEscrowCreated EscrowEventKind = "ESCROW_CREATED"
	// EventEscrowRedeemed: the invitee consumed the chosen inviter's escrow;
	// the settled amount went back to the inviter in the original asset.
	EventEscrowRedeemed EscrowEventKind = "ESCROW_REDEEMED"
	// EventEscrowRefunded: a non-chosen inviter's escrow was dissolved during
	// redemption; the settled amount was converted and returned.
	EventEscrowRefunded EscrowEventKind = "ESCROW_REFUNDED"
	// EventEscrowRevoked: the inviter withdrew the escrow.
	EventEscrowRevoked EscrowEventKind = "ESCROW_REVOKED"
)

// EscrowEvent is one journaled ledger notification. Amount carries the
// settled (decay-projected) value at the moment the record was created or
// destroyed, and Day the ledger day the operation ran on.
type EscrowEvent struct {
	ID        uuid.UUID       `json:"id"`
	Kind      EscrowEventKind `json:"kind"`
	Inviter   common.Address  `json:"inviter"`
	Invitee   common.Address  `json:"invitee"`
	Amount    sdkmath.Int     `json:"amount"`
	Day       uint64          `json:"day"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewEscrowEvent builds a journal entry for one relationship settlement.
func NewEscrowEvent(kind EscrowEventKind, inviter, invitee common.Address, amount sdkmath.Int, day uint64) *EscrowEvent {
	return &EscrowEvent{
		ID:        uuid.New(),
		Kind:      kind,
		Inviter:   inviter,
		Invitee:   invitee,
		Amount:    amount,
		Day:       day,
		CreatedAt: time.Now().UTC(),
	}
}
