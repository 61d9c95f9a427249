package dto

import (
	"invite-escrow-ledger/internal/core/domain"
	"invite-escrow-ledger/internal/core/ports"
)

// DepositNoticeRequest is the hook notification of an incoming asset
// transfer. The counterpart payload is an opaque hex blob; decoding it into
// an invitee address happens in the handler, not here, so a malformed
// payload gets its own error code instead of a generic binding failure.
type DepositNoticeRequest struct {
	Operator   string `json:"operator" binding:"required,eth_addr"`
	From       string `json:"from" binding:"required,eth_addr"`
	AssetOwner string `json:"asset_owner" binding:"required,eth_addr"`
	Amount     string `json:"amount" binding:"required,uint_amount"`
	Payload    string `json:"payload" binding:"required"`
}

// RedeemRequest is the request body for redeeming the chosen inviter's
// escrow on behalf of the invitee.
type RedeemRequest struct {
	Invitee       string `json:"invitee" binding:"required,eth_addr"`
	ChosenInviter string `json:"chosen_inviter" binding:"required,eth_addr"`
}

// RevokeRequest is the request body for withdrawing one escrow.
type RevokeRequest struct {
	Inviter string `json:"inviter" binding:"required,eth_addr"`
	Invitee string `json:"invitee" binding:"required,eth_addr"`
}

// RevokeAllRequest is the request body for withdrawing all of an inviter's
// escrows.
type RevokeAllRequest struct {
	Inviter string `json:"inviter" binding:"required,eth_addr"`
}

// LoginRequest is the request body for operator login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// EscrowEventResponse is the wire form of one journal event.
type EscrowEventResponse struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Inviter   string `json:"inviter"`
	Invitee   string `json:"invitee"`
	Amount    string `json:"amount"`
	Day       uint64 `json:"day"`
	CreatedAt string `json:"created_at"`
}

// RedeemResponse reports the full unwinding of an invitee's escrows.
type RedeemResponse struct {
	Redeemed EscrowEventResponse   `json:"redeemed"`
	Refunded []EscrowEventResponse `json:"refunded"`
}

// RevokeAllResponse reports a bulk revocation.
type RevokeAllResponse struct {
	Revoked []EscrowEventResponse `json:"revoked"`
	Total   string                `json:"total"`
}

// BalanceResponse is the projected current value of one escrow.
type BalanceResponse struct {
	Inviter     string `json:"inviter"`
	Invitee     string `json:"invitee"`
	Amount      string `json:"amount"`
	DaysElapsed uint64 `json:"days_elapsed"`
}

// AddressListResponse wraps a relationship listing.
type AddressListResponse struct {
	Items []string `json:"items"`
	Count int      `json:"count"`
}

// EventListResponse wraps a paginated journal listing.
type EventListResponse struct {
	Items      []EscrowEventResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// StatsResponse is the response for dashboard statistics.
type StatsResponse struct {
	TotalEvents int64 `json:"total_events"`
	Created     int64 `json:"created"`
	Redeemed    int64 `json:"redeemed"`
	Refunded    int64 `json:"refunded"`
	Revoked     int64 `json:"revoked"`
}

// NewEscrowEventResponse converts a journal event to its wire form.
func NewEscrowEventResponse(ev *domain.EscrowEvent) EscrowEventResponse {
	return EscrowEventResponse{
		ID:        ev.ID.String(),
		Kind:      string(ev.Kind),
		Inviter:   ev.Inviter.Hex(),
		Invitee:   ev.Invitee.Hex(),
		Amount:    ev.Amount.String(),
		Day:       ev.Day,
		CreatedAt: ev.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

// NewStatsResponse converts aggregated journal counts to their wire form.
func NewStatsResponse(stats *ports.EventStats) StatsResponse {
	return StatsResponse{
		TotalEvents: stats.TotalEvents,
		Created:     stats.Created,
		Redeemed:    stats.Redeemed,
		Refunded:    stats.Refunded,
		Revoked:     stats.Revoked,
	}
}
