package handler

import (
	"encoding/hex"
	"strings"

	"invite-escrow-ledger/internal/adapter/http/dto"
	"invite-escrow-ledger/internal/core/ports"
	"invite-escrow-ledger/pkg/apperror"
	"invite-escrow-ledger/pkg/response"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// EscrowHandler handles escrow ledger endpoints: the deposit hook and the
// redeem/revoke operations, plus the dashboard relationship queries.
type EscrowHandler struct {
	escrowSvc ports.EscrowService
}

// NewEscrowHandler creates a new EscrowHandler.
func NewEscrowHandler(escrowSvc ports.EscrowService) *EscrowHandler {
	return &EscrowHandler{escrowSvc: escrowSvc}
}

// DepositNotice handles POST /api/v1/hooks/deposit. The counterpart payload
// is a hex-encoded invitee address; anything that does not decode to one
// fails with ESC_004 before the engine is touched.
func (h *EscrowHandler) DepositNotice(c *gin.Context) {
	var req dto.DepositNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	invitee, err := decodeCounterpart(req.Payload)
	if err != nil {
		response.Error(c, apperror.ErrMalformedPayload())
		return
	}

	amount, ok := sdkmath.NewIntFromString(req.Amount)
	if !ok {
		response.Error(c, apperror.Validation("amount is not a decimal integer"))
		return
	}

	event, err := h.escrowSvc.Create(c.Request.Context(), ports.CreateEscrowRequest{
		Operator:   common.HexToAddress(req.Operator),
		Source:     common.HexToAddress(req.From),
		AssetOwner: common.HexToAddress(req.AssetOwner),
		Invitee:    invitee,
		Amount:     amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewEscrowEventResponse(event))
}

// Redeem handles POST /api/v1/escrows/redeem.
func (h *EscrowHandler) Redeem(c *gin.Context) {
	var req dto.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.escrowSvc.Redeem(c.Request.Context(), ports.RedeemRequest{
		Invitee:       common.HexToAddress(req.Invitee),
		ChosenInviter: common.HexToAddress(req.ChosenInviter),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	refunded := make([]dto.EscrowEventResponse, 0, len(result.Refunded))
	for _, ev := range result.Refunded {
		refunded = append(refunded, dto.NewEscrowEventResponse(ev))
	}

	response.OK(c, dto.RedeemResponse{
		Redeemed: dto.NewEscrowEventResponse(result.Redeemed),
		Refunded: refunded,
	})
}

// Revoke handles POST /api/v1/escrows/revoke.
func (h *EscrowHandler) Revoke(c *gin.Context) {
	var req dto.RevokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	event, err := h.escrowSvc.RevokeOne(c.Request.Context(), ports.RevokeRequest{
		Inviter: common.HexToAddress(req.Inviter),
		Invitee: common.HexToAddress(req.Invitee),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewEscrowEventResponse(event))
}

// RevokeAll handles POST /api/v1/escrows/revoke-all.
func (h *EscrowHandler) RevokeAll(c *gin.Context) {
	var req dto.RevokeAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.escrowSvc.RevokeAll(c.Request.Context(), common.HexToAddress(req.Inviter))
	if err != nil {
		response.Error(c, err)
		return
	}

	revoked := make([]dto.EscrowEventResponse, 0, len(result.Revoked))
	for _, ev := range result.Revoked {
		revoked = append(revoked, dto.NewEscrowEventResponse(ev))
	}

	response.OK(c, dto.RevokeAllResponse{
		Revoked: revoked,
		Total:   result.Total.String(),
	})
}

// ListInviters handles GET /api/v1/escrows/inviters/:invitee.
func (h *EscrowHandler) ListInviters(c *gin.Context) {
	invitee, ok := pathAddress(c, "invitee")
	if !ok {
		return
	}

	inviters, err := h.escrowSvc.ListInviters(c.Request.Context(), invitee)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toAddressList(inviters))
}

// ListInvitees handles GET /api/v1/escrows/invitees/:inviter.
func (h *EscrowHandler) ListInvitees(c *gin.Context) {
	inviter, ok := pathAddress(c, "inviter")
	if !ok {
		return
	}

	invitees, err := h.escrowSvc.ListInvitees(c.Request.Context(), inviter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toAddressList(invitees))
}

// GetBalance handles GET /api/v1/escrows/:inviter/:invitee/balance.
func (h *EscrowHandler) GetBalance(c *gin.Context) {
	inviter, ok := pathAddress(c, "inviter")
	if !ok {
		return
	}
	invitee, ok := pathAddress(c, "invitee")
	if !ok {
		return
	}

	info, err := h.escrowSvc.CurrentBalance(c.Request.Context(), inviter, invitee)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		Inviter:     inviter.Hex(),
		Invitee:     invitee.Hex(),
		Amount:      info.Amount.String(),
		DaysElapsed: info.DaysElapsed,
	})
}

// decodeCounterpart parses the opaque hook payload into an invitee address.
// Accepts a 20-byte address or the 32-byte left-padded encoding.
func decodeCounterpart(payload string) (common.Address, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(payload, "0x"))
	if err != nil {
		return common.Address{}, err
	}
	switch len(raw) {
	case common.AddressLength:
		return common.BytesToAddress(raw), nil
	case 32:
		for _, b := range raw[:12] {
			if b != 0 {
				return common.Address{}, apperror.ErrMalformedPayload()
			}
		}
		return common.BytesToAddress(raw[12:]), nil
	default:
		return common.Address{}, apperror.ErrMalformedPayload()
	}
}

// pathAddress reads and validates a hex address path parameter. On failure
// it writes the error response and returns ok=false.
func pathAddress(c *gin.Context, name string) (common.Address, bool) {
	raw := c.Param(name)
	if !common.IsHexAddress(raw) {
		response.Error(c, apperror.Validation(name+" is not a valid address"))
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

func toAddressList(addrs []common.Address) dto.AddressListResponse {
	items := make([]string, 0, len(addrs))
	for _, a := range addrs {
		items = append(items, a.Hex())
	}
	return dto.AddressListResponse{Items: items, Count: len(items)}
}
