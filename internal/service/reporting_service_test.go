package service

import (
	"context"
	"errors"
	"testing"

	"invite-escrow-ledger/internal/core/domain"
	"invite-escrow-ledger/internal/core/ports"
	"invite-escrow-ledger/internal/core/ports/mocks"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestReportingService_ListEvents_NormalizesPagination(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	repo := mocks.NewMockEscrowEventRepository(ctrl)
	svc := NewReportingService(repo)

	events := []domain.EscrowEvent{
		*domain.NewEscrowEvent(domain.EventEscrowCreated, inviterA, inviteeX, sdkmath.NewInt(100), 1),
	}
	repo.EXPECT().
		List(ctx, ports.EventListParams{Page: 1, PageSize: 20}).
		Return(events, int64(1), nil)

	got, total, err := svc.ListEvents(ctx, ports.EventListParams{Page: 0, PageSize: 0})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, got, 1)
}

func TestReportingService_ListEvents_ClampsOversizedPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	repo := mocks.NewMockEscrowEventRepository(ctrl)
	svc := NewReportingService(repo)

	repo.EXPECT().
		List(ctx, ports.EventListParams{Page: 3, PageSize: 20}).
		Return(nil, int64(0), nil)

	_, _, err := svc.ListEvents(ctx, ports.EventListParams{Page: 3, PageSize: 500})
	require.NoError(t, err)
}

func TestReportingService_ListEvents_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	repo := mocks.NewMockEscrowEventRepository(ctrl)
	svc := NewReportingService(repo)

	repo.EXPECT().List(ctx, gomock.Any()).Return(nil, int64(0), errors.New("db down"))

	_, _, err := svc.ListEvents(ctx, ports.EventListParams{Page: 1, PageSize: 20})
	assertCode(t, err, "SYS_001")
}

func TestReportingService_GetStats(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	repo := mocks.NewMockEscrowEventRepository(ctrl)
	svc := NewReportingService(repo)

	want := &ports.EventStats{TotalEvents: 10, Created: 4, Redeemed: 2, Refunded: 3, Revoked: 1}
	repo.EXPECT().GetStats(ctx).Return(want, nil)

	got, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
