package service

import (
	"context"

	"invite-escrow-ledger/internal/core/domain"
	"invite-escrow-ledger/internal/core/ports"
	"invite-escrow-ledger/pkg/apperror"
)

// reportingService implements ports.ReportingService over the event journal.
type reportingService struct {
	eventRepo ports.EscrowEventRepository
}

// NewReportingService creates a new reporting service.
func NewReportingService(eventRepo ports.EscrowEventRepository) ports.ReportingService {
	return &reportingService{eventRepo: eventRepo}
}

// ListEvents returns a paginated slice of journal events.
func (s *reportingService) ListEvents(ctx context.Context, params ports.EventListParams) ([]domain.EscrowEvent, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	events, total, err := s.eventRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	return events, total, nil
}

// GetStats returns aggregated journal counts for the dashboard.
func (s *reportingService) GetStats(ctx context.Context) (*ports.EventStats, error) {
	stats, err := s.eventRepo.GetStats(ctx)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return stats, nil
}
