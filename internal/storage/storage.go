package storage

import (
	"context"

	"lpScope/internal/model"
)

// Sink receives computed position fee data and estimates.
type Sink interface {
	PutDailyFees(ctx context.Context, positionID string, series []model.DailyFee) error
	PutOverview(ctx context.Context, overview model.PositionOverview) error
	PutEstimates(ctx context.Context, estimates []model.FeeEstimate) error
}

// Multi fans writes out to several sinks in order and stops at the first error.
type Multi []Sink

// PutDailyFees writes series to every sink.
func (m Multi) PutDailyFees(ctx context.Context, positionID string, series []model.DailyFee) error {
	for _, s := range m {
		if err := s.PutDailyFees(ctx, positionID, series); err != nil {
			return err
		}
	}
	return nil
}

// PutOverview writes overview to every sink.
func (m Multi) PutOverview(ctx context.Context, overview model.PositionOverview) error {
	for _, s := range m {
		if err := s.PutOverview(ctx, overview); err != nil {
			return err
		}
	}
	return nil
}

// PutEstimates writes estimates to every sink.
func (m Multi) PutEstimates(ctx context.Context, estimates []model.FeeEstimate) error {
	for _, s := range m {
		if err := s.PutEstimates(ctx, estimates); err != nil {
			return err
		}
	}
	return nil
}
