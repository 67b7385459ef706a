package cron

import (
	"context"
	"fmt"

	"github.com/arjundesai/medikart-backend/pkg/logger"
)

type expirySweeper interface {
	ExpireDue(ctx context.Context) (int, error)
}

// QuoteExpiryJobParams configure the quote window sweep.
type QuoteExpiryJobParams struct {
	Logger *logger.Logger
	Orders expirySweeper
}

// NewQuoteExpiryJob builds the job that records the expired status for every
// order whose quote window has closed. Each order is swapped individually, so
// a submission or conversion landing mid-sweep keeps its win.
func NewQuoteExpiryJob(params QuoteExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	return &quoteExpiryJob{
		logg:   params.Logger,
		orders: params.Orders,
	}, nil
}

type quoteExpiryJob struct {
	logg   *logger.Logger
	orders expirySweeper
}

func (j *quoteExpiryJob) Name() string { return "quote-expiry" }

func (j *quoteExpiryJob) Run(ctx context.Context) error {
	count, err := j.orders.ExpireDue(ctx)
	if err != nil {
		return fmt.Errorf("expire due orders: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "count", count)
	j.logg.Info(logCtx, "quote expiry sweep complete")
	return nil
}
