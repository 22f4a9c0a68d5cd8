package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/flashdealz-backend/pkg/logger"
)

type stockPreloader interface {
	PreloadStock(ctx context.Context) (int, error)
}

// NewStockPreloadJob builds the job that warms stock counters for items
// whose sale starts soon, so the purchase path rarely needs its lazy
// preload branch.
func NewStockPreloadJob(svc stockPreloader, logg *logger.Logger) (Job, error) {
	if svc == nil {
		return nil, fmt.Errorf("flash-sale service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &stockPreloadJob{svc: svc, logg: logg}, nil
}

type stockPreloadJob struct {
	svc  stockPreloader
	logg *logger.Logger
}

func (j *stockPreloadJob) Name() string { return "stock-preload" }

func (j *stockPreloadJob) Run(ctx context.Context) error {
	preloaded, err := j.svc.PreloadStock(ctx)
	if err != nil {
		return fmt.Errorf("preload upcoming stock: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "preloaded", preloaded), "stock preload complete")
	return nil
}
