package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/flashdealz-backend/pkg/logger"
)

type statusRefresher interface {
	RefreshStatuses(ctx context.Context) (int, error)
}

// NewStatusRefreshJob builds the job that walks every item and persists the
// time-derived status where the stored one drifted.
func NewStatusRefreshJob(svc statusRefresher, logg *logger.Logger) (Job, error) {
	if svc == nil {
		return nil, fmt.Errorf("flash-sale service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &statusRefreshJob{svc: svc, logg: logg}, nil
}

type statusRefreshJob struct {
	svc  statusRefresher
	logg *logger.Logger
}

func (j *statusRefreshJob) Name() string { return "status-refresh" }

func (j *statusRefreshJob) Run(ctx context.Context) error {
	changed, err := j.svc.RefreshStatuses(ctx)
	if err != nil {
		return fmt.Errorf("refresh item statuses: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "transitions", changed), "status refresh complete")
	return nil
}
