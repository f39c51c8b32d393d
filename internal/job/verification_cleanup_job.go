package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type expiredSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// VerificationCleanupJob drops pending signups whose link has expired.
type VerificationCleanupJob struct {
	sweeper expiredSweeper
}

func NewVerificationCleanupJob(sweeper expiredSweeper) *VerificationCleanupJob {
	return &VerificationCleanupJob{sweeper: sweeper}
}

func (j *VerificationCleanupJob) Name() string {
	return "verification_cleanup"
}

func (j *VerificationCleanupJob) Run(ctx context.Context) error {
	if j.sweeper == nil {
		return nil
	}
	removed, err := j.sweeper.SweepExpired(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("expired verifications removed", zap.Int("count", removed))
	}
	return nil
}
