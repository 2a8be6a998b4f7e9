package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/jinzhu/now"
	"github.com/robfig/cron/v3"

	"coursehub/logger"
	"coursehub/services"
)

const DefaultProgressAuditSpec = "0 3 * * *"

type ProgressAuditor interface {
	AuditProgress(ctx context.Context, since time.Time) (services.AuditReport, error)
}

// InitializeProgressAuditScheduler starts the nightly progress audit. The
// caller stops the returned cron on shutdown.
func InitializeProgressAuditScheduler(auditor ProgressAuditor, spec string, log *logger.Logger) (*cron.Cron, error) {
	if spec == "" {
		spec = DefaultProgressAuditSpec
	}
	log = log.With("job", "progress-audit")

	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		RunProgressAudit(context.Background(), auditor, time.Now(), log)
	}); err != nil {
		return nil, fmt.Errorf("schedule progress audit %q: %w", spec, err)
	}
	c.Start()
	log.Info("progress audit scheduler started", "spec", spec)
	return c, nil
}

// RunProgressAudit checks every enrollment touched since the start of the day
// before at.
func RunProgressAudit(ctx context.Context, auditor ProgressAuditor, at time.Time, log *logger.Logger) services.AuditReport {
	since := now.With(at).BeginningOfDay().AddDate(0, 0, -1)
	log.Info("running progress audit", "since", since)

	report, err := auditor.AuditProgress(ctx, since)
	if err != nil {
		log.Error("progress audit failed", "error", err)
		return report
	}
	if report.Corrected > 0 || report.Failed > 0 {
		log.Warn("progress audit found drift", "checked", report.Checked, "corrected", report.Corrected, "failed", report.Failed)
	} else {
		log.Info("progress audit clean", "checked", report.Checked)
	}
	return report
}
