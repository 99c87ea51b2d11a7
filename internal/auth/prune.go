package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// cronParser accepts standard 5-field expressions and @every/@hourly descriptors.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// StartPruner schedules PruneExpired on schedule and starts the scheduler.
// The caller stops it with Stop().
func StartPruner(db *gorm.DB, schedule string, log logrus.FieldLogger) (*cron.Cron, error) {
	c := cron.New(cron.WithParser(cronParser))
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := PruneExpired(ctx, db, time.Now())
		if err != nil {
			log.WithError(err).Warn("session prune failed")
			return
		}
		if n > 0 {
			log.WithField("sessions", n).Info("pruned expired sessions")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("auth: prune schedule %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}
