package scheduler

import (
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"rateminder/server/config"
	"rateminder/server/internal/collector"
	"rateminder/server/internal/engine"
	"rateminder/server/internal/ledger"
	"rateminder/server/internal/models"
	"rateminder/server/internal/notify"
	"rateminder/server/internal/queue"
)

// Scheduler drives periodic pricing runs. Each run walks the configured
// properties strictly sequentially, lets the engine decide and the
// collector apply, then persists the ledger, feeds the mirror store and
// sends the run notification.
type Scheduler struct {
	engine   *engine.Engine
	source   collector.PriceSource
	writer   *ledger.Writer
	queue    *queue.ChangeQueue
	notifier *notify.Service
	pricing  *config.PricingConfig
	logger   *logrus.Logger

	cron     *cron.Cron
	runMutex sync.Mutex // Ensures sequential run execution

	// now is injected so tests can pin the run date
	now func() time.Time
}

// NewScheduler creates a scheduler. The queue and notifier are optional;
// a nil queue skips the mirror store and a nil notifier skips messages.
func NewScheduler(
	eng *engine.Engine,
	source collector.PriceSource,
	writer *ledger.Writer,
	changeQueue *queue.ChangeQueue,
	notifier *notify.Service,
	pricing *config.PricingConfig,
	logger *logrus.Logger,
) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Scheduler{
		engine:   eng,
		source:   source,
		writer:   writer,
		queue:    changeQueue,
		notifier: notifier,
		pricing:  pricing,
		logger:   logger,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start registers the cron schedule and optionally kicks off a startup
// run in the background.
func (s *Scheduler) Start(cronExpr string, runOnStartup bool) error {
	if _, err := s.cron.AddFunc(cronExpr, func() { s.RunOnce() }); err != nil {
		return err
	}
	s.cron.Start()

	if runOnStartup {
		go func() {
			s.logger.Info("Running startup pricing pass")
			s.RunOnce()
		}()
	}

	return nil
}

// Stop halts the cron schedule and waits for a run in flight.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.runMutex.Lock()
	s.runMutex.Unlock()
}

// RunOnce executes a full pricing pass over the configured properties.
// A failure on one property records an error change and moves on; the
// ledger is written once, at the end, from the accumulated buffer.
func (s *Scheduler) RunOnce() notify.RunSummary {
	s.runMutex.Lock()
	defer s.runMutex.Unlock()

	now := s.now()
	summary := notify.RunSummary{Date: now.Format(models.DateLayout)}

	s.logger.WithField("properties", len(s.pricing.Properties)).Info("Starting pricing run")

	for _, target := range s.pricing.Properties {
		summary.Processed++
		if s.processProperty(target, now, &summary) != nil {
			summary.Failures++
		}
	}

	changes := s.engine.PendingChanges()
	if len(changes) > 0 {
		if err := s.writer.Persist(changes, now); err != nil {
			s.logger.WithError(err).Error("Failed to persist change ledger")
		} else {
			s.engine.ClearPending()
		}

		if s.queue != nil {
			if err := s.queue.Push(changes); err != nil {
				s.logger.WithError(err).Error("Failed to enqueue changes for mirror store")
			}
		}
	}

	if s.notifier != nil {
		if err := s.notifier.SendRunSummary(summary); err != nil {
			s.logger.WithError(err).Error("Failed to send run notification")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"increases": summary.Increases,
		"decreases": summary.Decreases,
		"holds":     summary.Holds,
		"failures":  summary.Failures,
	}).Info("Pricing run completed")

	return summary
}

// processProperty prices one listing: fetch the platform snapshot,
// classify once, then adjust min and base price in turn.
func (s *Scheduler) processProperty(target config.PropertyTarget, now time.Time, summary *notify.RunSummary) error {
	log := s.logger.WithField("property_id", target.ID)

	snap, err := s.source.Fetch(target.URL)
	if err != nil {
		log.WithError(err).Error("Failed to fetch platform snapshot")
		s.engine.RecordFailure(target.ID, now, err)
		return err
	}

	reading := snap.Reading()
	strategy := s.engine.Classify(target.ID, reading, now)
	switch strategy {
	case models.StrategyIncrease:
		summary.Increases++
	case models.StrategyDecrease:
		summary.Decreases++
	case models.StrategyHold:
		summary.Holds++
	}

	prices := []struct {
		priceType models.PriceType
		current   float64
	}{
		{models.PriceTypeMin, snap.MinPrice},
		{models.PriceTypeBase, snap.BasePrice},
	}

	for _, p := range prices {
		decision, ok := s.engine.Compute(target.ID, p.current, reading, p.priceType, strategy, now)
		if !ok {
			log.WithField("strategy", string(strategy)).Warn("Unrecognized strategy, leaving price unchanged")
			continue
		}

		if decision.NewPrice != p.current {
			if err := s.source.ApplyPrice(target.URL, p.priceType, decision.NewPrice); err != nil {
				log.WithError(err).WithField("price_type", string(p.priceType)).Error("Failed to apply price on platform")
				s.engine.RecordFailure(target.ID, now, err)
				return err
			}
		}

		s.engine.Apply(target.ID, reading, p.priceType, p.current, decision)
	}

	return nil
}
