package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"charge-costs/internal/config"
	"charge-costs/internal/reconcile"
	"charge-costs/internal/scheduler"
	"charge-costs/internal/storage"
)

// Service drives the periodic reconciliation batch: it loads finished
// charging sessions with no cost, computes cost and energy for each, and
// writes the cost back. Failures are isolated per session so one bad session
// never aborts the batch; it simply keeps its unset cost and is retried on
// the next cycle.
type Service struct {
	scheduler  *scheduler.Scheduler
	store      storage.SessionStore
	reconciler reconcile.Reconciler
	geofenceID int
	logger     zerolog.Logger
}

// New constructs the reconciliation service.
func New(cfg *config.Config, sched *scheduler.Scheduler, store storage.SessionStore, reconciler reconcile.Reconciler, logger zerolog.Logger) *Service {
	return &Service{
		scheduler:  sched,
		store:      store,
		reconciler: reconciler,
		geofenceID: cfg.Reconcile.GeofenceID,
		logger:     logger.With().Str("component", "service").Logger(),
	}
}

// Run begins the periodic reconciliation loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.ProcessBatch)
}

// ProcessBatch executes one reconciliation pass over all uncosted sessions.
func (s *Service) ProcessBatch(ctx context.Context) error {
	geofence, err := s.store.GetGeofence(ctx, s.geofenceID)
	if err != nil {
		return fmt.Errorf("load geofence: %w", err)
	}
	if geofence == nil {
		s.logger.Warn().Int("geofence_id", s.geofenceID).Msg("configured geofence does not exist, check the configured id")
		return nil
	}
	if geofence.CostPerUnit != nil {
		s.logger.Warn().
			Int("geofence_id", geofence.ID).
			Str("geofence", geofence.Name).
			Msg("geofence has its own cost per unit set, which would override this calculation; skipping")
		return nil
	}

	sessions, err := s.store.ListUncostedSessions(ctx, s.geofenceID)
	if err != nil {
		return fmt.Errorf("list uncosted sessions: %w", err)
	}
	if len(sessions) == 0 {
		s.logger.Debug().Str("geofence", geofence.Name).Msg("no new charging sessions")
		return nil
	}

	s.logger.Info().
		Int("sessions", len(sessions)).
		Str("geofence", geofence.Name).
		Msg("reconciling charging sessions")

	for _, session := range sessions {
		s.processSession(ctx, session)
	}
	return nil
}

func (s *Service) processSession(ctx context.Context, session storage.Session) {
	logger := s.logger.With().Int("session_id", session.ID).Logger()

	samples, err := s.store.GetTelemetry(ctx, session.ID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load telemetry")
		return
	}
	if len(samples) == 0 {
		logger.Error().Msg("session has no telemetry samples")
		return
	}

	result, err := s.reconciler.Reconcile(ctx, samples)
	if err != nil {
		logger.Error().Err(err).Msg("failed to calculate charging cost and energy")
		return
	}

	if session.EnergyUsed != nil && !session.EnergyUsed.Equal(result.Energy) {
		logger.Warn().
			Str("recorded_energy", session.EnergyUsed.String()).
			Str("calculated_energy", result.Energy.String()).
			Msg("mismatch between recorded and calculated energy")
	}

	if err := s.store.SetSessionCost(ctx, session.ID, result.Cost); err != nil {
		logger.Error().Err(err).Msg("failed to write session cost")
		return
	}

	logger.Info().
		Str("cost", result.Cost.String()).
		Str("energy_kwh", result.Energy.String()).
		Msg("session cost calculated")
}
