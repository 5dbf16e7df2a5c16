// Package draw implements the winner-selection and scheduled
// prize-draw core: the selector, the draw service, and the round job
// handler.
package draw

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eventdraw/drawbot/internal/concurrency"
	"github.com/eventdraw/drawbot/internal/domain"
	"github.com/eventdraw/drawbot/internal/event"
	"github.com/eventdraw/drawbot/internal/logger"
	"github.com/eventdraw/drawbot/internal/notify"
	"github.com/eventdraw/drawbot/internal/repository"
	"github.com/eventdraw/drawbot/internal/scheduler"
)

// JobKindDrawRound identifies a scheduled draw round in the job runner
const JobKindDrawRound = "draw.round"

// Service defines the interface for draw operations
type Service interface {
	StartDraw(ctx context.Context, eventID uuid.UUID) error
	ExecuteRound(ctx context.Context, payload domain.DrawRoundPayload) error
	ListWinners(ctx context.Context, eventID uuid.UUID) ([]domain.WinnerInfo, error)
	Shutdown(ctx context.Context) error
}

// Notifier is the notification fan-out consumed by draw executions
type Notifier interface {
	Dispatch(ctx context.Context, contacts []domain.Contact, message, imageURL string) []notify.Failure
}

type service struct {
	participants repository.Participant
	winners      repository.Winner
	configs      repository.DrawConfig
	contacts     repository.Contact
	notifier     Notifier
	runner       scheduler.Runner
	eventBus     event.Bus
	locks        *concurrency.LockManager
	wg           sync.WaitGroup // tracks the async intro fan-out
}

// NewService creates a new draw service
func NewService(
	participants repository.Participant,
	winners repository.Winner,
	configs repository.DrawConfig,
	contacts repository.Contact,
	notifier Notifier,
	runner scheduler.Runner,
	eventBus event.Bus,
) Service {
	return &service{
		participants: participants,
		winners:      winners,
		configs:      configs,
		contacts:     contacts,
		notifier:     notifier,
		runner:       runner,
		eventBus:     eventBus,
		locks:        concurrency.NewLockManager(),
	}
}

// RoundHandler returns the job handler that executes one scheduled
// draw round. Registered under JobKindDrawRound on the job runner.
func RoundHandler(svc Service) scheduler.HandlerFunc {
	return func(ctx context.Context, raw []byte) error {
		var payload domain.DrawRoundPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return fmt.Errorf("failed to decode draw round payload: %w", err)
		}
		return svc.ExecuteRound(ctx, payload)
	}
}

// StartDraw reads the draw configuration for the event, sends the
// intro message to all current participants, schedules one round job
// per configured round at interval*round from now, and marks the
// configuration completed. A completed configuration is rejected:
// re-triggering would stack a second overlapping schedule, so a new
// start requires re-upserting the config first.
func (s *service) StartDraw(ctx context.Context, eventID uuid.UUID) error {
	log := logger.FromContext(ctx)

	// Serialize starts per event so two concurrent requests cannot both
	// pass the completed check and double-schedule the rounds.
	lock := s.locks.GetLock(eventID.String())
	lock.Lock()
	defer lock.Unlock()

	cfg, err := s.configs.GetDrawConfig(ctx, eventID)
	if err != nil {
		return err
	}
	if cfg.Completed {
		return fmt.Errorf("%w: event %s", domain.ErrDrawAlreadyStarted, eventID)
	}

	participants, err := s.participants.ListParticipants(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to list participants: %w", err)
	}

	// Intro fan-out must not delay scheduling; failures are
	// per-contact and already absorbed by the dispatcher.
	if cfg.IntroMessage != "" && len(participants) > 0 {
		contacts, err := s.resolveParticipantContacts(ctx, participants)
		if err != nil {
			return err
		}

		introCtx := context.WithoutCancel(ctx)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.notifier.Dispatch(introCtx, contacts, cfg.IntroMessage, "")
		}()
	}

	now := time.Now()
	for round := 1; round <= cfg.DrawDuration; round++ {
		fireAt := now.Add(time.Duration(cfg.DrawInterval*round) * time.Hour)
		payload := domain.DrawRoundPayload{
			EventID:        eventID,
			Round:          round,
			WinnerNumber:   cfg.WinnerNumber,
			WinnersMessage: cfg.WinnersMessage,
		}

		if err := s.runner.ScheduleAt(ctx, fireAt, JobKindDrawRound, payload); err != nil {
			return fmt.Errorf("failed to schedule round %d: %w", round, err)
		}
	}

	if err := s.configs.MarkDrawCompleted(ctx, eventID); err != nil {
		return err
	}

	log.Info("Draw started",
		"event_id", eventID,
		"rounds", cfg.DrawDuration,
		"interval_hours", cfg.DrawInterval,
		"winners_per_round", cfg.WinnerNumber)

	if s.eventBus != nil {
		if err := s.eventBus.Publish(ctx, event.NewDrawStartedEvent(eventID, cfg.DrawDuration)); err != nil {
			log.Error("Failed to publish draw started event", "error", err)
		}
	}
	return nil
}

// ExecuteRound runs one draw round: select winners against the current
// ledger, record them, then notify. The ledger write precedes the
// notification fan-out, so a crash in between can at worst duplicate a
// message, never a prize record. Safe to re-run: selection excludes
// recorded winners and RecordWinners skips duplicates.
func (s *service) ExecuteRound(ctx context.Context, payload domain.DrawRoundPayload) error {
	log := logger.FromContext(ctx)
	log.Info("Draw round started",
		"event_id", payload.EventID,
		"round", payload.Round,
		"winner_number", payload.WinnerNumber)

	participants, err := s.participants.ListParticipants(ctx, payload.EventID)
	if err != nil {
		return fmt.Errorf("failed to list participants: %w", err)
	}

	alreadyWon, err := s.winners.ListWinners(ctx, payload.EventID)
	if err != nil {
		return fmt.Errorf("failed to list winners: %w", err)
	}

	selected := SelectWinners(participants, alreadyWon, payload.WinnerNumber)
	if len(selected) == 0 {
		log.Info("No eligible participants remain",
			"event_id", payload.EventID, "round", payload.Round)
		return nil
	}

	if err := s.winners.RecordWinners(ctx, payload.EventID, selected); err != nil {
		return err
	}

	contacts, err := s.resolveParticipantContacts(ctx, selected)
	if err != nil {
		return err
	}

	failures := s.notifier.Dispatch(ctx, contacts, payload.WinnersMessage, "")

	shortIDs := make([]int, len(selected))
	for i, p := range selected {
		shortIDs[i] = p.ShortID
	}

	log.Info("Draw round completed",
		"event_id", payload.EventID,
		"round", payload.Round,
		"winners", shortIDs,
		"failed_sends", len(failures))

	if s.eventBus != nil {
		completed := event.NewDrawRoundCompletedEvent(payload.EventID, payload.Round, shortIDs, len(failures))
		if err := s.eventBus.Publish(ctx, completed); err != nil {
			log.Error("Failed to publish round completed event", "error", err)
		}
	}
	return nil
}

// ListWinners reports the winner ledger joined with participant names
func (s *service) ListWinners(ctx context.Context, eventID uuid.UUID) ([]domain.WinnerInfo, error) {
	records, err := s.winners.ListWinners(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	participants, err := s.participants.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	byShortID := make(map[int]domain.Participant, len(participants))
	for _, p := range participants {
		byShortID[p.ShortID] = p
	}

	infos := make([]domain.WinnerInfo, 0, len(records))
	for _, rec := range records {
		p, ok := byShortID[rec.ShortID]
		if !ok {
			// Ledger row without a live participant; keep the short id visible
			infos = append(infos, domain.WinnerInfo{ShortID: rec.ShortID, PrizeClaimed: rec.Claimed})
			continue
		}
		infos = append(infos, domain.WinnerInfo{
			FirstName:    p.FirstName,
			LastName:     p.LastName,
			ShortID:      rec.ShortID,
			PrizeClaimed: rec.Claimed,
		})
	}
	return infos, nil
}

func (s *service) resolveParticipantContacts(ctx context.Context, participants []domain.Participant) ([]domain.Contact, error) {
	ids := make([]uuid.UUID, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}

	contacts, err := s.contacts.ResolveContacts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve contacts: %w", err)
	}
	return contacts, nil
}

// Shutdown waits for any in-flight intro fan-out to settle
func (s *service) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
