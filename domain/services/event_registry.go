package services

import (
	"context"
	"fmt"
	"strings"

	"betledger/domain/entities"
	"betledger/domain/eventid"
	"betledger/domain/events"
	"betledger/domain/interfaces"
	"betledger/domain/ledgererr"
	"betledger/domain/odds"

	log "github.com/sirupsen/logrus"
)

type eventRegistry struct {
	sportEventRepo interfaces.SportEventRepository
	eventPublisher interfaces.EventPublisher
}

// NewEventRegistry creates a new event registry
func NewEventRegistry(
	sportEventRepo interfaces.SportEventRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.EventRegistry {
	return &eventRegistry{
		sportEventRepo: sportEventRepo,
		eventPublisher: eventPublisher,
	}
}

// CreateSportEvent validates params, derives the uid and stores the event
func (s *eventRegistry) CreateSportEvent(ctx context.Context, params entities.SportEventParams) (*entities.SportEvent, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	uid, err := eventid.Derive(params.SportID, params.GenderID, params.StartTime, params.Title)
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.ReasonInvalidStartTime, err, "cannot derive uid")
	}

	existing, err := s.sportEventRepo.GetByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing event: %w", err)
	}
	if existing != nil {
		return nil, ledgererr.New(ledgererr.ReasonDuplicateEvent, "event %s already registered", uid.Hex())
	}

	multipliers, err := odds.Multipliers(params.SeedPool, params.InitialWeights)
	if err != nil {
		return nil, err
	}

	event := &entities.SportEvent{
		UID:        uid,
		Title:      params.Title,
		StartTime:  params.StartTime,
		SportID:    params.SportID,
		GenderID:   params.GenderID,
		PoolAmount: params.SeedPool,
		SeedPool:   params.SeedPool,
		Choices:    make([]entities.Choice, len(params.ChoiceLabels)),
		Status:     entities.SportEventStatusOpen,
	}
	for i, label := range params.ChoiceLabels {
		event.Choices[i] = entities.Choice{
			ID:                i,
			Label:             label,
			InitialWeight:     params.InitialWeights[i],
			TotalBetsAmount:   params.InitialWeights[i],
			CurrentMultiplier: multipliers[i],
		}
	}

	if err := s.sportEventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create sport event: %w", err)
	}

	if err := s.eventPublisher.Publish(events.EventCreated{
		UID:       uid,
		Title:     event.Title,
		SportID:   event.SportID,
		StartTime: event.StartTime,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish event created: %w", err)
	}

	log.WithFields(log.Fields{
		"uid":       uid.Hex(),
		"title":     event.Title,
		"sport":     entities.Sport(event.SportID),
		"startTime": event.StartTime,
		"choices":   len(event.Choices),
	}).Info("Sport event created")

	return event, nil
}

func validateParams(params entities.SportEventParams) error {
	if strings.TrimSpace(params.Title) == "" {
		return ledgererr.New(ledgererr.ReasonInvalidTitle, "title cannot be empty")
	}
	if params.StartTime < 0 {
		return ledgererr.New(ledgererr.ReasonInvalidStartTime, "start time must not be negative")
	}

	n := len(params.ChoiceLabels)
	if n < entities.MinChoices || n > entities.MaxChoices {
		return ledgererr.New(ledgererr.ReasonInvalidChoiceCount, "need %d to %d choices, got %d", entities.MinChoices, entities.MaxChoices, n)
	}
	if len(params.InitialWeights) != n {
		return ledgererr.New(ledgererr.ReasonInvalidChoiceCount, "%d labels but %d weights", n, len(params.InitialWeights))
	}
	for i, w := range params.InitialWeights {
		if w <= 0 {
			return ledgererr.New(ledgererr.ReasonInvalidWeight, "weight of choice %d must be positive, got %d", i, w)
		}
	}
	if params.SeedPool < 0 {
		return ledgererr.New(ledgererr.ReasonInvalidSeedPool, "seed pool must not be negative, got %d", params.SeedPool)
	}
	return nil
}
