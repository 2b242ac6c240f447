package commands

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	application "ballotbox/contexts/polling/voting-service/application"
	"ballotbox/contexts/polling/voting-service/domain/entities"
	domainerrors "ballotbox/contexts/polling/voting-service/domain/errors"
	"ballotbox/contexts/polling/voting-service/domain/services"
	"ballotbox/contexts/polling/voting-service/ports"
	contractsv1 "ballotbox/contracts/gen/events/v1"
)

// CreatePollCommand carries trusted identities from the host: CreatorID is the
// caller, OwnerID is the account that hosts the poll and prefixes its key.
type CreatePollCommand struct {
	CreatorID string
	OwnerID   string
	Question  string
	Options   map[string]string
}

type CreatePollResult struct {
	PollKey string
	Poll    entities.PollDefinition
}

// PollUseCase creates polls. Definition and tally are written in one catalog
// call under the external key, so a shown poll always has a tally to vote on.
type PollUseCase struct {
	Catalog ports.PollCatalog
	Random  ports.RandomSource
	Outbox  ports.OutboxWriter
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Metrics ports.VotingMetrics
	Logger  *slog.Logger
}

func (uc PollUseCase) CreatePoll(ctx context.Context, cmd CreatePollCommand) (CreatePollResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	logger.Info("poll create processing started",
		"event", "polling_poll_create_started",
		"module", application.ModuleName,
		"layer", "application",
		"creator_id", cmd.CreatorID,
		"owner_id", cmd.OwnerID,
		"option_count", len(cmd.Options),
	)
	if strings.TrimSpace(cmd.CreatorID) == "" || strings.TrimSpace(cmd.OwnerID) == "" {
		logger.Warn("poll create validation failed",
			"event", "polling_poll_create_validation_failed",
			"module", application.ModuleName,
			"layer", "application",
			"creator_id", cmd.CreatorID,
			"owner_id", cmd.OwnerID,
		)
		return CreatePollResult{}, domainerrors.ErrInvalidPollInput
	}

	seed, err := uc.Random.RandomSeed(ctx)
	if err != nil {
		logger.Error("poll create randomness unavailable",
			"event", "polling_poll_create_random_failed",
			"module", application.ModuleName,
			"layer", "application",
			"creator_id", cmd.CreatorID,
			"error", err.Error(),
		)
		return CreatePollResult{}, err
	}
	pollID := services.GeneratePollID(seed)
	pollKey := services.ExternalKey(cmd.OwnerID, pollID)
	poll := entities.PollDefinition{
		CreatorID: cmd.CreatorID,
		PollID:    pollID,
		Question:  cmd.Question,
		Options:   sortedOptions(cmd.Options),
	}

	if err := uc.Catalog.CreatePollWithTally(ctx, pollKey, poll); err != nil {
		if errors.Is(err, domainerrors.ErrTallyAlreadyExists) {
			logger.Error("poll create found existing tally",
				"event", "polling_poll_create_tally_exists",
				"module", application.ModuleName,
				"layer", "application",
				"poll_key", pollKey,
				"poll_id", pollID,
			)
			return CreatePollResult{}, err
		}
		logger.Error("poll create store write failed",
			"event", "polling_poll_create_store_failed",
			"module", application.ModuleName,
			"layer", "application",
			"poll_key", pollKey,
			"poll_id", pollID,
			"error", err.Error(),
		)
		return CreatePollResult{}, err
	}

	now := resolveNow(uc.Clock)
	optionIDs := make([]string, 0, len(poll.Options))
	for _, option := range poll.Options {
		optionIDs = append(optionIDs, option.OptionID)
	}
	if err := appendPollEvent(ctx, uc.Outbox, uc.IDGen, contractsv1.EventPollCreated, pollKey, now, map[string]any{
		"poll_id":    pollID,
		"creator_id": cmd.CreatorID,
		"owner_id":   cmd.OwnerID,
		"question":   cmd.Question,
		"option_ids": optionIDs,
	}); err != nil {
		logger.Warn("poll created event append failed",
			"event", "polling_poll_created_event_failed",
			"module", application.ModuleName,
			"layer", "application",
			"poll_key", pollKey,
			"error", err.Error(),
		)
	}
	application.ResolveMetrics(uc.Metrics).PollCreated()

	logger.Info("poll created",
		"event", "polling_poll_created",
		"module", application.ModuleName,
		"layer", "application",
		"poll_key", pollKey,
		"poll_id", pollID,
		"creator_id", cmd.CreatorID,
	)
	return CreatePollResult{PollKey: pollKey, Poll: poll.Clone()}, nil
}

// sortedOptions fixes option order for map input so repeated reads of the same
// poll always list options identically.
func sortedOptions(options map[string]string) []entities.PollOption {
	ids := make([]string, 0, len(options))
	for optionID := range options {
		ids = append(ids, optionID)
	}
	sort.Strings(ids)
	items := make([]entities.PollOption, 0, len(ids))
	for _, optionID := range ids {
		items = append(items, entities.PollOption{
			OptionID: optionID,
			Label:    options[optionID],
		})
	}
	return items
}
