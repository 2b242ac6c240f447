package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	application "ballotbox/contexts/polling/voting-service/application"
	"ballotbox/contexts/polling/voting-service/domain/entities"
	domainerrors "ballotbox/contexts/polling/voting-service/domain/errors"
	"ballotbox/contexts/polling/voting-service/ports"
	contractsv1 "ballotbox/contracts/gen/events/v1"
)

// CastVoteCommand is one ballot. Selections maps option id to a checked flag;
// unchecked entries are accepted and ignored.
type CastVoteCommand struct {
	PollKey    string
	VoterID    string
	Selections map[string]bool
}

// VoteUseCase applies ballots through the tally ledger. It returns
// ErrUnknownPoll and ErrDuplicateVote so the boundary can report them as data.
type VoteUseCase struct {
	Tallies ports.TallyLedger
	Outbox  ports.OutboxWriter
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Metrics ports.VotingMetrics
	Logger  *slog.Logger
}

func (uc VoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	metrics := application.ResolveMetrics(uc.Metrics)
	logger.Info("vote processing started",
		"event", "polling_vote_started",
		"module", application.ModuleName,
		"layer", "application",
		"poll_key", cmd.PollKey,
		"voter_id", cmd.VoterID,
	)
	if strings.TrimSpace(cmd.VoterID) == "" || strings.TrimSpace(cmd.PollKey) == "" {
		logger.Warn("vote validation failed",
			"event", "polling_vote_validation_failed",
			"module", application.ModuleName,
			"layer", "application",
			"poll_key", cmd.PollKey,
			"voter_id", cmd.VoterID,
		)
		metrics.VoteRejected("invalid_input")
		return domainerrors.ErrInvalidPollInput
	}

	if err := uc.Tallies.RecordVote(ctx, cmd.PollKey, cmd.VoterID, cmd.Selections); err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrUnknownPoll):
			logger.Warn("vote rejected for unknown poll",
				"event", "polling_vote_unknown_poll",
				"module", application.ModuleName,
				"layer", "application",
				"poll_key", cmd.PollKey,
				"voter_id", cmd.VoterID,
			)
			metrics.VoteRejected("unknown_poll")
		case errors.Is(err, domainerrors.ErrDuplicateVote):
			logger.Warn("vote rejected; identity already voted",
				"event", "polling_vote_duplicate",
				"module", application.ModuleName,
				"layer", "application",
				"poll_key", cmd.PollKey,
				"voter_id", cmd.VoterID,
			)
			metrics.VoteRejected("duplicate_vote")
		default:
			logger.Error("vote record failed",
				"event", "polling_vote_record_failed",
				"module", application.ModuleName,
				"layer", "application",
				"poll_key", cmd.PollKey,
				"voter_id", cmd.VoterID,
				"error", err.Error(),
			)
		}
		return err
	}

	checked := entities.CheckedOptions(cmd.Selections)
	// The ballot is already committed; a lost event must not turn it into a rejection.
	if err := appendPollEvent(ctx, uc.Outbox, uc.IDGen, contractsv1.EventVoteCast, cmd.PollKey, resolveNow(uc.Clock), map[string]any{
		"voter_id":   cmd.VoterID,
		"option_ids": checked,
	}); err != nil {
		logger.Warn("vote cast event append failed",
			"event", "polling_vote_cast_event_failed",
			"module", application.ModuleName,
			"layer", "application",
			"poll_key", cmd.PollKey,
			"voter_id", cmd.VoterID,
			"error", err.Error(),
		)
	}
	metrics.VoteCounted()

	logger.Info("vote counted",
		"event", "polling_vote_counted",
		"module", application.ModuleName,
		"layer", "application",
		"poll_key", cmd.PollKey,
		"voter_id", cmd.VoterID,
		"checked_options", len(checked),
	)
	return nil
}
