package queries

import (
	"context"
	"errors"
	"log/slog"

	application "ballotbox/contexts/polling/voting-service/application"
	"ballotbox/contexts/polling/voting-service/domain/entities"
	domainerrors "ballotbox/contexts/polling/voting-service/domain/errors"
	"ballotbox/contexts/polling/voting-service/ports"
)

const pingReply = "HELLO"

// ShowPollResult reports whether Poll is the stored definition or the
// placeholder served for unknown keys.
type ShowPollResult struct {
	Poll  entities.PollDefinition
	Known bool
}

type PollResults struct {
	Poll  entities.PollDefinition
	Tally entities.TallyRecord
	Known bool
}

type PollQueryUseCase struct {
	Polls   ports.PollDefinitionStore
	Tallies ports.TallyLedger
	Logger  *slog.Logger
}

// ShowPoll never fails on a missing poll; only store failures are returned.
func (uc PollQueryUseCase) ShowPoll(ctx context.Context, pollKey string) (ShowPollResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	poll, err := uc.Polls.GetPoll(ctx, pollKey)
	if err != nil {
		if errors.Is(err, domainerrors.ErrPollNotFound) {
			logger.Info("unknown voting",
				"event", "polling_poll_lookup_unknown",
				"module", application.ModuleName,
				"layer", "application",
				"poll_key", pollKey,
			)
			return ShowPollResult{Poll: entities.PlaceholderPoll()}, nil
		}
		return ShowPollResult{}, err
	}
	logger.Debug("known voting",
		"event", "polling_poll_lookup_known",
		"module", application.ModuleName,
		"layer", "application",
		"poll_key", pollKey,
		"poll_id", poll.PollID,
	)
	return ShowPollResult{Poll: poll, Known: true}, nil
}

// ShowResults pairs a poll with its tally. Unknown keys yield Known=false and
// an empty tally rather than an error.
func (uc PollQueryUseCase) ShowResults(ctx context.Context, pollKey string) (PollResults, error) {
	shown, err := uc.ShowPoll(ctx, pollKey)
	if err != nil {
		return PollResults{}, err
	}
	if !shown.Known {
		return PollResults{Poll: shown.Poll, Tally: entities.NewTallyRecord(pollKey)}, nil
	}
	tally, err := uc.Tallies.GetTally(ctx, pollKey)
	if err != nil {
		if !errors.Is(err, domainerrors.ErrUnknownPoll) {
			return PollResults{}, err
		}
		application.ResolveLogger(uc.Logger).Warn("poll has no tally record",
			"event", "polling_results_tally_missing",
			"module", application.ModuleName,
			"layer", "application",
			"poll_key", pollKey,
		)
		tally = entities.NewTallyRecord(pollKey)
	}
	return PollResults{Poll: shown.Poll, Tally: tally, Known: true}, nil
}

func (uc PollQueryUseCase) Ping(_ context.Context) string {
	return pingReply
}
