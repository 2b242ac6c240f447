package httpadapter

import (
	"context"
	"errors"
	"log/slog"

	"ballotbox/contexts/polling/voting-service/application/commands"
	"ballotbox/contexts/polling/voting-service/application/queries"
	"ballotbox/contexts/polling/voting-service/domain/entities"
	domainerrors "ballotbox/contexts/polling/voting-service/domain/errors"
	httptransport "ballotbox/contexts/polling/voting-service/transport/http"
)

const (
	voteCountedMessage    = "Your voice is counted"
	voteNotCountedMessage = "Your voice is NOT counted"
)

// Handler is the service boundary. Vote and show operations are total: domain
// failures come back as data and only infrastructure failures return an error.
type Handler struct {
	Polls   commands.PollUseCase
	Votes   commands.VoteUseCase
	Queries queries.PollQueryUseCase
	OwnerID string
	Logger  *slog.Logger
}

func (h Handler) CreatePollHandler(
	ctx context.Context,
	creatorID string,
	req httptransport.CreatePollRequest,
) (httptransport.CreatePollResponse, error) {
	result, err := h.Polls.CreatePoll(ctx, commands.CreatePollCommand{
		CreatorID: creatorID,
		OwnerID:   h.OwnerID,
		Question:  req.Question,
		Options:   req.Variants,
	})
	if err != nil {
		return httptransport.CreatePollResponse{}, err
	}
	return httptransport.CreatePollResponse{PollKey: result.PollKey}, nil
}

func (h Handler) VoteHandler(
	ctx context.Context,
	voterID string,
	req httptransport.VoteRequest,
) (httptransport.VoteResponse, error) {
	selections := make(map[string]bool, len(req.Votes))
	for optionID, checked := range req.Votes {
		selections[optionID] = bool(checked)
	}
	err := h.Votes.CastVote(ctx, commands.CastVoteCommand{
		PollKey:    req.PollKey,
		VoterID:    voterID,
		Selections: selections,
	})
	switch {
	case err == nil:
		return httptransport.VoteResponse{Counted: true, Message: voteCountedMessage}, nil
	case errors.Is(err, domainerrors.ErrUnknownPoll),
		errors.Is(err, domainerrors.ErrDuplicateVote),
		errors.Is(err, domainerrors.ErrInvalidPollInput):
		return httptransport.VoteResponse{
			Counted: false,
			Message: voteNotCountedMessage + ": " + err.Error(),
		}, nil
	default:
		return httptransport.VoteResponse{}, err
	}
}

func (h Handler) ShowPollHandler(ctx context.Context, pollKey string) (httptransport.PollResponse, error) {
	result, err := h.Queries.ShowPoll(ctx, pollKey)
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return mapPoll(result.Poll), nil
}

func (h Handler) ShowResultsHandler(ctx context.Context, pollKey string) (httptransport.ResultsResponse, error) {
	result, err := h.Queries.ShowResults(ctx, pollKey)
	if err != nil {
		return httptransport.ResultsResponse{}, err
	}
	voted := make(map[string]int, len(result.Tally.Voted))
	for _, voterID := range result.Tally.Voters() {
		voted[voterID] = 1
	}
	variants := make(map[string]int, len(result.Tally.Counts))
	for optionID, count := range result.Tally.Counts {
		variants[optionID] = count
	}
	return httptransport.ResultsResponse{
		Found: result.Known,
		Poll:  mapPoll(result.Poll),
		Results: httptransport.TallyResponse{
			PollKey:  pollKey,
			Variants: variants,
			Voted:    voted,
		},
	}, nil
}

func (h Handler) PingHandler(ctx context.Context) httptransport.PingResponse {
	return httptransport.PingResponse{Message: h.Queries.Ping(ctx)}
}

func mapPoll(poll entities.PollDefinition) httptransport.PollResponse {
	variants := make([]httptransport.PollOption, 0, len(poll.Options))
	for _, option := range poll.Options {
		variants = append(variants, httptransport.PollOption{
			OptionID: option.OptionID,
			Message:  option.Label,
		})
	}
	return httptransport.PollResponse{
		Creator:  poll.CreatorID,
		PollID:   poll.PollID,
		Question: poll.Question,
		Variants: variants,
	}
}
