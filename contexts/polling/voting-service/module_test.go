package votingservice_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	votingservice "ballotbox/contexts/polling/voting-service"
	"ballotbox/contexts/polling/voting-service/application/commands"
	domainerrors "ballotbox/contexts/polling/voting-service/domain/errors"
	httptransport "ballotbox/contexts/polling/voting-service/transport/http"
	contractsv1 "ballotbox/contracts/gen/events/v1"
)

func createPoll(t *testing.T, module votingservice.Module, creator string) string {
	t.Helper()
	resp, err := module.Handler.CreatePollHandler(context.Background(), creator, httptransport.CreatePollRequest{
		Question: "Ship it?",
		Variants: map[string]string{"V2": "no", "V1": "yes"},
	})
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}
	return resp.PollKey
}

func vote(t *testing.T, module votingservice.Module, pollKey string, voter string, votes map[string]bool) httptransport.VoteResponse {
	t.Helper()
	flags := make(map[string]httptransport.SelectionFlag, len(votes))
	for optionID, checked := range votes {
		flags[optionID] = httptransport.SelectionFlag(checked)
	}
	resp, err := module.Handler.VoteHandler(context.Background(), voter, httptransport.VoteRequest{
		PollKey: pollKey,
		Votes:   flags,
	})
	if err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	return resp
}

func TestYesNoPollScenario(t *testing.T) {
	module := votingservice.NewInMemoryModule("host", nil)
	ctx := context.Background()
	created, err := module.Handler.CreatePollHandler(ctx, "alice", httptransport.CreatePollRequest{
		Question: "Ship it?",
		Variants: map[string]string{"yes": "Yes", "no": "No"},
	})
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}
	pollKey := created.PollKey

	poll, err := module.Handler.ShowPollHandler(ctx, pollKey)
	if err != nil {
		t.Fatalf("show poll failed: %v", err)
	}
	if pollKey != "owner=host&voting="+poll.PollID {
		t.Fatalf("external key %q does not wrap poll id %q", pollKey, poll.PollID)
	}
	wantVariants := []httptransport.PollOption{{OptionID: "no", Message: "No"}, {OptionID: "yes", Message: "Yes"}}
	if !reflect.DeepEqual(poll.Variants, wantVariants) {
		t.Fatalf("unexpected variants %+v", poll.Variants)
	}

	assertTally := func(wantCounts map[string]int, wantVoters []string) {
		t.Helper()
		tally, err := module.Store.GetTally(ctx, pollKey)
		if err != nil {
			t.Fatalf("get tally failed: %v", err)
		}
		if !reflect.DeepEqual(tally.Counts, wantCounts) {
			t.Fatalf("expected counts %+v, got %+v", wantCounts, tally.Counts)
		}
		if !reflect.DeepEqual(tally.Voters(), wantVoters) {
			t.Fatalf("expected voters %v, got %v", wantVoters, tally.Voters())
		}
	}

	if resp := vote(t, module, pollKey, "V1", map[string]bool{"yes": true}); !resp.Counted {
		t.Fatalf("expected V1's vote to count: %+v", resp)
	}
	assertTally(map[string]int{"yes": 1}, []string{"V1"})

	if resp := vote(t, module, pollKey, "V1", map[string]bool{"no": true}); resp.Counted {
		t.Fatalf("expected V1's second vote to be rejected")
	}
	assertTally(map[string]int{"yes": 1}, []string{"V1"})

	if resp := vote(t, module, pollKey, "V2", map[string]bool{"no": true}); !resp.Counted {
		t.Fatalf("expected V2's vote to count: %+v", resp)
	}
	assertTally(map[string]int{"yes": 1, "no": 1}, []string{"V1", "V2"})
}

func TestSelectiveCounting(t *testing.T) {
	module := votingservice.NewInMemoryModule("host", nil)
	pollKey := createPoll(t, module, "alice")

	vote(t, module, pollKey, "bob", map[string]bool{"V1": true, "V2": false})
	tally, err := module.Store.GetTally(context.Background(), pollKey)
	if err != nil {
		t.Fatalf("get tally failed: %v", err)
	}
	if !reflect.DeepEqual(tally.Counts, map[string]int{"V1": 1}) {
		t.Fatalf("expected only V1 counted, got %+v", tally.Counts)
	}
}

func TestAllFalseBallotConsumesVote(t *testing.T) {
	module := votingservice.NewInMemoryModule("host", nil)
	pollKey := createPoll(t, module, "alice")

	if resp := vote(t, module, pollKey, "dave", map[string]bool{"V1": false, "V2": false}); !resp.Counted {
		t.Fatalf("expected all-false ballot to be accepted: %+v", resp)
	}
	tally, err := module.Store.GetTally(context.Background(), pollKey)
	if err != nil {
		t.Fatalf("get tally failed: %v", err)
	}
	if len(tally.Counts) != 0 {
		t.Fatalf("expected empty counts, got %+v", tally.Counts)
	}
	if !tally.HasVoted("dave") {
		t.Fatalf("expected dave in the voted set")
	}
	if resp := vote(t, module, pollKey, "dave", map[string]bool{"V1": true}); resp.Counted {
		t.Fatalf("expected dave's second ballot to be rejected")
	}
	tally, _ = module.Store.GetTally(context.Background(), pollKey)
	if len(tally.Counts) != 0 {
		t.Fatalf("rejected ballot changed counts: %+v", tally.Counts)
	}
}

func TestCreatePollKeysAreUnique(t *testing.T) {
	module := votingservice.NewInMemoryModule("host", slog.New(slog.NewTextHandler(io.Discard, nil)))
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		result, err := module.Handler.Polls.CreatePoll(context.Background(), commands.CreatePollCommand{
			CreatorID: "alice",
			OwnerID:   "host",
			Question:  "q",
		})
		if err != nil {
			t.Fatalf("create %d failed: %v", i, err)
		}
		if _, dup := seen[result.PollKey]; dup {
			t.Fatalf("duplicate poll key after %d creations: %s", i, result.PollKey)
		}
		seen[result.PollKey] = struct{}{}
	}
}

func TestShowPollIsIdempotent(t *testing.T) {
	module := votingservice.NewInMemoryModule("host", nil)
	ctx := context.Background()
	pollKey := createPoll(t, module, "alice")

	first, err := module.Handler.ShowPollHandler(ctx, pollKey)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := module.Handler.ShowPollHandler(ctx, pollKey)
		if err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("show poll changed between reads: %+v vs %+v", first, again)
		}
	}
}

func TestShowPollUnknownReturnsPlaceholder(t *testing.T) {
	module := votingservice.NewInMemoryModule("host", nil)
	poll, err := module.Handler.ShowPollHandler(context.Background(), "owner=host&voting=nothing")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	want := httptransport.PollResponse{
		Creator:  "Bogus",
		PollID:   "000000000000",
		Question: "Bogus question",
		Variants: []httptransport.PollOption{
			{OptionID: "variant1", Message: "Variant 1"},
			{OptionID: "variant2", Message: "Variant2 2"},
		},
	}
	if !reflect.DeepEqual(poll, want) {
		t.Fatalf("unexpected placeholder %+v", poll)
	}
}

func TestVoteOnUnknownPollCreatesNothing(t *testing.T) {
	module := votingservice.NewInMemoryModule("host", nil)
	ctx := context.Background()

	resp := vote(t, module, "owner=host&voting=ghost", "bob", map[string]bool{"V1": true})
	if resp.Counted || !strings.Contains(resp.Message, "NOT counted") {
		t.Fatalf("expected rejection, got %+v", resp)
	}
	if _, err := module.Store.GetTally(ctx, "owner=host&voting=ghost"); !errors.Is(err, domainerrors.ErrUnknownPoll) {
		t.Fatalf("expected no tally for unknown poll, got %v", err)
	}
	results, err := module.Handler.ShowResultsHandler(ctx, "owner=host&voting=ghost")
	if err != nil {
		t.Fatalf("show results failed: %v", err)
	}
	if results.Found || len(results.Results.Variants) != 0 || results.Poll.Creator != "Bogus" {
		t.Fatalf("unexpected results for unknown poll %+v", results)
	}
}

func TestVoteRejectsMissingIdentity(t *testing.T) {
	module := votingservice.NewInMemoryModule("host", nil)
	pollKey := createPoll(t, module, "alice")

	err := module.Handler.Votes.CastVote(context.Background(), commands.CastVoteCommand{PollKey: pollKey})
	if !errors.Is(err, domainerrors.ErrInvalidPollInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if resp := vote(t, module, pollKey, "", map[string]bool{"V1": true}); resp.Counted {
		t.Fatalf("expected empty identity to be rejected")
	}
}

func TestCreatePollRequiresIdentities(t *testing.T) {
	module := votingservice.NewInMemoryModule("", nil)
	_, err := module.Handler.CreatePollHandler(context.Background(), "alice", httptransport.CreatePollRequest{Question: "q"})
	if !errors.Is(err, domainerrors.ErrInvalidPollInput) {
		t.Fatalf("expected invalid input without owner, got %v", err)
	}
}

func TestShowResultsReportsTally(t *testing.T) {
	module := votingservice.NewInMemoryModule("host", nil)
	ctx := context.Background()
	pollKey := createPoll(t, module, "alice")
	vote(t, module, pollKey, "bob", map[string]bool{"V1": true, "V2": true})
	vote(t, module, pollKey, "dave", nil)

	results, err := module.Handler.ShowResultsHandler(ctx, pollKey)
	if err != nil {
		t.Fatalf("show results failed: %v", err)
	}
	if !results.Found || results.Poll.Creator != "alice" {
		t.Fatalf("unexpected poll in results %+v", results.Poll)
	}
	if !reflect.DeepEqual(results.Results.Variants, map[string]int{"V1": 1, "V2": 1}) {
		t.Fatalf("unexpected counts %+v", results.Results.Variants)
	}
	if !reflect.DeepEqual(results.Results.Voted, map[string]int{"bob": 1, "dave": 1}) {
		t.Fatalf("unexpected voters %+v", results.Results.Voted)
	}
}

func TestPollEventsLandInOutbox(t *testing.T) {
	module := votingservice.NewInMemoryModule("host", nil)
	ctx := context.Background()
	pollKey := createPoll(t, module, "alice")
	vote(t, module, pollKey, "bob", map[string]bool{"V1": true})
	vote(t, module, pollKey, "bob", map[string]bool{"V1": true})

	pending, err := module.Store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected poll.created and one vote.cast, got %d rows", len(pending))
	}
	types := map[string]bool{}
	for _, row := range pending {
		types[row.EventType] = true
		if row.PartitionKey != pollKey {
			t.Fatalf("expected partition by poll key, got %q", row.PartitionKey)
		}
		var envelope contractsv1.Envelope
		if err := json.Unmarshal(row.Payload, &envelope); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		if envelope.SourceService != "voting-service" || envelope.SchemaVersion != 1 {
			t.Fatalf("unexpected envelope %+v", envelope)
		}
	}
	if !types[contractsv1.EventPollCreated] || !types[contractsv1.EventVoteCast] {
		t.Fatalf("unexpected event types %+v", types)
	}
}

func TestPing(t *testing.T) {
	module := votingservice.NewInMemoryModule("host", nil)
	if got := module.Handler.PingHandler(context.Background()); got.Message != "HELLO" {
		t.Fatalf("expected HELLO, got %q", got.Message)
	}
}
