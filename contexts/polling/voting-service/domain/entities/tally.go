package entities

import (
	"sort"

	domainerrors "ballotbox/contexts/polling/voting-service/domain/errors"
)

// TallyRecord holds per-option counts and the identities that already voted.
// Counts only ever grow and Voted never shrinks.
type TallyRecord struct {
	PollKey string
	Counts  map[string]int
	Voted   map[string]struct{}
}

func NewTallyRecord(pollKey string) TallyRecord {
	return TallyRecord{
		PollKey: pollKey,
		Counts:  make(map[string]int),
		Voted:   make(map[string]struct{}),
	}
}

func (t TallyRecord) HasVoted(identity string) bool {
	_, ok := t.Voted[identity]
	return ok
}

// Apply charges identity's single ballot and counts every checked selection.
// The identity is marked as voted before any count changes, so an empty or
// all-false selection still uses up the ballot.
func (t *TallyRecord) Apply(identity string, selections map[string]bool) error {
	if t.HasVoted(identity) {
		return domainerrors.ErrDuplicateVote
	}
	if t.Voted == nil {
		t.Voted = make(map[string]struct{})
	}
	if t.Counts == nil {
		t.Counts = make(map[string]int)
	}
	t.Voted[identity] = struct{}{}
	for optionID, checked := range selections {
		if !checked {
			continue
		}
		t.Counts[optionID]++
	}
	return nil
}

func (t TallyRecord) Clone() TallyRecord {
	clone := NewTallyRecord(t.PollKey)
	for optionID, count := range t.Counts {
		clone.Counts[optionID] = count
	}
	for identity := range t.Voted {
		clone.Voted[identity] = struct{}{}
	}
	return clone
}

// Voters returns voted identities in lexical order.
func (t TallyRecord) Voters() []string {
	items := make([]string, 0, len(t.Voted))
	for identity := range t.Voted {
		items = append(items, identity)
	}
	sort.Strings(items)
	return items
}

// CheckedOptions returns the option ids a selection map actually votes for.
func CheckedOptions(selections map[string]bool) []string {
	items := make([]string, 0, len(selections))
	for optionID, checked := range selections {
		if checked {
			items = append(items, optionID)
		}
	}
	sort.Strings(items)
	return items
}
