package entities

const (
	PlaceholderCreatorID = "Bogus"
	PlaceholderPollID    = "000000000000"
	PlaceholderQuestion  = "Bogus question"
)

type PollOption struct {
	OptionID string
	Label    string
}

// PollDefinition is immutable once stored. PollID is the generated base58 id;
// callers address the poll by its external key, not by PollID.
type PollDefinition struct {
	CreatorID string
	PollID    string
	Question  string
	Options   []PollOption
}

func (p PollDefinition) Clone() PollDefinition {
	clone := p
	clone.Options = append([]PollOption(nil), p.Options...)
	return clone
}

func (p PollDefinition) HasOption(optionID string) bool {
	for _, option := range p.Options {
		if option.OptionID == optionID {
			return true
		}
	}
	return false
}

// PlaceholderPoll is returned for lookups of unknown poll keys.
func PlaceholderPoll() PollDefinition {
	return PollDefinition{
		CreatorID: PlaceholderCreatorID,
		PollID:    PlaceholderPollID,
		Question:  PlaceholderQuestion,
		Options: []PollOption{
			{OptionID: "variant1", Label: "Variant 1"},
			{OptionID: "variant2", Label: "Variant2 2"},
		},
	}
}
