package http

import (
	"encoding/json"
	"errors"
	"strconv"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreatePollRequest keys options by option id; values are display labels.
type CreatePollRequest struct {
	Question string            `json:"question"`
	Variants map[string]string `json:"variants"`
}

type CreatePollResponse struct {
	PollKey string `json:"poll_id"`
}

// SelectionFlag accepts JSON booleans and numbers (0 is unchecked) so clients
// that post checkbox state as 1/0 keep working.
type SelectionFlag bool

func (f *SelectionFlag) UnmarshalJSON(data []byte) error {
	var checked bool
	if err := json.Unmarshal(data, &checked); err == nil {
		*f = SelectionFlag(checked)
		return nil
	}
	number, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return errors.New("vote flag must be a boolean or a number")
	}
	*f = number != 0
	return nil
}

type VoteRequest struct {
	PollKey string                   `json:"poll_id"`
	Votes   map[string]SelectionFlag `json:"votes"`
}

type VoteResponse struct {
	Counted bool   `json:"counted"`
	Message string `json:"message"`
}

type PollOption struct {
	OptionID string `json:"option_id"`
	Message  string `json:"message"`
}

type PollResponse struct {
	Creator  string       `json:"creator"`
	PollID   string       `json:"poll_id"`
	Question string       `json:"question"`
	Variants []PollOption `json:"variants"`
}

type TallyResponse struct {
	PollKey  string         `json:"poll_id"`
	Variants map[string]int `json:"variants"`
	Voted    map[string]int `json:"voted"`
}

type ResultsResponse struct {
	Found   bool          `json:"found"`
	Poll    PollResponse  `json:"poll"`
	Results TallyResponse `json:"results"`
}

type PingResponse struct {
	Message string `json:"message"`
}
