package http

import (
	"encoding/json"
	"testing"
)

func TestVoteRequestAcceptsBooleanAndNumericFlags(t *testing.T) {
	var req VoteRequest
	body := `{"poll_id":"owner=o&voting=p","votes":{"V1":1,"V2":0,"V3":true,"V4":false}}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if req.PollKey != "owner=o&voting=p" {
		t.Fatalf("unexpected poll key %q", req.PollKey)
	}
	want := map[string]bool{"V1": true, "V2": false, "V3": true, "V4": false}
	for optionID, checked := range want {
		if bool(req.Votes[optionID]) != checked {
			t.Fatalf("option %s: expected %v, got %v", optionID, checked, req.Votes[optionID])
		}
	}
}

func TestVoteRequestRejectsTextFlags(t *testing.T) {
	var req VoteRequest
	if err := json.Unmarshal([]byte(`{"poll_id":"k","votes":{"V1":"yes"}}`), &req); err == nil {
		t.Fatalf("expected error for string flag")
	}
}
