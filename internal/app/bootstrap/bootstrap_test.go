package bootstrap

import (
	"context"
	"testing"

	votingservice "ballotbox/contexts/polling/voting-service"
	"ballotbox/contexts/polling/voting-service/adapters/memory"
)

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{
		"":      ":8080",
		" 9090": ":9090",
		":7070": ":7070",
	}
	for input, want := range cases {
		if got := normalizeAddr(input); got != want {
			t.Fatalf("normalizeAddr(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestBuildAPIWithoutPostgresUsesMemoryStore(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("HTTP_PORT", "0")

	app, err := BuildAPI(context.Background())
	if err != nil {
		t.Fatalf("build api: %v", err)
	}
	defer app.Close()

	if app.postgres != nil {
		t.Fatalf("expected no postgres connection in memory mode")
	}
	if app.outboxRelay == nil || app.activity == nil {
		t.Fatalf("expected in-process relay and activity consumer in memory mode")
	}
	if app.polls.Store == nil {
		t.Fatalf("expected memory store on the poll module")
	}
}

func TestBuildPollModuleLeavesStoreNilWithoutMemoryStore(t *testing.T) {
	store := memory.NewStore()
	backed := buildPollModule(votingservice.Dependencies{Catalog: store, Polls: store, Tallies: store}, store)
	if backed.Store != store {
		t.Fatalf("expected memory-backed module to expose its store")
	}

	external := buildPollModule(votingservice.Dependencies{Catalog: store, Polls: store, Tallies: store}, nil)
	if external.Store != nil {
		t.Fatalf("expected nil store for a module without a memory store")
	}
}

func TestBuildWorkerRequiresPostgres(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")

	if _, err := BuildWorker(context.Background()); err == nil {
		t.Fatalf("expected worker build to fail without POSTGRES_DSN")
	}
}
