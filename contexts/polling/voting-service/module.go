package votingservice

import (
	"log/slog"

	httpadapter "ballotbox/contexts/polling/voting-service/adapters/http"
	"ballotbox/contexts/polling/voting-service/adapters/memory"
	"ballotbox/contexts/polling/voting-service/application/commands"
	"ballotbox/contexts/polling/voting-service/application/queries"
	"ballotbox/contexts/polling/voting-service/ports"
)

// Module is the wired voting service. Store is set only for memory-backed
// modules and is nil when the service runs on Postgres.
type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Catalog ports.PollCatalog
	Polls   ports.PollDefinitionStore
	Tallies ports.TallyLedger
	Random  ports.RandomSource
	Outbox  ports.OutboxWriter
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Metrics ports.VotingMetrics
	OwnerID string
	Logger  *slog.Logger
}

func NewModule(deps Dependencies) Module {
	pollUseCase := commands.PollUseCase{
		Catalog: deps.Catalog,
		Random:  deps.Random,
		Outbox:  deps.Outbox,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Metrics: deps.Metrics,
		Logger:  deps.Logger,
	}
	voteUseCase := commands.VoteUseCase{
		Tallies: deps.Tallies,
		Outbox:  deps.Outbox,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Metrics: deps.Metrics,
		Logger:  deps.Logger,
	}
	queryUseCase := queries.PollQueryUseCase{
		Polls:   deps.Polls,
		Tallies: deps.Tallies,
		Logger:  deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Polls:   pollUseCase,
			Votes:   voteUseCase,
			Queries: queryUseCase,
			OwnerID: deps.OwnerID,
			Logger:  deps.Logger,
		},
	}
}

// NewInMemoryModule wires every port to one memory.Store. Events land in the
// store's outbox; metrics are dropped.
func NewInMemoryModule(ownerID string, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Catalog: store,
		Polls:   store,
		Tallies: store,
		Random:  store,
		Outbox:  store,
		Clock:   store,
		IDGen:   store,
		OwnerID: ownerID,
		Logger:  logger,
	})
	module.Store = store
	return module
}
