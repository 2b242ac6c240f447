package memory

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"ballotbox/contexts/polling/voting-service/domain/entities"
	domainerrors "ballotbox/contexts/polling/voting-service/domain/errors"
	"ballotbox/contexts/polling/voting-service/ports"

	"github.com/google/uuid"
)

const seedSize = 32

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// tallyEntry serializes ballots for one poll; votes on different polls only
// share the index read lock.
type tallyEntry struct {
	mu     sync.Mutex
	record entities.TallyRecord
}

// Store is the process-local poll substrate. One Store is built at startup and
// owned by the module; nothing here is package-global.
type Store struct {
	mu sync.RWMutex

	polls   map[string]entities.PollDefinition
	tallies map[string]*tallyEntry
	outbox  map[string]outboxRecord
	events  map[string]string
}

func NewStore() *Store {
	return &Store{
		polls:   make(map[string]entities.PollDefinition),
		tallies: make(map[string]*tallyEntry),
		outbox:  make(map[string]outboxRecord),
		events:  make(map[string]string),
	}
}

func (s *Store) PutPoll(_ context.Context, pollKey string, poll entities.PollDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls[pollKey] = poll.Clone()
	return nil
}

func (s *Store) GetPoll(_ context.Context, pollKey string) (entities.PollDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	poll, ok := s.polls[pollKey]
	if !ok {
		return entities.PollDefinition{}, domainerrors.ErrPollNotFound
	}
	return poll.Clone(), nil
}

func (s *Store) InitializeTally(_ context.Context, pollKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tallies[pollKey]; exists {
		return domainerrors.ErrTallyAlreadyExists
	}
	s.tallies[pollKey] = &tallyEntry{record: entities.NewTallyRecord(pollKey)}
	return nil
}

func (s *Store) CreatePollWithTally(_ context.Context, pollKey string, poll entities.PollDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tallies[pollKey]; exists {
		return domainerrors.ErrTallyAlreadyExists
	}
	s.polls[pollKey] = poll.Clone()
	s.tallies[pollKey] = &tallyEntry{record: entities.NewTallyRecord(pollKey)}
	return nil
}

func (s *Store) HasVoted(_ context.Context, pollKey string, identity string) (bool, error) {
	entry := s.tallyEntry(pollKey)
	if entry == nil {
		return false, nil
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.record.HasVoted(identity), nil
}

func (s *Store) RecordVote(
	_ context.Context,
	pollKey string,
	identity string,
	selections map[string]bool,
) error {
	entry := s.tallyEntry(pollKey)
	if entry == nil {
		return domainerrors.ErrUnknownPoll
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.record.Apply(identity, selections)
}

func (s *Store) GetTally(_ context.Context, pollKey string) (entities.TallyRecord, error) {
	entry := s.tallyEntry(pollKey)
	if entry == nil {
		return entities.TallyRecord{}, domainerrors.ErrUnknownPoll
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.record.Clone(), nil
}

func (s *Store) tallyEntry(pollKey string) *tallyEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tallies[pollKey]
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].OutboxID < items[j].OutboxID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.events[eventID]; ok {
		if existing != payloadHash {
			return false, domainerrors.ErrConflict
		}
		return true, nil
	}
	s.events[eventID] = payloadHash
	return false, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) RandomSeed(_ context.Context) ([]byte, error) {
	seed := make([]byte, seedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	return seed, nil
}

var _ ports.PollCatalog = (*Store)(nil)
var _ ports.PollDefinitionStore = (*Store)(nil)
var _ ports.TallyLedger = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.RandomSource = (*Store)(nil)
var _ ports.EventDedupStore = (*Store)(nil)
