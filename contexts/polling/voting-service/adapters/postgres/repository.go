package postgresadapter

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"ballotbox/contexts/polling/voting-service/domain/entities"
	domainerrors "ballotbox/contexts/polling/voting-service/domain/errors"
	"ballotbox/contexts/polling/voting-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the poll tables when they are missing.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(
		&pollModel{},
		&tallyModel{},
		&optionCountModel{},
		&voterModel{},
		&outboxModel{},
		&eventDedupModel{},
	); err != nil {
		return r.logError("polling_repo_migrate_failed", err)
	}
	return nil
}

func (r *Repository) PutPoll(ctx context.Context, pollKey string, poll entities.PollDefinition) error {
	row, err := pollModelFromEntity(pollKey, poll)
	if err != nil {
		return r.logError("polling_repo_put_poll_marshal_failed", err, "poll_key", pollKey)
	}
	if create := upsertPoll(r.db.WithContext(ctx), &row); create.Error != nil {
		return r.logError("polling_repo_put_poll_failed", create.Error,
			"poll_key", pollKey,
			"poll_id", poll.PollID,
		)
	}
	return nil
}

func (r *Repository) GetPoll(ctx context.Context, pollKey string) (entities.PollDefinition, error) {
	var row pollModel
	err := r.db.WithContext(ctx).
		Where("poll_key = ?", pollKey).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PollDefinition{}, domainerrors.ErrPollNotFound
		}
		return entities.PollDefinition{}, r.logError("polling_repo_get_poll_failed", err, "poll_key", pollKey)
	}
	poll, err := row.toEntity()
	if err != nil {
		return entities.PollDefinition{}, r.logError("polling_repo_get_poll_decode_failed", err, "poll_key", pollKey)
	}
	return poll, nil
}

// CreatePollWithTally claims the tally row first so an existing tally aborts the
// transaction before the definition is touched.
func (r *Repository) CreatePollWithTally(ctx context.Context, pollKey string, poll entities.PollDefinition) error {
	row, err := pollModelFromEntity(pollKey, poll)
	if err != nil {
		return r.logError("polling_repo_create_poll_marshal_failed", err, "poll_key", pollKey)
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		create := insertTally(tx, pollKey, time.Now().UTC())
		if create.Error != nil {
			return create.Error
		}
		if create.RowsAffected == 0 {
			return domainerrors.ErrTallyAlreadyExists
		}
		return upsertPoll(tx, &row).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrTallyAlreadyExists) {
			return err
		}
		return r.logError("polling_repo_create_poll_failed", err,
			"poll_key", pollKey,
			"poll_id", poll.PollID,
		)
	}
	return nil
}

func (r *Repository) InitializeTally(ctx context.Context, pollKey string) error {
	create := insertTally(r.db.WithContext(ctx), pollKey, time.Now().UTC())
	if create.Error != nil {
		return r.logError("polling_repo_initialize_tally_failed", create.Error, "poll_key", pollKey)
	}
	if create.RowsAffected == 0 {
		return domainerrors.ErrTallyAlreadyExists
	}
	return nil
}

func (r *Repository) HasVoted(ctx context.Context, pollKey string, identity string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&voterModel{}).
		Where("poll_key = ? AND voter_id = ?", pollKey, identity).
		Count(&count).Error; err != nil {
		return false, r.logError("polling_repo_has_voted_failed", err,
			"poll_key", pollKey,
			"voter_id", identity,
		)
	}
	return count > 0, nil
}

// RecordVote locks the tally row for the whole ballot so concurrent ballots on
// one poll run one at a time. The voter row goes in before any count moves.
func (r *Repository) RecordVote(
	ctx context.Context,
	pollKey string,
	identity string,
	selections map[string]bool,
) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tally tallyModel
		if err := lockTally(tx, pollKey, &tally).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrUnknownPoll
			}
			return err
		}

		insert := insertVoter(tx, &voterModel{
			PollKey: pollKey,
			VoterID: identity,
			VotedAt: now,
		})
		if insert.Error != nil {
			if isUniqueViolation(insert.Error) {
				return domainerrors.ErrDuplicateVote
			}
			return insert.Error
		}
		if insert.RowsAffected == 0 {
			return domainerrors.ErrDuplicateVote
		}

		for _, optionID := range entities.CheckedOptions(selections) {
			if err := incrementOptionCount(tx, pollKey, optionID).Error; err != nil {
				return err
			}
		}
		return tx.Model(&tallyModel{}).
			Where("poll_key = ?", pollKey).
			Update("updated_at", now).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrUnknownPoll) || errors.Is(err, domainerrors.ErrDuplicateVote) {
			return err
		}
		return r.logError("polling_repo_record_vote_failed", err,
			"poll_key", pollKey,
			"voter_id", identity,
		)
	}
	return nil
}

func (r *Repository) GetTally(ctx context.Context, pollKey string) (entities.TallyRecord, error) {
	var tally tallyModel
	if err := r.db.WithContext(ctx).
		Where("poll_key = ?", pollKey).
		First(&tally).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.TallyRecord{}, domainerrors.ErrUnknownPoll
		}
		return entities.TallyRecord{}, r.logError("polling_repo_get_tally_failed", err, "poll_key", pollKey)
	}

	var counts []optionCountModel
	if err := r.db.WithContext(ctx).
		Where("poll_key = ?", pollKey).
		Order("option_id ASC").
		Find(&counts).Error; err != nil {
		return entities.TallyRecord{}, r.logError("polling_repo_list_counts_failed", err, "poll_key", pollKey)
	}
	var voters []voterModel
	if err := r.db.WithContext(ctx).
		Where("poll_key = ?", pollKey).
		Order("voted_at ASC").
		Find(&voters).Error; err != nil {
		return entities.TallyRecord{}, r.logError("polling_repo_list_voters_failed", err, "poll_key", pollKey)
	}

	record := entities.NewTallyRecord(pollKey)
	for _, row := range counts {
		record.Counts[row.OptionID] = row.Votes
	}
	for _, row := range voters {
		record.Voted[row.VoterID] = struct{}{}
	}
	return record, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("polling_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("polling_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("polling_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("polling_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("polling_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ReserveEvent(ctx context.Context, eventID string, payloadHash string) (bool, error) {
	row := eventDedupModel{
		EventID:     eventID,
		PayloadHash: payloadHash,
		ProcessedAt: time.Now().UTC(),
	}
	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return false, r.logError("polling_repo_reserve_event_failed", createResult.Error, "event_id", eventID)
	}
	if createResult.RowsAffected > 0 {
		return false, nil
	}

	var existing eventDedupModel
	if err := r.db.WithContext(ctx).
		Select("payload_hash").
		Where("event_id = ?", eventID).
		First(&existing).
		Error; err != nil {
		return false, r.logError("polling_repo_reserve_event_lookup_failed", err, "event_id", eventID)
	}
	if existing.PayloadHash != payloadHash {
		return false, domainerrors.ErrConflict
	}
	return true, nil
}

func upsertPoll(tx *gorm.DB, row *pollModel) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "poll_key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"poll_id":    row.PollID,
			"creator_id": row.CreatorID,
			"question":   row.Question,
			"options":    row.Options,
		}),
	}).Create(row)
}

func insertTally(tx *gorm.DB, pollKey string, now time.Time) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "poll_key"}},
		DoNothing: true,
	}).Create(&tallyModel{
		PollKey:   pollKey,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func lockTally(tx *gorm.DB, pollKey string, out *tallyModel) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("poll_key = ?", pollKey).
		First(out)
}

// insertVoter affects zero rows when the identity already voted on the poll.
func insertVoter(tx *gorm.DB, row *voterModel) *gorm.DB {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
}

func incrementOptionCount(tx *gorm.DB, pollKey string, optionID string) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "poll_key"}, {Name: "option_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"votes": gorm.Expr("poll_option_counts.votes + 1"),
		}),
	}).Create(&optionCountModel{
		PollKey:  pollKey,
		OptionID: optionID,
		Votes:    1,
	})
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "polling/voting-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("polling repository operation failed", fields...)
	return err
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// SystemRandom reads poll seeds from the operating system CSPRNG.
type SystemRandom struct{}

func (SystemRandom) RandomSeed(_ context.Context) ([]byte, error) {
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	return seed, nil
}

type pollModel struct {
	PollKey   string    `gorm:"column:poll_key;primaryKey"`
	PollID    string    `gorm:"column:poll_id;index"`
	CreatorID string    `gorm:"column:creator_id"`
	Question  string    `gorm:"column:question"`
	Options   []byte    `gorm:"column:options"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (pollModel) TableName() string {
	return "polls"
}

type pollOptionJSON struct {
	OptionID string `json:"option_id"`
	Label    string `json:"message"`
}

func pollModelFromEntity(pollKey string, poll entities.PollDefinition) (pollModel, error) {
	options := make([]pollOptionJSON, 0, len(poll.Options))
	for _, option := range poll.Options {
		options = append(options, pollOptionJSON{OptionID: option.OptionID, Label: option.Label})
	}
	raw, err := json.Marshal(options)
	if err != nil {
		return pollModel{}, err
	}
	return pollModel{
		PollKey:   pollKey,
		PollID:    poll.PollID,
		CreatorID: poll.CreatorID,
		Question:  poll.Question,
		Options:   raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (m pollModel) toEntity() (entities.PollDefinition, error) {
	var options []pollOptionJSON
	if len(m.Options) > 0 {
		if err := json.Unmarshal(m.Options, &options); err != nil {
			return entities.PollDefinition{}, err
		}
	}
	poll := entities.PollDefinition{
		CreatorID: m.CreatorID,
		PollID:    m.PollID,
		Question:  m.Question,
		Options:   make([]entities.PollOption, 0, len(options)),
	}
	for _, option := range options {
		poll.Options = append(poll.Options, entities.PollOption{OptionID: option.OptionID, Label: option.Label})
	}
	return poll, nil
}

type tallyModel struct {
	PollKey   string    `gorm:"column:poll_key;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (tallyModel) TableName() string {
	return "poll_tallies"
}

type optionCountModel struct {
	PollKey  string `gorm:"column:poll_key;primaryKey"`
	OptionID string `gorm:"column:option_id;primaryKey"`
	Votes    int    `gorm:"column:votes"`
}

func (optionCountModel) TableName() string {
	return "poll_option_counts"
}

type voterModel struct {
	PollKey string    `gorm:"column:poll_key;primaryKey"`
	VoterID string    `gorm:"column:voter_id;primaryKey"`
	VotedAt time.Time `gorm:"column:voted_at"`
}

func (voterModel) TableName() string {
	return "poll_voters"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "poll_outbox"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "poll_event_dedup"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.PollCatalog = (*Repository)(nil)
var _ ports.PollDefinitionStore = (*Repository)(nil)
var _ ports.TallyLedger = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.EventDedupStore = (*Repository)(nil)
var _ ports.Clock = SystemClock{}
var _ ports.IDGenerator = UUIDGenerator{}
var _ ports.RandomSource = SystemRandom{}
