package postgresadapter

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"ballotbox/contexts/polling/voting-service/domain/entities"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newDryRunDB builds statements against the postgres dialect without opening a
// connection.
func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=ballotbox dbname=ballotbox sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestStatementShapes(t *testing.T) {
	now := time.Date(2026, time.May, 4, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		build func(tx *gorm.DB) *gorm.DB
		want  []string
	}{
		{
			name: "tally row is locked for the ballot",
			build: func(tx *gorm.DB) *gorm.DB {
				return lockTally(tx, "owner=o&voting=p", &tallyModel{})
			},
			want: []string{`FROM "poll_tallies"`, "poll_key = $1", "FOR UPDATE"},
		},
		{
			name: "voter insert ignores an existing voter row",
			build: func(tx *gorm.DB) *gorm.DB {
				return insertVoter(tx, &voterModel{PollKey: "k", VoterID: "bob", VotedAt: now})
			},
			want: []string{`INSERT INTO "poll_voters"`, "ON CONFLICT DO NOTHING"},
		},
		{
			name: "option count increments in place",
			build: func(tx *gorm.DB) *gorm.DB {
				return incrementOptionCount(tx, "k", "V1")
			},
			want: []string{
				`INSERT INTO "poll_option_counts"`,
				`ON CONFLICT ("poll_key","option_id") DO UPDATE`,
				"poll_option_counts.votes + 1",
			},
		},
		{
			name: "tally insert never overwrites",
			build: func(tx *gorm.DB) *gorm.DB {
				return insertTally(tx, "k", now)
			},
			want: []string{`INSERT INTO "poll_tallies"`, `ON CONFLICT ("poll_key") DO NOTHING`},
		},
		{
			name: "poll definition upserts by key",
			build: func(tx *gorm.DB) *gorm.DB {
				return upsertPoll(tx, &pollModel{PollKey: "k", PollID: "p", CreatorID: "alice"})
			},
			want: []string{`INSERT INTO "polls"`, `ON CONFLICT ("poll_key") DO UPDATE`},
		},
	}

	db := newDryRunDB(t)
	for _, tc := range cases {
		stmt := tc.build(db.Session(&gorm.Session{})).Statement
		sql := stmt.SQL.String()
		for _, fragment := range tc.want {
			if !strings.Contains(sql, fragment) {
				t.Fatalf("%s: expected %q in %s", tc.name, fragment, sql)
			}
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert voter: %w", &pgconn.PgError{Code: "23505"})
	if !isUniqueViolation(wrapped) {
		t.Fatalf("expected wrapped 23505 to be a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "40001"}) {
		t.Fatalf("serialization failure must not map to a duplicate vote")
	}
	if isUniqueViolation(errors.New("connection reset")) {
		t.Fatalf("plain errors are not unique violations")
	}
}

func TestPollModelKeepsOptionOrder(t *testing.T) {
	poll := entities.PollDefinition{
		CreatorID: "alice",
		PollID:    "p1",
		Question:  "Lunch?",
		Options: []entities.PollOption{
			{OptionID: "V1", Label: "yes"},
			{OptionID: "V2", Label: "no"},
		},
	}
	row, err := pollModelFromEntity("owner=o&voting=p1", poll)
	if err != nil {
		t.Fatalf("to model: %v", err)
	}
	if !strings.Contains(string(row.Options), `"message":"yes"`) {
		t.Fatalf("expected option labels stored under message, got %s", row.Options)
	}
	back, err := row.toEntity()
	if err != nil {
		t.Fatalf("to entity: %v", err)
	}
	if !reflect.DeepEqual(back, poll) {
		t.Fatalf("expected %+v, got %+v", poll, back)
	}
}
