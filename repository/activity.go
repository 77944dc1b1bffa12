package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/theamal11z/grocerygunj-dashboard"
)

// ActivityRecord is the persisted form of an auth activity event. This is
// the one durable store this core owns; profile rows live in the hosted
// backend.
type ActivityRecord struct {
	bun.BaseModel `bun:"table:auth_activity,alias:act"`
	ID            uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	EventType     string         `bun:"event_type,notnull" json:"event_type,omitempty"`
	ActorID       string         `bun:"actor_id" json:"actor_id,omitempty"`
	ActorType     string         `bun:"actor_type" json:"actor_type,omitempty"`
	UserID        string         `bun:"user_id" json:"user_id,omitempty"`
	FromState     string         `bun:"from_state" json:"from_state,omitempty"`
	ToState       string         `bun:"to_state" json:"to_state,omitempty"`
	Metadata      map[string]any `bun:"metadata" json:"metadata,omitempty"`
	OccurredAt    *time.Time     `bun:"occurred_at,nullzero,default:current_timestamp" json:"occurred_at,omitempty"`
	CreatedAt     *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Activities is the repository surface for activity records.
type Activities interface {
	repository.Repository[*ActivityRecord]
}

type activities struct {
	repository.Repository[*ActivityRecord]
	db *bun.DB
}

var _ Activities = (*activities)(nil)
var _ repository.Repository[*ActivityRecord] = (*activities)(nil)

// NewActivitiesRepository builds the bun-backed activity repository.
func NewActivitiesRepository(db *bun.DB) Activities {
	repo := repository.NewRepository[*ActivityRecord](db, repository.ModelHandlers[*ActivityRecord]{
		NewRecord: func() *ActivityRecord { return &ActivityRecord{} },
		GetID: func(r *ActivityRecord) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *ActivityRecord, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
	})

	return &activities{
		Repository: repo,
		db:         db,
	}
}

// CreateActivityTable ensures the table exists. Call once at startup.
func CreateActivityTable(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*ActivityRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// BunActivitySink persists lifecycle activity events. It implements
// adminauth.ActivitySink. Record ids are derived from the event contents so
// a replayed event dedupes instead of duplicating.
type BunActivitySink struct {
	repo   Activities
	logger adminauth.Logger
}

// NewBunActivitySink wraps the repository as a sink.
func NewBunActivitySink(repo Activities, logger adminauth.Logger) *BunActivitySink {
	return &BunActivitySink{repo: repo, logger: logger}
}

// Record implements adminauth.ActivitySink.
func (s *BunActivitySink) Record(ctx context.Context, event adminauth.ActivityEvent) error {
	record := &ActivityRecord{
		EventType: string(event.EventType),
		ActorID:   event.Actor.ID,
		ActorType: event.Actor.Type,
		UserID:    event.UserID,
		FromState: string(event.FromState),
		ToState:   string(event.ToState),
		Metadata:  event.Metadata,
	}

	if !event.OccurredAt.IsZero() {
		t := event.OccurredAt
		record.OccurredAt = &t
	}

	seed := fmt.Sprintf("%s|%s|%s|%d",
		event.EventType, event.UserID, event.ToState, event.OccurredAt.UnixNano())
	if id, err := hashid.NewUUID(seed); err == nil {
		record.ID = id
	}

	if _, err := s.repo.Upsert(ctx, record); err != nil {
		if s.logger != nil {
			s.logger.Warn("could not persist activity event %s: %v", event.EventType, err)
		}
		return err
	}

	return nil
}
