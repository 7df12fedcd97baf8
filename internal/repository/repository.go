package repository

import (
	"context"
	"database/sql"
	"time"

	"aquarium_wot/internal/models"
)

// EventRepo is the journal of discrete Thing events.
type EventRepo interface {
	Append(ctx context.Context, e models.ThingEvent) error
	List(ctx context.Context, f EventQuery) ([]models.ThingEvent, error)
}

// SampleRepo keeps the most recent sensor samples.
type SampleRepo interface {
	Save(ctx context.Context, s models.Sample) error
	Recent(ctx context.Context, limit int) ([]models.Sample, error)
}

// EventQuery filters the event journal. Zero values mean "no filter".
type EventQuery struct {
	From  time.Time
	To    time.Time
	Type  string
	Thing string
}

type Repository struct {
	EventRepo  EventRepo
	SampleRepo SampleRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		EventRepo:  NewEventSQLite(db),
		SampleRepo: NewSampleSQLite(db),
	}
}
