package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"aquarium_wot/internal/models"
)

// sampleRetention bounds the in-memory journal.
const sampleRetention = 1000

const (
	insertSampleSQL = `
		INSERT INTO sensor_samples (sampled_at, ph, temperature, oxygen_level, ph_status, temperature_status, oxygen_level_status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	pruneSamplesSQL = `
		DELETE FROM sensor_samples
		WHERE id <= (SELECT MAX(id) FROM sensor_samples) - ?
	`

	selectRecentSamplesSQL = `
		SELECT id, sampled_at, ph, temperature, oxygen_level, ph_status, temperature_status, oxygen_level_status
		FROM sensor_samples ORDER BY id DESC LIMIT ?
	`
)

type SampleSQLite struct {
	db *sql.DB
}

func NewSampleSQLite(db *sql.DB) *SampleSQLite {
	return &SampleSQLite{db: db}
}

// Save appends a sample and trims the journal to the retention window.
func (r *SampleSQLite) Save(ctx context.Context, s models.Sample) error {
	ts := s.SampledAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	_, err := r.db.ExecContext(ctx, insertSampleSQL,
		ts,
		s.Values.PH,
		s.Values.Temperature,
		s.Values.OxygenLevel,
		string(s.Statuses[models.ParamPH]),
		string(s.Statuses[models.ParamTemperature]),
		string(s.Statuses[models.ParamOxygenLevel]),
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, pruneSamplesSQL, sampleRetention); err != nil {
		return fmt.Errorf("prune samples: %w", err)
	}
	return nil
}

// Recent returns up to limit samples, newest first.
func (r *SampleSQLite) Recent(ctx context.Context, limit int) ([]models.Sample, error) {
	if limit <= 0 || limit > sampleRetention {
		limit = sampleRetention
	}
	rows, err := r.db.QueryContext(ctx, selectRecentSamplesSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("select samples: %w", err)
	}
	defer rows.Close()

	out := make([]models.Sample, 0, limit)
	for rows.Next() {
		var (
			s                      models.Sample
			phSt, tempSt, oxygenSt string
		)
		if err := rows.Scan(&s.ID, &s.SampledAt, &s.Values.PH, &s.Values.Temperature, &s.Values.OxygenLevel,
			&phSt, &tempSt, &oxygenSt); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		s.SampledAt = s.SampledAt.UTC()
		s.Statuses = map[string]models.ParameterStatus{
			models.ParamPH:          models.ParameterStatus(phSt),
			models.ParamTemperature: models.ParameterStatus(tempSt),
			models.ParamOxygenLevel: models.ParameterStatus(oxygenSt),
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
