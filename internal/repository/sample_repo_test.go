package repository

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aquarium_wot/internal/models"
	"aquarium_wot/internal/repository/db"
)

func sampleFixture(at time.Time) models.Sample {
	return models.Sample{
		SampledAt: at,
		Values:    models.WaterParameterSet{PH: 7.1, Temperature: 25.4, OxygenLevel: 6.8},
		Statuses: map[string]models.ParameterStatus{
			models.ParamPH:          models.StatusOK,
			models.ParamTemperature: models.StatusOK,
			models.ParamOxygenLevel: models.StatusWarning,
		},
	}
}

func TestSampleSave_InsertsAndPrunes(t *testing.T) {
	t.Parallel()

	conn, mock := newMock(t)
	repo := NewSampleSQLite(conn)
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(insertSampleSQL)).
		WithArgs(at, 7.1, 25.4, 6.8, "ok", "ok", "warning").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(pruneSamplesSQL)).
		WithArgs(sampleRetention).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Save(ctx(t), sampleFixture(at)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSampleSave_InsertError(t *testing.T) {
	t.Parallel()

	conn, mock := newMock(t)
	repo := NewSampleSQLite(conn)

	mock.ExpectExec("INSERT INTO sensor_samples").WillReturnError(errors.New("disk gone"))

	err := repo.Save(ctx(t), sampleFixture(time.Time{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert sample")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSampleRecent_ClampsLimit(t *testing.T) {
	t.Parallel()

	conn, mock := newMock(t)
	repo := NewSampleSQLite(conn)

	mock.ExpectQuery(regexp.QuoteMeta(selectRecentSamplesSQL)).
		WithArgs(sampleRetention).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sampled_at", "ph", "temperature", "oxygen_level",
			"ph_status", "temperature_status", "oxygen_level_status"}))

	got, err := repo.Recent(ctx(t), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSampleRepo_InMemoryRoundTrip(t *testing.T) {
	t.Parallel()

	conn, err := db.InitDB(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	repo := NewSampleSQLite(conn)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		s := sampleFixture(base.Add(time.Duration(i) * time.Second))
		s.Values.PH += float64(i) / 10
		require.NoError(t, repo.Save(ctx(t), s))
	}

	got, err := repo.Recent(ctx(t), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 7.3, got[0].Values.PH, 1e-9)
	assert.InDelta(t, 7.2, got[1].Values.PH, 1e-9)
	assert.Equal(t, models.StatusWarning, got[0].Statuses[models.ParamOxygenLevel])
	assert.True(t, got[0].SampledAt.After(got[1].SampledAt))
}
