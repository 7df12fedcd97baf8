package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aquarium_wot/internal/models"
)

func TestMockActuator_SpeedDrivesCorrection(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	water := &fakeWater{values: models.WaterParameterSet{PH: 6.0, Temperature: 25.5, OxygenLevel: 7.0}}
	a := NewMockActuator(h.sched, water, h.config, time.Second, 0, h.bus, nil, nil)
	ctx := context.Background()

	st := a.SetSpeed(ctx, 120)
	assert.Equal(t, 100, st.PumpSpeed)
	assert.True(t, st.Running)
	assert.True(t, a.CorrectionActive())
	assert.Equal(t, "actuator->water", st.Link.Peer)

	res, err := a.RunCorrectionTick(ctx, time.Now())
	require.NoError(t, err)
	assert.InDelta(t, 6.8, res.Written[models.ParamPH], 1e-9)

	st = a.SetSpeed(ctx, 0)
	assert.False(t, st.Running)
	assert.False(t, a.CorrectionActive())
	// the actuator never toggles water degradation
	assert.Zero(t, water.startCalls+water.stopCalls)
}

func TestMockActuator_UnreachableWater(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	water := &fakeWater{writeErr: errors.New("refused"), values: models.WaterParameterSet{PH: 9}}
	a := NewMockActuator(h.sched, water, h.config, time.Second, 0, h.bus, nil, nil)
	ctx := context.Background()
	a.SetSpeed(ctx, 50)

	_, err := a.RunCorrectionTick(ctx, time.Now())
	require.ErrorIs(t, err, ErrPeerUnavailable)
	link := a.Link()
	assert.False(t, link.Reachable)
	assert.EqualValues(t, 2000, link.RetryDelayMs)
	assert.Len(t, h.events.ofType(models.EventPeerLost), 1)
}
