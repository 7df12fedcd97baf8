package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"aquarium_wot/internal/logger"
	"aquarium_wot/internal/models"
)

// ErrPeerUnavailable wraps a failed read or write on the water peer.
var ErrPeerUnavailable = errors.New("water peer unavailable")

const (
	DefaultCorrectionRate = 0.8
	correctionTolerance   = 0.01
)

// CorrectionResult describes one correction tick.
type CorrectionResult struct {
	Attempted bool               // the peer was contacted
	Written   map[string]float64 // stored (clamped) values of the parameters moved
}

// CorrectionLoop nudges the water toward the optimal midpoints, proportionally
// to pump speed. Pumps and the mock actuator each own one.
type CorrectionLoop struct {
	water  WaterPeer
	config ConfigSource
	link   *peerLink
	rate   float64
	log    *logger.Logger
}

func NewCorrectionLoop(water WaterPeer, config ConfigSource, link *peerLink, rate float64, log *logger.Logger) *CorrectionLoop {
	if rate <= 0 {
		rate = DefaultCorrectionRate
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CorrectionLoop{water: water, config: config, link: link, rate: rate, log: log}
}

// Tick moves every parameter toward its target by at most rate*speed/100,
// never past it. Nothing happens at speed 0 or while the peer is backing off.
func (c *CorrectionLoop) Tick(ctx context.Context, now time.Time, speed int) (CorrectionResult, error) {
	var res CorrectionResult
	if speed <= 0 || !c.link.due(now) {
		return res, nil
	}
	res.Attempted = true

	current, err := c.water.Read(ctx)
	if err != nil {
		c.link.fail(ctx, now, err)
		return res, fmt.Errorf("%w: read: %v", ErrPeerUnavailable, err)
	}

	targets := c.config.Load().Targets()
	maxStep := c.rate * float64(speed) / 100

	for _, p := range models.Parameters {
		target, ok := targets[p]
		if !ok {
			continue
		}
		value, _ := current.Get(p)
		next, move := stepToward(value, target, maxStep)
		if !move {
			continue
		}
		wr, err := c.water.Write(ctx, p, next)
		if err != nil {
			c.link.fail(ctx, now, err)
			return res, fmt.Errorf("%w: write %s: %v", ErrPeerUnavailable, p, err)
		}
		if res.Written == nil {
			res.Written = make(map[string]float64, len(models.Parameters))
		}
		res.Written[p] = wr.Value
	}

	c.link.ok(ctx, now)
	if len(res.Written) > 0 {
		c.log.Debugw("correction_applied", "speed", speed, "written", res.Written)
	}
	return res, nil
}

// Link reports the connection state toward the water.
func (c *CorrectionLoop) Link() models.ConnectionHealth { return c.link.snapshot() }

// stepToward returns the next value and false when value is already within
// tolerance of target.
func stepToward(value, target, maxStep float64) (float64, bool) {
	diff := target - value
	if math.Abs(diff) <= correctionTolerance {
		return value, false
	}
	if math.Abs(diff) <= maxStep {
		return target, true
	}
	if diff > 0 {
		return value + maxStep, true
	}
	return value - maxStep, true
}
