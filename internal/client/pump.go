package client

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"aquarium_wot/internal/models"
)

// PumpHTTP is a remote filter pump Thing.
type PumpHTTP struct {
	rc *resty.Client
}

func NewPumpHTTP(baseURL string, timeout time.Duration) *PumpHTTP {
	return &PumpHTTP{rc: newRestClient(baseURL, timeout)}
}

func (c *PumpHTTP) State(ctx context.Context) (models.PumpState, error) {
	var out models.PumpState
	resp, err := c.rc.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/pump/properties")
	if err := checkResponse("read pump", resp, err); err != nil {
		return models.PumpState{}, err
	}
	return out, nil
}
