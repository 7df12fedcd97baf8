package client

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"aquarium_wot/internal/models"
)

// WaterHTTP is a remote water Thing.
type WaterHTTP struct {
	rc *resty.Client
}

func NewWaterHTTP(baseURL string, timeout time.Duration) *WaterHTTP {
	return &WaterHTTP{rc: newRestClient(baseURL, timeout)}
}

type valueBody struct {
	Value float64 `json:"value"`
}

func (c *WaterHTTP) Read(ctx context.Context) (models.WaterParameterSet, error) {
	var out models.WaterParameterSet
	resp, err := c.rc.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/water/properties")
	if err := checkResponse("read water", resp, err); err != nil {
		return models.WaterParameterSet{}, err
	}
	return out, nil
}

func (c *WaterHTTP) Write(ctx context.Context, parameter string, value float64) (models.WriteResult, error) {
	var out models.WriteResult
	resp, err := c.rc.R().
		SetContext(ctx).
		SetPathParam("name", parameter).
		SetBody(valueBody{Value: value}).
		SetResult(&out).
		Put("/water/properties/{name}")
	if err := checkResponse("write "+parameter, resp, err); err != nil {
		return models.WriteResult{}, err
	}
	return out, nil
}

func (c *WaterHTTP) StartDegradation(ctx context.Context) error {
	resp, err := c.rc.R().SetContext(ctx).Post("/water/actions/startDegradation")
	return checkResponse("start degradation", resp, err)
}

func (c *WaterHTTP) StopDegradation(ctx context.Context) error {
	resp, err := c.rc.R().SetContext(ctx).Post("/water/actions/stopDegradation")
	return checkResponse("stop degradation", resp, err)
}
