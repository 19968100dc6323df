package service

import (
	"context"

	"Zephyr/internal/domain/models"
)

// Forecaster turns an event request into a probability snapshot.
type Forecaster interface {
	TemperatureProbability(ctx context.Context, req models.TemperatureEventRequest) (*models.ForecastSnapshot, error)
	PrecipProbability(ctx context.Context, req models.PrecipEventRequest) (*models.ForecastSnapshot, error)
}
