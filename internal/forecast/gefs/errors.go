package gefs

import "errors"

var (
	// ErrNoDatasetFound means run discovery exhausted its lookback window.
	ErrNoDatasetFound = errors.New("no recent GEFS dataset found on NOMADS")
	// ErrParse means an OPeNDAP response could not be read at all.
	ErrParse = errors.New("malformed OPeNDAP response")
	// ErrNoTimesteps means no ensemble timestep falls on the requested local date.
	ErrNoTimesteps = errors.New("no GEFS timesteps for requested local date")
	// ErrNoValidMembers means every ensemble member lacked usable data in the window.
	ErrNoValidMembers = errors.New("no valid ensemble values in event window")
	// ErrNoPrecipVariable means the dataset declares no precipitation-like variable.
	ErrNoPrecipVariable = errors.New("no precipitation variable in dataset DDS")
	// ErrInvalidCoordinate means latitude is outside [-90, 90].
	ErrInvalidCoordinate = errors.New("latitude must be between -90 and 90")
)
