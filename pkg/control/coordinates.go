package control

import (
	"fmt"

	"github.com/ghostop14/kraken-api-agent/pkg/settings"
)

// CoordinateOptions carries the optional location parameters. Nil fields were
// not supplied by the caller and must leave whatever the document already
// stores untouched; an explicit empty value never overwrites a stored one by
// accident.
type CoordinateOptions struct {
	Heading             *float64
	LocationSource      *string
	GPSFixedHeading     *bool
	GPSMinSpeed         *int
	GPSMinSpeedDuration *int
}

// CoordinatesUpdate builds a mutation that sets the station position and any
// explicitly supplied optional location fields.
func CoordinatesUpdate(latitude, longitude float64, opts CoordinateOptions) (settings.Mutation, error) {
	if latitude < -90 || latitude > 90 {
		return nil, fmt.Errorf("%w: latitude must range from -90 to 90", ErrInvalidParameter)
	}
	if longitude < -180 || longitude > 180 {
		return nil, fmt.Errorf("%w: longitude must range from -180 to 180", ErrInvalidParameter)
	}
	if opts.Heading != nil && (*opts.Heading < 0 || *opts.Heading >= 360) {
		return nil, fmt.Errorf("%w: heading must range from 0 to 360", ErrInvalidParameter)
	}
	if opts.GPSMinSpeed != nil && *opts.GPSMinSpeed < 0 {
		return nil, fmt.Errorf("%w: gps_min_speed must not be negative", ErrInvalidParameter)
	}
	if opts.GPSMinSpeedDuration != nil && *opts.GPSMinSpeedDuration < 0 {
		return nil, fmt.Errorf("%w: gps_min_speed_duration must not be negative", ErrInvalidParameter)
	}

	return func(doc settings.Document) (settings.Document, error) {
		doc["latitude"] = latitude
		doc["longitude"] = longitude
		if opts.Heading != nil {
			doc["heading"] = *opts.Heading
		}
		if opts.LocationSource != nil {
			doc["location_source"] = *opts.LocationSource
		}
		if opts.GPSFixedHeading != nil {
			doc["gps_fixed_heading"] = *opts.GPSFixedHeading
		}
		if opts.GPSMinSpeed != nil {
			doc["gps_min_speed"] = float64(*opts.GPSMinSpeed)
		}
		if opts.GPSMinSpeedDuration != nil {
			doc["gps_min_speed_duration"] = float64(*opts.GPSMinSpeedDuration)
		}
		return doc, nil
	}, nil
}
