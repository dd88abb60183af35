// Package doa fetches the appliance's live direction-of-arrival readout and
// converts it from CSV to a typed JSON-friendly map.
package doa

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUnavailable indicates the telemetry endpoint could not be reached
	// or did not answer in time.
	ErrUnavailable = errors.New("telemetry unavailable")
	// ErrMalformed indicates the endpoint answered with CSV this bridge
	// cannot make sense of.
	ErrMalformed = errors.New("telemetry malformed")
)

// Reading is one DOA snapshot keyed by the CSV field names. Values the
// appliance reports as numbers come back as float64, everything else as
// string. Columns this agent does not recognize are passed through verbatim
// so newer DOA firmware degrades gracefully instead of erroring.
type Reading map[string]interface{}

// Bridge fetches DOA readings from the appliance's CSV endpoint. Readings
// are ephemeral; every Fetch is a fresh network round trip.
type Bridge struct {
	url    string
	client *http.Client
}

// NewBridge creates a bridge for the DOA endpoint at url. A slow or dead
// endpoint fails after timeout rather than blocking the caller.
func NewBridge(url string, timeout time.Duration) *Bridge {
	return &Bridge{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// URL returns the telemetry endpoint address.
func (b *Bridge) URL() string {
	return b.url
}

// Fetch retrieves and parses the current DOA reading.
func (b *Bridge) Fetch(ctx context.Context) (Reading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: endpoint returned status %d", ErrUnavailable, resp.StatusCode)
	}

	return ParseCSV(resp.Body)
}

// ParseCSV converts the DOA CSV into a Reading. The first row carries the
// field names, the next row the values; a missing value row or a row whose
// column count disagrees with the header is malformed.
func ParseCSV(r io.Reader) (Reading, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: missing header row: %v", ErrMalformed, err)
	}

	row, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: missing value row", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if len(row) != len(header) {
		return nil, fmt.Errorf("%w: header has %d columns, row has %d",
			ErrMalformed, len(header), len(row))
	}

	reading := make(Reading, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		value := strings.TrimSpace(row[i])
		if number, err := strconv.ParseFloat(value, 64); err == nil {
			reading[name] = number
		} else {
			reading[name] = value
		}
	}
	return reading, nil
}
