package settings

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnavailable indicates the settings document is missing or unreadable.
	ErrUnavailable = errors.New("settings document unavailable")
	// ErrCorrupt indicates the settings document exists but is not valid JSON.
	ErrCorrupt = errors.New("settings document corrupt")
)

// Document is the KrakenSDR settings.json content. The schema is owned by the
// DOA processor, not by this agent, so it is kept as a generic JSON object and
// unknown keys pass through untouched.
type Document map[string]interface{}

// Clone returns a deep copy of the document. Mutations operate on a copy so a
// failed mutation can never leave the loaded document half-modified.
func (d Document) Clone() Document {
	data, err := json.Marshal(d)
	if err != nil {
		// A document that came from json.Unmarshal always re-marshals.
		panic(fmt.Sprintf("settings: clone failed: %v", err))
	}
	var copied Document
	if err := json.Unmarshal(data, &copied); err != nil {
		panic(fmt.Sprintf("settings: clone failed: %v", err))
	}
	return copied
}

// Mutation transforms a document. It receives a private copy of the current
// document and returns the document to persist. Returning an error aborts the
// transaction before anything is written.
type Mutation func(doc Document) (Document, error)
