package agent

import (
	"encoding/json"
	"errors"

	"github.com/ghostop14/kraken-api-agent/pkg/control"
	"github.com/ghostop14/kraken-api-agent/pkg/doa"
	"github.com/ghostop14/kraken-api-agent/pkg/settings"
)

// Error codes carried in every response envelope. Callers script against
// these, so the table is append-only.
const (
	CodeOK                   = 0
	CodeMissingParameter     = 1
	CodeInvalidParameter     = 2
	CodeInvalidGain          = 3
	CodeDocumentUnavailable  = 10
	CodeDocumentCorrupt      = 11
	CodeTelemetryUnavailable = 20
	CodeTelemetryMalformed   = 21
	CodeInternal             = 99
)

// Envelope is the uniform response of every API operation: errcode 0 with an
// empty errmsg on success, a non-zero code with a human-readable message on
// failure, plus whatever payload keys the operation produces.
type Envelope struct {
	ErrCode int
	ErrMsg  string
	Payload map[string]interface{}
}

// MarshalJSON flattens the payload next to errcode/errmsg, producing the
// {"errcode": 0, "errmsg": "", "settings": {...}} wire shape.
func (e Envelope) MarshalJSON() ([]byte, error) {
	body := make(map[string]interface{}, len(e.Payload)+2)
	for key, value := range e.Payload {
		body[key] = value
	}
	body["errcode"] = e.ErrCode
	body["errmsg"] = e.ErrMsg
	return json.Marshal(body)
}

// OK returns a success envelope with no payload.
func OK() Envelope {
	return Envelope{ErrCode: CodeOK}
}

// OKWith returns a success envelope carrying a single payload key.
func OKWith(key string, value interface{}) Envelope {
	return Envelope{
		ErrCode: CodeOK,
		Payload: map[string]interface{}{key: value},
	}
}

// Failure returns an error envelope with an explicit code.
func Failure(code int, message string) Envelope {
	return Envelope{ErrCode: code, ErrMsg: message}
}

// FromError maps an error from the store, translator, or telemetry bridge to
// its envelope. No error escapes this boundary untyped: anything outside the
// known taxonomy becomes CodeInternal.
func FromError(err error) Envelope {
	code := CodeInternal
	switch {
	case errors.Is(err, control.ErrMissingParameter):
		code = CodeMissingParameter
	case errors.Is(err, control.ErrInvalidParameter):
		code = CodeInvalidParameter
	case errors.Is(err, control.ErrInvalidGain):
		code = CodeInvalidGain
	case errors.Is(err, settings.ErrUnavailable):
		code = CodeDocumentUnavailable
	case errors.Is(err, settings.ErrCorrupt):
		code = CodeDocumentCorrupt
	case errors.Is(err, doa.ErrUnavailable):
		code = CodeTelemetryUnavailable
	case errors.Is(err, doa.ErrMalformed):
		code = CodeTelemetryMalformed
	}
	return Envelope{ErrCode: code, ErrMsg: err.Error()}
}
