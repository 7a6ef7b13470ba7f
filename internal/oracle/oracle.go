// Package oracle turns free-form spending evidence into a raw transaction
// draft using an external classification model.
package oracle

import "context"

// RawDraft mirrors the JSON object the model is instructed to return.
// Amount stays untyped because the model may answer with a number or a
// vernacular string ("50rb"); normalization happens downstream.
type RawDraft struct {
	Name     string `json:"name"`
	Amount   any    `json:"amount"`
	Currency string `json:"currency"`
	Datetime string `json:"datetime"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Category string `json:"category"`
}

// Oracle classifies spending evidence. Implementations wrap a concrete
// model provider; the validation and repair pipeline downstream is
// provider-agnostic, so the oracle can be swapped or faked in tests.
type Oracle interface {
	// ParseText classifies a natural-language spending description.
	// A malformed model response degrades to an empty draft rather than
	// failing; the repair pipeline fills in defaults.
	ParseText(ctx context.Context, input string) (*RawDraft, error)

	// ParseImage classifies a receipt image. Unlike text mode a malformed
	// model response is an error.
	ParseImage(ctx context.Context, image []byte, mimeType string) (*RawDraft, error)
}
