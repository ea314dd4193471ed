// Package classify defines the boundary contract with the external
// classification collaborator. The engine never sees raw text, audio or
// images; it consumes only the structured records declared here. A
// collaborator that cannot produce a structured record returns
// ErrUnclassified, and nothing is appended.
package classify

import (
	"context"
	"errors"

	"github.com/Livshiz/finance-bot/internal/core"
)

type ResultType string

const (
	TypeExpense  ResultType = "expense"
	TypeQuestion ResultType = "question"
)

// Result is the structured output of classifying one user message.
type Result struct {
	Type        ResultType
	Amount      core.Money
	Category    string
	Description string
}

// Item is one position extracted from a receipt photo.
type Item struct {
	Amount      core.Money
	Category    string
	Description string
}

// ErrUnclassified signals that the collaborator could not produce a
// structured record.
var ErrUnclassified = errors.New("could not classify input")

type (
	// Classifier turns free-form text into an expense record or a
	// question signal.
	Classifier interface {
		ClassifyText(ctx context.Context, text string) (Result, error)
	}

	// ReceiptReader extracts zero or more expense items from a receipt
	// photo.
	ReceiptReader interface {
		ReadReceipt(ctx context.Context, image []byte) ([]Item, error)
	}

	// Transcriber converts a voice message to text for classification.
	Transcriber interface {
		Transcribe(ctx context.Context, audio []byte) (string, error)
	}
)
