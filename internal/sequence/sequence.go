package sequence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Document number prefixes.
const (
	PrefixJobCard = "JC"
	PrefixRFQ     = "RFQ"
	PrefixPayment = "PAY"
	PrefixInvoice = "INV"
)

// Generator issues date-scoped sequential document numbers, e.g.
// JC202608290001. Counters live in the document_sequences table so numbers
// stay gap-aware and collision-free under concurrent allocation.
type Generator interface {
	Next(ctx context.Context, tx *gorm.DB, prefix string, now time.Time) (string, error)
}

type generator struct{}

// NewGenerator builds the database-backed number generator.
func NewGenerator() Generator {
	return &generator{}
}

func (g *generator) Next(ctx context.Context, tx *gorm.DB, prefix string, now time.Time) (string, error) {
	if tx == nil {
		return "", fmt.Errorf("transaction required")
	}
	day := now.UTC().Format("2006-01-02")

	var counter int
	err := tx.WithContext(ctx).Raw(`
		INSERT INTO document_sequences (prefix, day, counter)
		VALUES (?, ?, 1)
		ON CONFLICT (prefix, day)
		DO UPDATE SET counter = document_sequences.counter + 1
		RETURNING counter`, prefix, day).Scan(&counter).Error
	if err != nil {
		return "", fmt.Errorf("allocate %s sequence: %w", prefix, err)
	}

	return fmt.Sprintf("%s%s%04d", prefix, now.UTC().Format("20060102"), counter), nil
}
