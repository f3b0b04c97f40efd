package sale

import "github.com/hasapchy/back-sub001/pkg/numerator"

const (
	// NumberPrefix starts every sale number: SL-2026-00001.
	NumberPrefix = "SL"

	// NumeratorStrategy defines the numbering strategy for this document type.
	// A sale is a primary accounting document, so numbers have no gaps.
	NumeratorStrategy = numerator.StrategyStrict
)
