package order

import "github.com/hasapchy/back-sub001/pkg/numerator"

const (
	NumberPrefix = "OR"

	// Orders are numbered from cached ranges; gaps after a restart are fine.
	NumeratorStrategy = numerator.StrategyCached
)
