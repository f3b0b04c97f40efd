package receipt

import "github.com/hasapchy/back-sub001/pkg/numerator"

const (
	NumberPrefix      = "RC"
	NumeratorStrategy = numerator.StrategyStrict
)
