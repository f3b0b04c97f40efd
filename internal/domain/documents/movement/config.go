package movement

import "github.com/hasapchy/back-sub001/pkg/numerator"

const (
	NumberPrefix      = "MV"
	NumeratorStrategy = numerator.StrategyStrict
)
