package writeoff

import "github.com/hasapchy/back-sub001/pkg/numerator"

const (
	NumberPrefix      = "WO"
	NumeratorStrategy = numerator.StrategyStrict
)
