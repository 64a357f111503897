package domain

import "errors"

var (
	ErrNoData            = errors.New("no data")
	ErrInsufficientData  = errors.New("insufficient history")
	ErrNoValidEntryHours = errors.New("no valid entry hours")
	ErrUnknownSymbol     = errors.New("unknown symbol")
	ErrMajorityFailed    = errors.New("majority of instruments failed")
)
