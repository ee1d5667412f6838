package calendar

import "errors"

// ErrInvalidRange is returned when a period starts after it ends
var ErrInvalidRange = errors.New("invalid period range: first date is after last date")
