package jwtclaims

import (
	"strconv"
	"time"
)

// NumericDate is a JWT timestamp: whole seconds since the Unix epoch.
type NumericDate int64

// NewNumericDate truncates t to whole seconds.
func NewNumericDate(t time.Time) NumericDate {
	return NumericDate(t.Unix())
}

// Time returns the timestamp as a UTC time.Time.
func (d NumericDate) Time() time.Time {
	return time.Unix(int64(d), 0).UTC()
}

// String returns the seconds as a decimal string.
func (d NumericDate) String() string {
	return strconv.FormatInt(int64(d), 10)
}
