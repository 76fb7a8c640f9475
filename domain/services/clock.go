package services

import "time"

// SystemClock reads the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }
