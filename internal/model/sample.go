package model

import "time"

// Sample is one reading from a device. Bare numeric feeds fill only CPU.
type Sample struct {
	DeviceID  string  `json:"device_id,omitempty"`
	CPU       float64 `json:"cpu"`
	RPS       float64 `json:"rps"`
	Timestamp int64   `json:"timestamp"`
}

// Stamped returns s with a zero Timestamp replaced by now in Unix seconds.
func (s Sample) Stamped(now time.Time) Sample {
	if s.Timestamp == 0 {
		s.Timestamp = now.Unix()
	}
	return s
}
