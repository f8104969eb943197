package monitor

import "time"

// Status is the last dependency check result.
type Status struct {
	PostgreSQL bool      `json:"postgresql"`
	Redis      bool      `json:"redis"`
	Outbox     bool      `json:"outbox"`
	OutboxSize int       `json:"outbox_size"`
	LastCheck  time.Time `json:"last_check"`
}

// Healthy reports whether the request path dependencies are reachable.
func (s Status) Healthy() bool {
	return s.PostgreSQL && s.Redis
}
