// Package queue defines message payloads exchanged over the message
// broker, the publisher that emits them and the background consumer
// that records them.
package queue

// MapGeneratedEvent is published when the composite generation flow
// completes with a fully populated map.  It carries enough information
// for downstream consumers to log, notify or trigger analytics without
// querying the primary database.
type MapGeneratedEvent struct {
	MapID       uint64   `json:"map_id"`
	UserID      uint64   `json:"user_id"`
	Title       string   `json:"title"`
	RiskCount   int      `json:"risk_count"`
	Categories  []string `json:"categories"`
	GeneratedAt string   `json:"generated_at"`
}
