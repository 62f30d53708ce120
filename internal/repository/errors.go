// Package repository defines error types that are reused across multiple
// repositories. These sentinel values let higher layers distinguish
// failure scenarios without inspecting driver error strings: the service
// layer translates ErrMapNotFound / ErrRiskNotFound into its NotFound
// taxonomy, and ErrNoInsertID into a contract violation that should
// never happen with a healthy store.
package repository

import "errors"

// ErrMapNotFound is returned when a risk map cannot be found in the DB
// (or, for owner-scoped lookups, exists but belongs to someone else).
var ErrMapNotFound = errors.New("risk map not found")

// ErrRiskNotFound is returned when a risk cannot be found in the DB.
var ErrRiskNotFound = errors.New("risk not found")

// ErrNoInsertID is returned when an insert succeeds but the driver
// reports no auto-generated identity. Every successful insert must
// yield an identity; a store that answers otherwise is violating its
// contract and the operation must be treated as failed.
var ErrNoInsertID = errors.New("insert returned no identity")

// ErrEmailExists is returned when user registration collides with an
// existing email address.
var ErrEmailExists = errors.New("email already exists")
