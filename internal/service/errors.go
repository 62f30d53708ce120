// Package service orchestrates the end-to-end risk map flows on top of
// the persistence repositories, the generation client and the layout
// engine.  This file defines the error taxonomy surfaced to the
// transport layer; every failure is raised at its point of detection
// and propagated unchanged, with no local recovery or retries.
package service

import (
	"errors"
	"fmt"

	"github.com/ergomap/risk-map/internal/ai"
	"github.com/ergomap/risk-map/internal/repository"
)

// ErrInvalidInput marks malformed or missing required fields at a
// service boundary (empty title, a mapId referring to nothing).
var ErrInvalidInput = errors.New("invalid input")

// ErrNotFound marks a map/risk that does not exist OR exists but is not
// owned by the caller; the two cases are deliberately indistinguishable
// so the existence of other users' data never leaks.
var ErrNotFound = errors.New("not found")

// ErrGenerationFormat marks generation output that could not be parsed
// into the expected shape.  The whole generate flow aborts.
var ErrGenerationFormat = errors.New("generation output unusable")

// ErrPersistenceUnavailable marks a store that could not be reached or
// failed an operation.  Fatal for the current operation; no retry.
var ErrPersistenceUnavailable = errors.New("persistence unavailable")

// ErrPersistenceContract marks a store response that violates the
// invariant "every successful insert yields an identity".
var ErrPersistenceContract = errors.New("persistence contract violation")

// storeErr translates repository sentinels into the service taxonomy.
// Anything unrecognized is treated as the store being unavailable.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrMapNotFound), errors.Is(err, repository.ErrRiskNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrNoInsertID):
		return fmt.Errorf("%w: %v", ErrPersistenceContract, err)
	default:
		return fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}
}

// genErr translates generation client failures, attaching the phase so
// the UI can tell the user which step failed.
func genErr(phase string, err error) error {
	if errors.Is(err, ai.ErrBadFormat) {
		return fmt.Errorf("%s: %w: %v", phase, ErrGenerationFormat, err)
	}
	return fmt.Errorf("%s: %w", phase, err)
}
