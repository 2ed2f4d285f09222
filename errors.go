package boostsearch

import "github.com/pkg/errors"

var (
	// ErrSchemaMismatch is returned when tabular data does
	// not agree with its header, or when two datasets do not
	// share the same features.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrTrialFailure is returned when a configuration
	// cannot be trained, either because it is invalid or
	// because training became numerically unstable.
	ErrTrialFailure = errors.New("trial failure")

	// ErrPruned is returned by Trainer.Train when a
	// RoundHook asks for training to stop.
	ErrPruned = errors.New("trial pruned")
)
