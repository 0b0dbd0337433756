package models

import "errors"

// Sentinel errors shared across the repository, pipeline and service layers
var (
	ErrRunNotFound   = errors.New("analysis run not found")
	ErrRunInProgress = errors.New("analysis is already in progress")
	ErrRunNotPending = errors.New("analysis run is not pending")
)
