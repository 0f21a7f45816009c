package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrProviderNotFound = errors.New("generation provider not found")
	ErrFileNotFound     = errors.New("file not found")
)
