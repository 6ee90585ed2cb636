package tui

import "errors"

// ErrMissingPipeline is returned when the pipeline is not provided.
var ErrMissingPipeline = errors.New("tui: pipeline is required")

// ErrMissingSource is returned when no document source is given.
var ErrMissingSource = errors.New("tui: document source is required")
