// Package services implements the driving port interfaces.
// Services contain the pipeline logic and orchestrate calls to
// driven ports (adapters).
//
// Services are pure Go with no CGO. Apart from the domain and ports
// they only depend on the chunker, golang.org/x/sync and google/uuid.
package services
