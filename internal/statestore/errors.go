package statestore

import "errors"

// Error taxonomy. These are returned straight from service operations;
// internal/rpc is the only place that translates them into gRPC status
// codes.
var (
	// ErrBinaryUnsupported is returned when metadata["isBinary"] = "true"
	// is set on a Set operation. The store only holds JSON documents; a
	// binary hint gets a typed rejection instead of silent corruption.
	ErrBinaryUnsupported = errors.New("statestore: binary-safe values are not supported, all values are stored as JSON documents")

	// ErrNotInitialized is returned by any operation invoked before Init
	// has completed successfully.
	ErrNotInitialized = errors.New("statestore: component not initialized")
)
