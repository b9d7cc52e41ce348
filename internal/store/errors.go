package store

import "errors"

// Classified adapter errors. The service layer unwraps these with
// errors.Is and maps them to gRPC status codes at the RPC boundary; they
// are plain sentinel values, not a home-grown exception hierarchy.
var (
	// ErrNotFound means the key does not exist in an otherwise-present table.
	ErrNotFound = errors.New("store: key not found")

	// ErrTableMissing means the target table itself does not exist yet.
	// The service layer treats this identically to ErrNotFound for Get and
	// Delete (an absent tenant table has no rows to find or remove).
	ErrTableMissing = errors.New("store: target table missing")

	// ErrEtagMismatch means a conditional Upsert/Delete matched zero rows
	// because the supplied etag no longer matches the stored one.
	ErrEtagMismatch = errors.New("store: etag mismatch")

	// ErrEtagInvalid means the supplied etag could not be parsed under the
	// adapter's chosen etag representation, before any SQL was sent.
	ErrEtagInvalid = errors.New("store: etag invalid")
)
