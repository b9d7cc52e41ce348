package store

import "github.com/google/uuid"

// Etag representation: a generated UUID (v4), stored as text in the
// row's etag column. This is chosen over the database tuple-xid for two
// reasons: it is portable across the schema-per-tenant and
// table-per-tenant layouts without needing `xmin` exposed through every
// query, and it still makes a malformed etag reachable as a syntax error —
// uuid.Parse rejects anything that isn't a well-formed UUID, so a
// client-supplied garbage etag is caught before a single round trip.
type Etag string

// NewEtag generates a fresh etag, guaranteed distinct from any etag
// generated before it.
func NewEtag() Etag {
	return Etag(uuid.NewString())
}

// ParseEtag validates that s is a syntactically well-formed etag. It
// returns ErrEtagInvalid if not.
func ParseEtag(s string) (Etag, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", ErrEtagInvalid
	}
	return Etag(s), nil
}

func (e Etag) String() string { return string(e) }
