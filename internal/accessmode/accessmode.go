// Package accessmode defines the read-write/read-only access mode a
// Route is configured with, and the destination role it implies.
package accessmode

import "github.com/pkg/errors"

// AccessMode controls which destination role(s) a Route's destination
// set may select from. The zero value is a parse-time sentinel only:
// it must never be stored in a running Route.
type AccessMode int

const (
	// Undefined is returned by Parse on unrecognized input. A Route
	// must reject construction if its AccessMode is Undefined.
	Undefined AccessMode = iota
	// ReadWrite requires a Primary destination.
	ReadWrite
	// ReadOnly prefers a Secondary destination when one is available.
	ReadOnly
)

const (
	readWriteName = "read-write"
	readOnlyName  = "read-only"
)

// Parse maps the textual config form to an AccessMode. It returns
// Undefined, not an error, for unrecognized input -- callers that need
// to reject Undefined do so explicitly (see Route construction).
func Parse(s string) AccessMode {
	switch s {
	case readWriteName:
		return ReadWrite
	case readOnlyName:
		return ReadOnly
	default:
		return Undefined
	}
}

// Name renders the AccessMode back to its textual config form. It
// satisfies name(parse(s)) == s for the two defined modes.
func (m AccessMode) Name() (string, error) {
	switch m {
	case ReadWrite:
		return readWriteName, nil
	case ReadOnly:
		return readOnlyName, nil
	default:
		return "", errors.Errorf("undefined access mode %d has no name", int(m))
	}
}

func (m AccessMode) String() string {
	if name, err := m.Name(); err == nil {
		return name
	}
	return "undefined"
}
