package jdwp

import (
	"errors"
	"fmt"
)

// ErrConnClosed is returned by commands issued after the session has
// closed.
var ErrConnClosed = errors.New("connection is closed")

// TransportError wraps an I/O failure of the underlying stream. A
// transport error observed by the reader or writer is terminal for
// the session.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("jdwp transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError signals malformed JDWP traffic: a bad handshake
// reply, a packet length out of range, a truncated field or invalid
// UTF-8. A protocol error seen by the reader loop is terminal for the
// session.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "jdwp protocol error: " + e.Reason
}

// CommandError is a non-zero error code carried by a JDWP reply
// packet. The session stays healthy; only the issuing command fails.
type CommandError uint16

func (e CommandError) Error() string {
	return fmt.Sprintf("Command failed: %d", uint16(e))
}

// ClassNotFoundError is returned by GetClassBySignature when no
// loaded class matches the signature.
type ClassNotFoundError struct {
	Signature string
}

func (e *ClassNotFoundError) Error() string {
	return fmt.Sprintf("class %q not found", e.Signature)
}

// AmbiguousClassError is returned by GetClassBySignature when more
// than one loaded class matches the signature (distinct class
// loaders).
type AmbiguousClassError struct {
	Signature string
	Count     int
}

func (e *AmbiguousClassError) Error() string {
	return fmt.Sprintf("class signature %q is ambiguous (%d candidates)", e.Signature, e.Count)
}

// MethodNotFoundError is returned by Resolver.MethodByName when the
// class declares no matching method.
type MethodNotFoundError struct {
	Class string
	Name  string
}

func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("method %s not found in %s", e.Name, e.Class)
}
