package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedMessage is returned when a text does not hold the
	// four message fields.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrUnknownMessageType is returned for a type name outside the protocol.
	ErrUnknownMessageType = errors.New("unknown message type")

	// ErrFrameTooLarge is returned for a frame above the link size limit.
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrLinkNotFound is returned when sending to a peer without link.
	ErrLinkNotFound = errors.New("no link to peer")

	// ErrNodeClosed is returned by operations on a closed node.
	ErrNodeClosed = errors.New("node closed")

	// ErrInvalidConfiguration wraps every configuration validation failure.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrUnexpectedReply is returned when a server answers a client
	// with a type that does not match the request.
	ErrUnexpectedReply = errors.New("unexpected reply")
)

// InsufficientReplicasError is returned when a write can not reach
// the write quorum of its placement set. No request was sent.
type InsufficientReplicasError struct {
	// File the write was for.
	File string

	// How many replicas were needed.
	Required int

	// Placement members that could not be reached.
	Unreachable []string
}

func (e *InsufficientReplicasError) Error() string {
	return fmt.Sprintf("cannot write to '%s' because of too many (%d) unreachable servers (%s), %d required",
		e.File, len(e.Unreachable), strings.Join(e.Unreachable, ", "), e.Required)
}

// UnreachableError is returned when a read exhausted the whole
// placement set without any reply.
type UnreachableError struct {
	// File the read was for.
	File string

	// Placement members that could not be reached.
	Unreachable []string
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("cannot reach any server (%s) to read file '%s'",
		strings.Join(e.Unreachable, ", "), e.File)
}
