package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Separator between the fields of a serialized message and
// between the file name and the data of a write payload.
const Separator = "|"

// MessageType identifies what a message is asking for. The set of
// types is closed, any other value on the wire is rejected by
// the parser.
type MessageType uint8

const (
	// ClientWriteRequest is sent by a client asking a replica to
	// append a line into a file.
	ClientWriteRequest MessageType = iota

	// ClientReadRequest is sent by a client asking a replica for
	// the whole content of a file.
	ClientReadRequest

	// WriteAcquireRequest is broadcast by the coordinating server
	// when it wants to enter the critical session.
	WriteAcquireRequest

	// WriteAcquireResponse is the reply of a peer for a received
	// WriteAcquireRequest.
	WriteAcquireResponse

	// WriteReleaseRequest is broadcast when the coordinator leaves
	// the critical session.
	WriteReleaseRequest

	// WriteSyncRequest carries the write that the coordinator just
	// applied, so every peer applies it too.
	WriteSyncRequest

	// WriteSuccessAck is the reply to a client write.
	WriteSuccessAck

	// ReadSuccessAck is the reply to a client read when the file exists.
	ReadSuccessAck

	// ReadFailureAck is the reply to a client read when the file
	// does not exist on the contacted replica.
	ReadFailureAck
)

var messageTypeNames = [...]string{
	ClientWriteRequest:   "ClientWriteRequest",
	ClientReadRequest:    "ClientReadRequest",
	WriteAcquireRequest:  "WriteAcquireRequest",
	WriteAcquireResponse: "WriteAcquireResponse",
	WriteReleaseRequest:  "WriteReleaseRequest",
	WriteSyncRequest:     "WriteSyncRequest",
	WriteSuccessAck:      "WriteSuccessAck",
	ReadSuccessAck:       "ReadSuccessAck",
	ReadFailureAck:       "ReadFailureAck",
}

// String returns the wire name of the type.
func (t MessageType) String() string {
	if int(t) < len(messageTypeNames) {
		return messageTypeNames[t]
	}
	return fmt.Sprintf("MessageType(%d)", uint8(t))
}

// IsClientFacing is true for the types exchanged between a
// client and a server.
func (t MessageType) IsClientFacing() bool {
	switch t {
	case ClientWriteRequest, ClientReadRequest, WriteSuccessAck, ReadSuccessAck, ReadFailureAck:
		return true
	default:
		return false
	}
}

// IsServerInternal is true for the types exchanged only between servers.
func (t MessageType) IsServerInternal() bool {
	switch t {
	case WriteAcquireRequest, WriteAcquireResponse, WriteReleaseRequest, WriteSyncRequest:
		return true
	default:
		return false
	}
}

// ParseMessageType resolves the wire name back into the type.
func ParseMessageType(name string) (MessageType, error) {
	for i, n := range messageTypeNames {
		if n == name {
			return MessageType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMessageType, name)
}

// Message is the unit exchanged on every link.
//
// Messages are never changed after created, a reply is always a new
// message. Two messages are compared through Cmp, using the
// Lamport timestamp and breaking ties with the sender name.
type Message struct {
	// Name of the node that sent the message.
	Sender string

	// What the message is asking for.
	Type MessageType

	// Lamport time of the sender when the message was sent.
	Timestamp uint64

	// Free text, for the write family this is `fileName|data`.
	Payload string
}

// NewMessage creates a message with the given values.
func NewMessage(sender string, t MessageType, timestamp uint64, payload string) Message {
	return Message{
		Sender:    sender,
		Type:      t,
		Timestamp: timestamp,
		Payload:   payload,
	}
}

// WritePayload joins the file name and the data into a write payload.
func WritePayload(fileName, data string) string {
	return fileName + Separator + data
}

// ParseMessage parses the text representation of a message.
// Only the first three separators are considered, everything
// after them is the payload.
func ParseMessage(text string) (Message, error) {
	parts := strings.SplitN(text, Separator, 4)
	if len(parts) < 3 {
		return Message{}, fmt.Errorf("%w: %q", ErrMalformedMessage, text)
	}

	t, err := ParseMessageType(parts[1])
	if err != nil {
		return Message{}, err
	}

	timestamp, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return Message{}, fmt.Errorf("%w: bad timestamp %q", ErrMalformedMessage, parts[2])
	}

	m := Message{
		Sender:    parts[0],
		Type:      t,
		Timestamp: timestamp,
	}
	if len(parts) == 4 {
		m.Payload = parts[3]
	}
	return m, nil
}

// String serializes the message as `sender|type|timestamp|payload`.
func (m Message) String() string {
	return strings.Join([]string{
		m.Sender,
		m.Type.String(),
		strconv.FormatUint(m.Timestamp, 10),
		m.Payload,
	}, Separator)
}

// Bytes is the frame content for the message.
func (m Message) Bytes() []byte {
	return []byte(m.String())
}

// FileName is the file part of a write payload. A payload without
// a separator is the file name itself, as used by read requests.
func (m Message) FileName() string {
	if i := strings.Index(m.Payload, Separator); i >= 0 {
		return m.Payload[:i]
	}
	return m.Payload
}

// Data is the data part of a write payload, it can contain the
// separator since only the first one splits the payload.
func (m Message) Data() string {
	if i := strings.Index(m.Payload, Separator); i >= 0 {
		return m.Payload[i+len(Separator):]
	}
	return ""
}

// Cmp compares two messages following the protocol total order.
// First by the timestamp and if both are equal, then by the
// sender name. Returns -1, 0 or 1.
func (m Message) Cmp(o Message) int {
	if m.Timestamp < o.Timestamp {
		return -1
	}
	if m.Timestamp > o.Timestamp {
		return 1
	}
	return strings.Compare(m.Sender, o.Sender)
}

// Less reports if m orders before o.
func (m Message) Less(o Message) bool {
	return m.Cmp(o) < 0
}

// SameOrigin reports if both messages were sent by the same node at
// the same Lamport time, which is the identity used inside a queue.
func (m Message) SameOrigin(o Message) bool {
	return m.Sender == o.Sender && m.Timestamp == o.Timestamp
}
