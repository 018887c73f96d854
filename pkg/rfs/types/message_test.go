package types

import (
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func Test_ShouldParseMessageFromText(t *testing.T) {
	m, err := ParseMessage("client1|ClientWriteRequest|1|File1.txt|Something")
	if err != nil {
		t.Fatalf("failed parsing. %v", err)
	}

	expected := Message{
		Sender:    "client1",
		Type:      ClientWriteRequest,
		Timestamp: 1,
		Payload:   "File1.txt|Something",
	}
	if diff := cmp.Diff(expected, m); diff != "" {
		t.Fatalf("parsed message mismatch (-want +got):\n%s", diff)
	}

	if m.FileName() != "File1.txt" {
		t.Errorf("expected file File1.txt, found %s", m.FileName())
	}

	if m.Data() != "Something" {
		t.Errorf("expected data Something, found %s", m.Data())
	}
}

func Test_PayloadWithoutSeparatorIsAllFileName(t *testing.T) {
	m := NewMessage("client0", WriteAcquireRequest, 0, "File0.txt")
	if m.FileName() != "File0.txt" {
		t.Errorf("expected file File0.txt, found %s", m.FileName())
	}

	if m.Data() != "" {
		t.Errorf("expected empty data, found %q", m.Data())
	}

	if m.String() != "client0|WriteAcquireRequest|0|File0.txt" {
		t.Errorf("wrong serialization %s", m.String())
	}
}

func Test_DataKeepsExtraSeparators(t *testing.T) {
	m := NewMessage("s1", WriteSyncRequest, 10, WritePayload("a.txt", "x|y|z"))
	parsed, err := ParseMessage(m.String())
	if err != nil {
		t.Fatalf("failed parsing. %v", err)
	}

	if diff := cmp.Diff(m, parsed); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	if parsed.FileName() != "a.txt" || parsed.Data() != "x|y|z" {
		t.Fatalf("wrong payload split %q %q", parsed.FileName(), parsed.Data())
	}
}

func Test_ShouldParseEmptyPayload(t *testing.T) {
	m, err := ParseMessage("s1|WriteReleaseRequest|3|")
	if err != nil {
		t.Fatalf("failed parsing. %v", err)
	}

	if m.Payload != "" {
		t.Fatalf("expected empty payload, found %q", m.Payload)
	}

	m, err = ParseMessage("s1|WriteReleaseRequest|3")
	if err != nil {
		t.Fatalf("failed parsing without payload. %v", err)
	}

	if m.Payload != "" || m.Timestamp != 3 {
		t.Fatalf("wrong message %v", m)
	}
}

func Test_ShouldRejectMalformedMessages(t *testing.T) {
	for _, text := range []string{"", "only-sender", "s1|ClientReadRequest", "s1|ClientReadRequest|abc|f", "s1|ClientReadRequest|-1|f"} {
		if _, err := ParseMessage(text); !errors.Is(err, ErrMalformedMessage) {
			t.Errorf("expected malformed for %q, found %v", text, err)
		}
	}

	if _, err := ParseMessage("s1|Whatever|1|f"); !errors.Is(err, ErrUnknownMessageType) {
		t.Errorf("expected unknown type, found %v", err)
	}
}

func Test_ShouldVerifyOrder(t *testing.T) {
	first := NewMessage("client0", WriteAcquireRequest, 0, "File0.txt")
	second := NewMessage("client1", ClientWriteRequest, 1, "File1.txt|Something")

	if first.Cmp(second) != -1 {
		t.Fatalf("lower timestamp must come first")
	}

	if second.Cmp(first) != 1 {
		t.Fatalf("higher timestamp must come last")
	}

	a := NewMessage("a", WriteAcquireRequest, 5, "")
	b := NewMessage("b", WriteAcquireRequest, 5, "")
	if !a.Less(b) || b.Less(a) {
		t.Fatalf("ties must be resolved by the sender")
	}

	if a.Cmp(a) != 0 {
		t.Fatalf("message must be equal to itself")
	}
}

func Test_SortedMessagesFollowTotalOrder(t *testing.T) {
	messages := []Message{
		NewMessage("c", WriteAcquireRequest, 2, ""),
		NewMessage("b", WriteAcquireResponse, 1, ""),
		NewMessage("a", WriteAcquireRequest, 2, ""),
		NewMessage("a", WriteAcquireResponse, 1, ""),
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Less(messages[j])
	})

	var order []string
	for _, m := range messages {
		order = append(order, m.String())
	}
	expected := []string{
		"a|WriteAcquireResponse|1|",
		"b|WriteAcquireResponse|1|",
		"a|WriteAcquireRequest|2|",
		"c|WriteAcquireRequest|2|",
	}
	if diff := cmp.Diff(expected, order); diff != "" {
		t.Fatalf("wrong order (-want +got):\n%s", diff)
	}
}

func Test_MessageTypeFamilies(t *testing.T) {
	for i := range messageTypeNames {
		mt := MessageType(i)
		if mt.IsClientFacing() == mt.IsServerInternal() {
			t.Errorf("%s must belong to exactly one family", mt)
		}

		parsed, err := ParseMessageType(mt.String())
		if err != nil || parsed != mt {
			t.Errorf("failed parsing back %s. %v", mt, err)
		}
	}
}
