package natsutil

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nats-io/nats.go"
)

func TestNatsHeaderCarrierSetGetKeys(t *testing.T) {
	c := (*natsHeaderCarrier)(&nats.Msg{})
	if got := c.Get("traceparent"); got != "" {
		t.Fatalf("want empty string for missing header, got %q", got)
	}
	c.Set("traceparent", "00-abc-def-01")
	if got := c.Get("traceparent"); got != "00-abc-def-01" {
		t.Fatalf("want injected value back, got %q", got)
	}
	keys := c.Keys()
	if len(keys) != 1 {
		t.Fatalf("want exactly one header key after Set, got %v", keys)
	}
}

func TestNatsHeaderCarrierNilHeaderKeys(t *testing.T) {
	c := (*natsHeaderCarrier)(&nats.Msg{})
	if keys := c.Keys(); keys != nil {
		t.Fatalf("want nil keys for a message with no headers set, got %v", keys)
	}
}

// dlqMessage mirrors cmd/reprocess's dead-letter payload shape, without
// importing the command package, to check that the payload survives the
// encoding/json round trip Publish applies. Publish itself is not called
// here, since it needs a live connection to send.
type dlqMessage struct {
	RawRecordID int64  `json:"raw_record_id"`
	SourceID    string `json:"source_id"`
	Error       string `json:"error"`
}

func TestDLQMessageJSONRoundTrip(t *testing.T) {
	msg := dlqMessage{RawRecordID: 42, SourceID: "wiktionary-en", Error: "definition too short"}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}
	var back dlqMessage
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	if back != msg {
		t.Fatalf("want %+v after round trip, got %+v", msg, back)
	}
}

func TestPublishFailsFastOnUnmarshalableValue(t *testing.T) {
	// A channel value can't be JSON-marshaled; Publish should surface the
	// marshal error without touching the (nil, unconnected) *nats.Conn.
	err := Publish[chan int](context.Background(), nil, "lexigraph.pipeline.dlq", make(chan int))
	if err == nil {
		t.Fatal("want a marshal error for an unmarshalable payload type")
	}
}
