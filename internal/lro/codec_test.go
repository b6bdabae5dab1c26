package lro

import (
	"bytes"
	"testing"
)

func TestJSONCodecRoundTrips(t *testing.T) {
	codec := NewJSONCodec[testTask]()
	var buf bytes.Buffer

	if err := codec.Encode(testTask{Value: "hello"}, &buf); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	got, ok := codec.Decode(buf.Bytes())
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if got.Value != "hello" {
		t.Fatalf("expected %q, got %q", "hello", got.Value)
	}
}

func TestJSONCodecDecodeEmptyIsAbsentNotError(t *testing.T) {
	codec := NewJSONCodec[testTask]()
	_, ok := codec.Decode(nil)
	if ok {
		t.Fatal("expected decode of empty input to report absence")
	}
}

func TestJSONCodecDecodeMalformedIsAbsentNotError(t *testing.T) {
	codec := NewJSONCodec[testTask]()
	_, ok := codec.Decode([]byte("{not json"))
	if ok {
		t.Fatal("expected decode of malformed input to report absence")
	}
}
