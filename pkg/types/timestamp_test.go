package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestampDecodesUpstreamFormats(t *testing.T) {
	want := time.Date(2025, 3, 4, 10, 11, 12, 0, time.UTC)
	for _, raw := range []string{
		`"2025-03-04T10:11:12Z"`,
		`"2025-03-04T10:11:12"`,
		`"2025-03-04 10:11:12"`,
		`"2025-03-04T13:11:12+03:00"`,
	} {
		var ts Timestamp
		if err := json.Unmarshal([]byte(raw), &ts); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
		if !ts.Equal(want) {
			t.Fatalf("decode %s: expected %s got %s", raw, want, ts.Time)
		}
	}
}

func TestTimestampNullAndInvalid(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`null`), &ts); err != nil || !ts.IsZero() {
		t.Fatalf("null should decode to zero, got %v %v", ts, err)
	}
	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
	out, _ := json.Marshal(Timestamp{})
	if string(out) != "null" {
		t.Fatalf("zero timestamp should encode as null, got %s", out)
	}
}
