package decode

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeStripsScriptMarkup(t *testing.T) {
	raw := "<script>x</script>[{'Timelogged':'05/29/2025 12:00:00 AM','val':1}]"

	records, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records length = %d, want 1", len(records))
	}

	v, ok := records[0].Get("val")
	if !ok || v != "1" {
		t.Errorf("val = %q (present=%v), want \"1\"", v, ok)
	}
	ts, ok := records[0].Get(TimestampKey)
	if !ok || ts != "05/29/2025 12:00:00 AM" {
		t.Errorf("Timelogged = %q (present=%v)", ts, ok)
	}
}

func TestDecodeMultipleRecordsInOrder(t *testing.T) {
	raw := `[
		{'Timelogged': '05/29/2025 01:00:00 AM', 'BF2_CO': '23.4', 'BF2_CO2': '21.1'},
		{'Timelogged': '05/29/2025 01:01:00 AM', 'BF2_CO': '23.5', 'BF2_CO2': ''},
	]`

	records, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records length = %d, want 2", len(records))
	}

	keys := records[0].Keys()
	want := []string{"Timelogged", "BF2_CO", "BF2_CO2"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}

	if v, _ := records[1].Get("BF2_CO2"); v != "" {
		t.Errorf("empty value = %q, want \"\"", v)
	}
}

func TestDecodeValueKinds(t *testing.T) {
	raw := `[{'a': -1.5, 'b': 'text', 'c': None, 'd': True, 'e': False, 'f': 2e3}]`

	records, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	rec := records[0]
	tests := []struct {
		key, want string
	}{
		{"a", "-1.5"},
		{"b", "text"},
		{"c", ""},
		{"d", "1"},
		{"e", "0"},
		{"f", "2e3"},
	}
	for _, tt := range tests {
		if got, _ := rec.Get(tt.key); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestDecodeEmptyList(t *testing.T) {
	records, err := Decode("[]")
	if err != nil {
		t.Fatalf("Decode(\"[]\") error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records length = %d, want 0", len(records))
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not a list", "not a list"},
		{"unterminated list", "[{'a': 1}"},
		{"unterminated string", "[{'a': 'oops}]"},
		{"bad value", "[{'a': oops}]"},
		{"missing colon", "[{'a' 1}]"},
		{"trailing garbage", "[{'a': 1}] extra"},
		{"bare number", "42"},
		{"empty input", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := Decode(tt.raw)
			if err == nil {
				t.Fatalf("Decode(%q) = %v, want error", tt.raw, records)
			}
			if !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("Decode(%q) error = %v, want ErrMalformedPayload", tt.raw, err)
			}
			if records != nil {
				t.Errorf("Decode(%q) returned partial records on failure", tt.raw)
			}
		})
	}
}

func TestRecordTimestamp(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("loading zone: %v", err)
	}

	rec := NewRecord()
	rec.Set(TimestampKey, "05/29/2025 12:00:00 AM")

	ts, err := rec.Timestamp(loc)
	if err != nil {
		t.Fatalf("Timestamp() error = %v", err)
	}

	// Midnight IST is 18:30 UTC the previous day.
	want := time.Date(2025, 5, 28, 18, 30, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("Timestamp() = %v, want %v", ts, want)
	}
	if ts.Location() != time.UTC {
		t.Errorf("Timestamp() location = %v, want UTC", ts.Location())
	}
}

func TestRecordTimestampMissing(t *testing.T) {
	rec := NewRecord()
	rec.Set("BF2_CO", "23.4")

	_, err := rec.Timestamp(time.UTC)
	if !errors.Is(err, ErrNoTimestamp) {
		t.Errorf("Timestamp() error = %v, want ErrNoTimestamp", err)
	}
}

func TestRecordTimestampUnparsable(t *testing.T) {
	rec := NewRecord()
	rec.Set(TimestampKey, "29-05-2025 00:00")

	if _, err := rec.Timestamp(time.UTC); err == nil {
		t.Error("Timestamp() = nil error for unparsable value, want error")
	}
}

func TestRecordFilter(t *testing.T) {
	rec := NewRecord()
	rec.Set(TimestampKey, "05/29/2025 12:00:00 AM")
	rec.Set("keep_me", "1")
	rec.Set("drop_me", "2")

	filtered := rec.Filter(map[string]struct{}{"keep_me": {}})

	if filtered.Len() != 2 {
		t.Fatalf("filtered Len() = %d, want 2", filtered.Len())
	}
	if _, ok := filtered.Get(TimestampKey); !ok {
		t.Error("timestamp field dropped by Filter")
	}
	if _, ok := filtered.Get("drop_me"); ok {
		t.Error("disallowed field survived Filter")
	}
}

func TestRecordFilterNilAllowsAll(t *testing.T) {
	rec := NewRecord()
	rec.Set("a", "1")

	if got := rec.Filter(nil); got.Len() != 1 {
		t.Errorf("Filter(nil) Len() = %d, want 1", got.Len())
	}
}

func TestRecordSetOverwritesInPlace(t *testing.T) {
	rec := NewRecord()
	rec.Set("a", "1")
	rec.Set("b", "2")
	rec.Set("a", "3")

	if rec.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", rec.Len())
	}
	if rec.Keys()[0] != "a" {
		t.Errorf("keys[0] = %q, want a", rec.Keys()[0])
	}
	if v, _ := rec.Get("a"); v != "3" {
		t.Errorf("a = %q, want 3", v)
	}
}
