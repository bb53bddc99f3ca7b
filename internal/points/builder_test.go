package points

import (
	"strings"
	"testing"
	"time"

	"github.com/furnaceworks/bf-pipeline/internal/decode"
	"github.com/furnaceworks/bf-pipeline/internal/mapping"
)

func testBuilder() *Builder {
	return NewBuilder(mapping.NewClassifier(mapping.Tables{
		TemperatureProfile: map[string]string{
			"BF2_Stack_TC_R1_1": "stack_row1_tc1",
			"BF2_Stack_TC_R1_2": "stack_row1_tc2",
		},
		ProcessParams: map[string]string{
			"BF2_Top_Press":  "top_pressure",
			"BF2_HB_Temp_Sp": "hot_blast_temp_spare",
		},
		DeltaT: map[string]string{
			"BF2_DT_Q1": "dt_q1",
		},
	}))
}

func testTime() time.Time {
	return time.Date(2025, 5, 29, 6, 30, 0, 0, time.UTC)
}

func TestBuildGroupsByMeasurement(t *testing.T) {
	b := testBuilder()

	rec := decode.NewRecord()
	rec.Set(decode.TimestampKey, "05/29/2025 06:30:00 AM")
	rec.Set("BF2_Stack_TC_R1_1", "812.5")
	rec.Set("BF2_Top_Press", "1.62")
	rec.Set("BF2_Stack_TC_R1_2", "799")
	rec.Set("BF2_DT_Q1", "4.5")
	rec.Set("BF2_Unknown", "99")

	lines := b.Build(rec, testTime())
	want := []string{
		"temperature_profile stack_row1_tc1=812.5,stack_row1_tc2=799 1748500200",
		"process_params top_pressure=1.62 1748500200",
		"delta_t dt_q1=4.5 1748500200",
	}

	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("lines[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestBuildDeterminism(t *testing.T) {
	b := testBuilder()

	rec := decode.NewRecord()
	rec.Set("BF2_DT_Q1", "4.5")
	rec.Set("BF2_Stack_TC_R1_1", "812.5")
	rec.Set("BF2_Top_Press", "1.62")

	first := strings.Join(b.Build(rec, testTime()), "\n")
	second := strings.Join(b.Build(rec, testTime()), "\n")

	if first != second {
		t.Errorf("Build() not deterministic:\n%s\nvs\n%s", first, second)
	}
	if !strings.HasPrefix(first, "delta_t ") {
		t.Errorf("first measurement = %q, want delta_t first (insertion order)", first)
	}
}

func TestBuildSuppressesEmptyMeasurement(t *testing.T) {
	b := testBuilder()

	rec := decode.NewRecord()
	rec.Set("BF2_Stack_TC_R1_1", "")
	rec.Set("BF2_Stack_TC_R1_2", "not a number")

	if lines := b.Build(rec, testTime()); lines != nil {
		t.Errorf("Build() = %v, want nil when every field fails coercion", lines)
	}
}

func TestBuildSkipsForcedStringFields(t *testing.T) {
	b := testBuilder()

	rec := decode.NewRecord()
	rec.Set("BF2_HB_Temp_Sp", "900")
	rec.Set("BF2_Top_Press", "1.62")

	lines := b.Build(rec, testTime())
	if len(lines) != 1 {
		t.Fatalf("lines = %v, want exactly one", lines)
	}
	if strings.Contains(lines[0], "hot_blast_temp_spare") {
		t.Errorf("forced-string field emitted: %q", lines[0])
	}
}

func TestBuildAbsentValuesOmitted(t *testing.T) {
	b := testBuilder()

	rec := decode.NewRecord()
	rec.Set("BF2_Stack_TC_R1_1", " ")
	rec.Set("BF2_Stack_TC_R1_2", "799")

	lines := b.Build(rec, testTime())
	if len(lines) != 1 {
		t.Fatalf("lines = %v, want one", lines)
	}
	if lines[0] != "temperature_profile stack_row1_tc2=799 1748500200" {
		t.Errorf("line = %q, absent value not omitted", lines[0])
	}
}

func TestMeasurementAndTimestampHelpers(t *testing.T) {
	line := "process_params top_pressure=1.62 1748500200"

	if got := Measurement(line); got != "process_params" {
		t.Errorf("Measurement() = %q, want process_params", got)
	}

	ts, ok := Timestamp(line)
	if !ok {
		t.Fatal("Timestamp() not found")
	}
	if !ts.Equal(testTime()) {
		t.Errorf("Timestamp() = %v, want %v", ts, testTime())
	}

	if _, ok := Timestamp("garbage"); ok {
		t.Error("Timestamp(garbage) = ok, want false")
	}
}
