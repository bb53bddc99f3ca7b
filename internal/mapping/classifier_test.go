package mapping

import (
	"os"
	"path/filepath"
	"testing"
)

// testTables returns a small but representative set of mapping tables.
func testTables() Tables {
	return Tables{
		TemperatureProfile: map[string]string{
			"BF2_Stack_TC_R1_1": "stack_row1_tc1",
			"BF2_Stack_TC_R1_2": "stack_row1_tc2",
			"BF2_Hearth_Pad_T1": "hearth_pad_t1",
		},
		ProcessParams: map[string]string{
			"BF2_Top_Press":  "top_pressure",
			"BF2_O2_Enr":     "o2_enrichment",
			"BF2_HB_Temp_Sp": "hot_blast_temp_spare",
		},
		HeatloadDeltaT: map[string]string{
			"BF2_HL_Q1": "heatload_q1",
		},
		Miscellaneous: map[string]string{
			"BF2_Misc_Flag": "misc_flag",
		},
		CoolingWater: map[string]string{
			"BF2_CW_Flow_In": "cw_flow_in",
		},
		DeltaT: map[string]string{
			"BF2_DT_Q1": "dt_q1",
		},
	}
}

func TestClassifyRoundTrip(t *testing.T) {
	tables := testTables()
	c := NewClassifier(tables)

	expect := []struct {
		measurement string
		fields      map[string]string
	}{
		{MeasurementTemperatureProfile, tables.TemperatureProfile},
		{MeasurementProcessParams, tables.ProcessParams},
		{MeasurementHeatloadDeltaT, tables.HeatloadDeltaT},
		{MeasurementMiscellaneous, tables.Miscellaneous},
		{MeasurementCoolingWater, tables.CoolingWater},
		{MeasurementDeltaT, tables.DeltaT},
	}

	for _, e := range expect {
		for raw, field := range e.fields {
			m, f, ok := c.Classify(raw)
			if !ok {
				t.Errorf("Classify(%q) not found, want %s.%s", raw, e.measurement, field)
				continue
			}
			if m != e.measurement || f != field {
				t.Errorf("Classify(%q) = (%s, %s), want (%s, %s)", raw, m, f, e.measurement, field)
			}
		}
	}
}

func TestClassifyUnknown(t *testing.T) {
	c := NewClassifier(testTables())

	m, f, ok := c.Classify("not_a_real_variable")
	if ok || m != "" || f != "" {
		t.Errorf("Classify(unknown) = (%q, %q, %v), want (\"\", \"\", false)", m, f, ok)
	}
}

func TestClassifyPriorityOrder(t *testing.T) {
	// The same key in two tables resolves to the earlier table.
	tables := testTables()
	tables.CoolingWater["BF2_DT_Q1"] = "shadowed_by_cooling_water"

	c := NewClassifier(tables)
	m, f, ok := c.Classify("BF2_DT_Q1")
	if !ok {
		t.Fatal("Classify(overlapping key) not found")
	}
	if m != MeasurementCoolingWater || f != "shadowed_by_cooling_water" {
		t.Errorf("Classify(overlapping key) = (%s, %s), want cooling_water winning by priority", m, f)
	}
}

func TestIsStringField(t *testing.T) {
	c := NewClassifier(testTables())

	if !c.IsStringField("hot_blast_temp_spare") {
		t.Error("IsStringField(hot_blast_temp_spare) = false, want true")
	}
	if c.IsStringField("top_pressure") {
		t.Error("IsStringField(top_pressure) = true, want false")
	}
}

func TestToNumeric(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"123", 123.0, true},
		{"42", 42.0, true},
		{"-1.5", -1.5, true},
		{" 7.25 ", 7.25, true},
		{"2e3", 2000.0, true},
		{"", 0, false},
		{"   ", 0, false},
		{"abc", 0, false},
		{"12,5", 0, false},
	}

	for _, tt := range tests {
		got, ok := ToNumeric(tt.input)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ToNumeric(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLoadTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field_mappings.yaml")
	content := `
temperature_profile:
  BF2_Stack_TC_R1_1: stack_row1_tc1
process_params:
  BF2_Top_Press: top_pressure
delta_t:
  BF2_DT_Q1: dt_q1
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing mappings file: %v", err)
	}

	tables, err := LoadTables(path)
	if err != nil {
		t.Fatalf("LoadTables() error = %v", err)
	}

	c := NewClassifier(tables)
	if got := c.Size(); got != 3 {
		t.Errorf("Size() = %d, want 3", got)
	}

	m, f, ok := c.Classify("BF2_Top_Press")
	if !ok || m != MeasurementProcessParams || f != "top_pressure" {
		t.Errorf("Classify(BF2_Top_Press) = (%s, %s, %v)", m, f, ok)
	}

	// Sections absent from the file are empty tables, not errors.
	if _, _, ok := c.Classify("BF2_CW_Flow_In"); ok {
		t.Error("Classify on missing section produced a match")
	}
}

func TestLoadTablesMissingFile(t *testing.T) {
	if _, err := LoadTables(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("LoadTables() = nil error for missing file")
	}
}
