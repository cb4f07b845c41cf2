package parser

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		kind    MatchKind
		grammar string
		fields  Fields
	}{
		{
			name:    "info with timestamp",
			line:    "[2024-03-01 10:00:00] [INFO] Running test: test_can_bus [type=Integration]",
			kind:    InfoMatch,
			grammar: GrammarInfo,
			fields: Fields{
				ColumnTimestamp: "2024-03-01 10:00:00",
				ColumnTestCase:  "test_can_bus",
				ColumnTestType:  "Integration",
			},
		},
		{
			name:    "info without timestamp",
			line:    "[INFO] Running test: t1 [type=System]",
			kind:    InfoMatch,
			grammar: GrammarInfo,
			fields:  Fields{ColumnTestCase: "t1", ColumnTestType: "System"},
		},
		{
			name:    "decorated full",
			line:    "[2024-03-01 10:00:05] ▶ Result: test_adc | FAIL | Module: POWER | Type: Unit | Error: Voltage out of range",
			kind:    ResultMatch,
			grammar: GrammarDecorated,
			fields: Fields{
				ColumnTimestamp: "2024-03-01 10:00:05",
				ColumnTestCase:  "test_adc",
				ColumnStatus:    "FAIL",
				ColumnModule:    "POWER",
				ColumnTestType:  "Unit",
				ColumnError:     "Voltage out of range",
			},
		},
		{
			name:    "decorated without type and error",
			line:    "▶ Result: test_gpio | PASS | Module: IO",
			kind:    ResultMatch,
			grammar: GrammarDecorated,
			fields: Fields{
				ColumnTestCase: "test_gpio",
				ColumnStatus:   "PASS",
				ColumnModule:   "IO",
				ColumnError:    "",
			},
		},
		{
			name:    "decorated error only",
			line:    "▶ Result: test_i2c | FAIL | Module: BUS | Error: NACK | retry exhausted",
			kind:    ResultMatch,
			grammar: GrammarDecorated,
			fields: Fields{
				ColumnTestCase: "test_i2c",
				ColumnStatus:   "FAIL",
				ColumnModule:   "BUS",
				ColumnError:    "NACK | retry exhausted",
			},
		},
		{
			name:    "bracketed with error",
			line:    "[2024-03-01 10:00:07] [RESULT] test_can_bus [CAN] FAIL - TimeoutError",
			kind:    ResultMatch,
			grammar: GrammarBracketed,
			fields: Fields{
				ColumnTimestamp: "2024-03-01 10:00:07",
				ColumnTestCase:  "test_can_bus",
				ColumnModule:    "CAN",
				ColumnStatus:    "FAIL",
				ColumnError:     "TimeoutError",
			},
		},
		{
			name:    "bracketed with inline type",
			line:    "[RESULT] t2 [CORE] FAIL [type=Regression] - Watchdog reset",
			kind:    ResultMatch,
			grammar: GrammarBracketed,
			fields: Fields{
				ColumnTestCase: "t2",
				ColumnModule:   "CORE",
				ColumnStatus:   "FAIL",
				ColumnTestType: "Regression",
				ColumnError:    "Watchdog reset",
			},
		},
		{
			name:    "bracketed pass",
			line:    "[RESULT] t1 [CORE] PASS",
			kind:    ResultMatch,
			grammar: GrammarBracketed,
			fields: Fields{
				ColumnTestCase: "t1",
				ColumnModule:   "CORE",
				ColumnStatus:   "PASS",
				ColumnError:    "",
			},
		},
		{
			name:    "simple pass",
			line:    "test_adc_voltage: PASS",
			kind:    ResultMatch,
			grammar: GrammarSimple,
			fields: Fields{
				ColumnTestCase: "test_adc_voltage",
				ColumnStatus:   "PASS",
				ColumnError:    "",
			},
		},
		{
			name:    "simple fail with error and padding",
			line:    "   test_can_bus: FAIL -   TimeoutError   ",
			kind:    ResultMatch,
			grammar: GrammarSimple,
			fields: Fields{
				ColumnTestCase: "test_can_bus",
				ColumnStatus:   "FAIL",
				ColumnError:    "TimeoutError",
			},
		},
		{name: "lowercase status", line: "test_x: pass", kind: NoMatch},
		{name: "unknown status", line: "test_x: SKIP", kind: NoMatch},
		{name: "status with suffix", line: "test_x: PASSED", kind: NoMatch},
		{name: "no colon", line: "bad_line_here_no_colon", kind: NoMatch},
		{name: "empty", line: "", kind: NoMatch},
		{name: "whitespace only", line: " \t  ", kind: NoMatch},
		{name: "operator noise", line: "[2024-03-01 10:00:00] [DEBUG] flashing firmware", kind: NoMatch},
		{name: "bracketed bad status", line: "[RESULT] t1 [CORE] SKIPPED", kind: NoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.line)
			if got.Kind != tt.kind {
				t.Fatalf("Classify(%q).Kind = %v, want %v", tt.line, got.Kind, tt.kind)
			}
			if tt.kind == NoMatch {
				return
			}
			if got.Grammar != tt.grammar {
				t.Errorf("Grammar = %q, want %q", got.Grammar, tt.grammar)
			}
			if !reflect.DeepEqual(got.Fields, tt.fields) {
				t.Errorf("Fields = %v, want %v", got.Fields, tt.fields)
			}
		})
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	// The bracketed grammar is tried before the simple one, so a result line
	// whose error text contains "x: PASS" is still bracketed.
	m := Classify("[RESULT] t9 [CORE] FAIL - expected flag: PASS")
	if m.Grammar != GrammarBracketed {
		t.Fatalf("Grammar = %q, want %q", m.Grammar, GrammarBracketed)
	}
	if m.Fields[ColumnError] != "expected flag: PASS" {
		t.Errorf("error = %q", m.Fields[ColumnError])
	}
}

func TestGrammars(t *testing.T) {
	want := []string{GrammarInfo, GrammarDecorated, GrammarBracketed, GrammarSimple}
	if got := Grammars(); !reflect.DeepEqual(got, want) {
		t.Errorf("Grammars() = %v, want %v", got, want)
	}
}

func TestCorrelator(t *testing.T) {
	c := NewCorrelator()
	if got := c.Lookup("t1"); got != "" {
		t.Errorf("Lookup on empty correlator = %q, want empty", got)
	}

	c.Observe("t1", "Unit")
	c.Observe("t1", "System")
	if got := c.Lookup("t1"); got != "System" {
		t.Errorf("Lookup() = %q, want last-written System", got)
	}
	// lookups do not consume the entry
	if got := c.Lookup("t1"); got != "System" {
		t.Errorf("second Lookup() = %q, want System", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	inline := c.Apply(Fields{ColumnTestCase: "t1", ColumnTestType: "Inline"})
	if inline[ColumnTestType] != "Inline" {
		t.Errorf("Apply() overrode inline type: %q", inline[ColumnTestType])
	}
	resolved := c.Apply(Fields{ColumnTestCase: "t1"})
	if resolved[ColumnTestType] != "System" {
		t.Errorf("Apply() = %q, want System", resolved[ColumnTestType])
	}
	unknown := c.Apply(Fields{ColumnTestCase: "t2"})
	if v, ok := unknown[ColumnTestType]; !ok || v != "" {
		t.Errorf("Apply() for unknown case = %q (present %v), want empty", v, ok)
	}
}
