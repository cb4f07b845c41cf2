package parser

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseText_SimpleScenario(t *testing.T) {
	input := "test_adc_voltage: PASS\ntest_can_bus: FAIL - TimeoutError\n"

	table, err := ParseText(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseText() error = %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", table.Len())
	}

	want := Record{TestCase: "test_can_bus", Status: StatusFail, Error: "TimeoutError"}
	if table.Records[1] != want {
		t.Errorf("Records[1] = %+v, want %+v", table.Records[1], want)
	}
	if table.Records[0].Error != "" {
		t.Errorf("PASS record error = %q, want empty", table.Records[0].Error)
	}
}

func TestParseText_BracketedCorrelation(t *testing.T) {
	input := "[INFO] Running test: t1 [type=System]\n[RESULT] t1 [CORE] PASS\n"

	table, err := ParseText(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseText() error = %v", err)
	}
	if table.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", table.Len())
	}

	want := Record{TestCase: "t1", Module: "CORE", Status: StatusPass, TestType: "System"}
	if table.Records[0] != want {
		t.Errorf("record = %+v, want %+v", table.Records[0], want)
	}
}

func TestParseText_UncorrelatedResultHasEmptyType(t *testing.T) {
	input := `[2024-03-01 10:00:00] [INFO] Running test: t1 [type=Unit]
[2024-03-01 10:00:01] [RESULT] t2 [CORE] FAIL - Overflow
`
	table, err := ParseText(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseText() error = %v", err)
	}
	if table.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (info lines emit nothing)", table.Len())
	}
	if table.Records[0].TestType != "" {
		t.Errorf("TestType = %q, want empty", table.Records[0].TestType)
	}
	if table.Records[0].Timestamp != "2024-03-01 10:00:01" {
		t.Errorf("Timestamp = %q", table.Records[0].Timestamp)
	}
}

func TestParseText_CorrelationLastWriteWinsAndReuse(t *testing.T) {
	input := `[INFO] Running test: t1 [type=Unit]
[INFO] Running test: t1 [type=Stress]
[RESULT] t1 [CORE] FAIL - first
[RESULT] t1 [CORE] PASS
`
	table, err := ParseText(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseText() error = %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", table.Len())
	}
	for i, r := range table.Records {
		if r.TestType != "Stress" {
			t.Errorf("Records[%d].TestType = %q, want Stress", i, r.TestType)
		}
	}
}

func TestParseText_MixedGrammarsAndNoise(t *testing.T) {
	input := `=== HIL bench run 42 ===
[2024-03-01 10:00:00] [INFO] Running test: test_can_bus [type=Integration]
flashing firmware... done
[2024-03-01 10:00:03] [RESULT] test_can_bus [CAN] FAIL - TimeoutError
[2024-03-01 10:00:04] ▶ Result: test_adc | PASS | Module: POWER | Type: Unit
test_gpio_init: PASS

bad_line_here_no_colon
test_temp_sensor: FAIL - NullReferenceException
test_flaky: pass
`
	table, err := ParseText(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseText() error = %v", err)
	}

	// row count equals exactly the number of matching result lines
	if table.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", table.Len())
	}

	gotCases := make([]string, 0, table.Len())
	for _, r := range table.Records {
		gotCases = append(gotCases, r.TestCase)
	}
	wantCases := []string{"test_can_bus", "test_adc", "test_gpio_init", "test_temp_sensor"}
	if !reflect.DeepEqual(gotCases, wantCases) {
		t.Errorf("test cases = %v, want %v", gotCases, wantCases)
	}

	if table.Records[0].TestType != "Integration" {
		t.Errorf("correlated type = %q, want Integration", table.Records[0].TestType)
	}
	if table.Records[1].TestType != "Unit" || table.Records[1].Module != "POWER" {
		t.Errorf("decorated record = %+v", table.Records[1])
	}
}

func TestParseText_EmptyInput(t *testing.T) {
	table, err := ParseText(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ParseText() error = %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("Len() = %d, want 0", table.Len())
	}
	if table.Records == nil {
		t.Error("Records is nil, want empty slice")
	}
	if !reflect.DeepEqual(table.Columns(), Columns()) {
		t.Errorf("Columns() = %v", table.Columns())
	}
}

func TestParseText_CRLF(t *testing.T) {
	table, err := ParseText(strings.NewReader("a: PASS\r\nb: FAIL - E1\r\n"))
	if err != nil {
		t.Fatalf("ParseText() error = %v", err)
	}
	if table.Len() != 2 || table.Records[1].Error != "E1" {
		t.Errorf("records = %+v", table.Records)
	}
}

func TestParseText_OverlongLineIsSkipped(t *testing.T) {
	noise := strings.Repeat("x", 2<<20)
	input := "t1: PASS\n" + noise + "\nt2: FAIL - E\n"

	table, err := ParseText(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseText() error = %v", err)
	}
	got := []string{}
	for _, r := range table.Records {
		got = append(got, r.TestCase)
	}
	if !reflect.DeepEqual(got, []string{"t1", "t2"}) {
		t.Errorf("records = %v, want [t1 t2]", got)
	}
	if table.Records[1].Error != "E" {
		t.Errorf("t2 error = %q, want E", table.Records[1].Error)
	}
}

func TestParseText_InvalidUTF8(t *testing.T) {
	_, err := ParseText(strings.NewReader("a: PASS\n\xff\xfe\xfd broken\n"))
	if !errors.Is(err, ErrDecode) {
		t.Errorf("ParseText() error = %v, want ErrDecode", err)
	}
}

func TestParseText_StripsBOM(t *testing.T) {
	table, err := ParseText(strings.NewReader("\ufeffa: PASS\n"))
	if err != nil {
		t.Fatalf("ParseText() error = %v", err)
	}
	if table.Len() != 1 || table.Records[0].TestCase != "a" {
		t.Errorf("records = %+v", table.Records)
	}
}

func TestParseText_LogsSkippedLines(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	_, err := ParseText(strings.NewReader("a: PASS\nnoise\n\nb: FAIL\n"), WithLogger(logger))
	if err != nil {
		t.Fatalf("ParseText() error = %v", err)
	}

	skipped := logs.FilterMessage("skipping unmatched line").All()
	if len(skipped) != 1 {
		t.Fatalf("got %d skip entries, want 1 (blank lines are not reported)", len(skipped))
	}
	if line := skipped[0].ContextMap()["line"]; line != int64(2) {
		t.Errorf("line = %v, want 2", line)
	}
}

func TestParse_TextFile(t *testing.T) {
	path := writeTemp(t, "run.TXT", "test_str_mode: PASS\n")

	table, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if table.Len() != 1 || table.Records[0].TestCase != "test_str_mode" {
		t.Errorf("records = %+v", table.Records)
	}
}

func TestParse_CSV(t *testing.T) {
	content := `Test_Type , status,error,module,test_case,timestamp,operator
Unit,PASS,,POWER,test_adc_voltage,2024-03-01 10:00:00,alice
Integration,FAIL,TimeoutError,CAN,test_can_bus,2024-03-01 10:00:01,bob
`
	path := writeTemp(t, "results.csv", content)

	table, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", table.Len())
	}

	wantRows := [][]string{
		{"2024-03-01 10:00:00", "test_adc_voltage", "POWER", "PASS", "", "Unit"},
		{"2024-03-01 10:00:01", "test_can_bus", "CAN", "FAIL", "TimeoutError", "Integration"},
	}
	if got := table.Rows(); !reflect.DeepEqual(got, wantRows) {
		t.Errorf("Rows() = %v, want %v", got, wantRows)
	}
}

func TestParse_CSVMissingColumns(t *testing.T) {
	content := "case_name,status\ntest_a,PASS\n"
	path := writeTemp(t, "broken.csv", content)

	_, err := Parse(path)
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("Parse() error = %v, want ErrMissingColumns", err)
	}

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("error is not *SchemaError: %T", err)
	}
	want := []string{"timestamp", "test_case", "module", "error", "test_type"}
	if !reflect.DeepEqual(schemaErr.Missing, want) {
		t.Errorf("Missing = %v, want %v", schemaErr.Missing, want)
	}
	if !strings.Contains(err.Error(), "missing expected columns: timestamp, test_case, module, error, test_type") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestParse_CSVMinimalSchema(t *testing.T) {
	content := `test_case,status,error
test_adc_voltage,PASS,
test_can_bus,FAIL,TimeoutError
test_temp_sensor,FAIL,NullReferenceException
test_gpio_init,PASS,
`
	path := writeTemp(t, "minimal.csv", content)

	if _, err := Parse(path); !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("Parse() with full schema error = %v, want ErrMissingColumns", err)
	}

	table, err := Parse(path, WithSchema(SchemaMinimal))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if table.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", table.Len())
	}
	got := table.Records[1]
	want := Record{TestCase: "test_can_bus", Status: StatusFail, Error: "TimeoutError"}
	if got != want {
		t.Errorf("Records[1] = %+v, want %+v", got, want)
	}
}

func TestParse_CSVMinimalSchemaMissing(t *testing.T) {
	path := writeTemp(t, "m.csv", "test_case,result\na,PASS\n")

	_, err := Parse(path, WithSchema(SchemaMinimal))
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Parse() error = %v, want *SchemaError", err)
	}
	if want := []string{"status", "error"}; !reflect.DeepEqual(schemaErr.Missing, want) {
		t.Errorf("Missing = %v, want %v", schemaErr.Missing, want)
	}
}

func TestParse_CSVDropsUnknownStatusAndBlankRows(t *testing.T) {
	content := `test_case,status,error
a,PASS,
,,
b,SKIPPED,
c,fail,lowercase
d,FAIL,Boom
`
	table, err := ParseReader("x.csv", strings.NewReader(content), WithSchema(SchemaMinimal))
	if err != nil {
		t.Fatalf("ParseReader() error = %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2: %+v", table.Len(), table.Records)
	}
	if table.Records[1].TestCase != "d" {
		t.Errorf("Records[1] = %+v", table.Records[1])
	}
}

func TestParse_CSVEmptyFile(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	if !errors.Is(err, ErrMissingColumns) {
		t.Errorf("ParseCSV() error = %v, want ErrMissingColumns", err)
	}
}

func TestParse_CSVHeaderOnly(t *testing.T) {
	table, err := ParseCSV(strings.NewReader("timestamp,test_case,module,status,error,test_type\n"))
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("Len() = %d, want 0", table.Len())
	}
}

func TestParse_UnsupportedType(t *testing.T) {
	_, err := Parse("unsupported_file_type.xyz")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("Parse() error = %v, want ErrUnsupportedType", err)
	}
	if !strings.Contains(err.Error(), ".xyz") {
		t.Errorf("message %q does not name the extension", err.Error())
	}

	var typeErr *UnsupportedTypeError
	if !errors.As(err, &typeErr) || typeErr.Ext != ".xyz" {
		t.Errorf("error = %#v", err)
	}
}

func TestParse_FileNotFound(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "missing.log"))
	if err == nil {
		t.Fatal("Parse() expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want wrapped os.ErrNotExist", err)
	}
}

func TestParseReader_Dispatch(t *testing.T) {
	tests := []struct {
		desc    string
		name    string
		input   string
		want    int
		wantErr error
	}{
		{"log stream", "fake.log", "test_io_mode: FAIL - FaultInjection\n", 1, nil},
		{"upper-case extension", "fake.LOG", "test_io_mode: FAIL - FaultInjection\n", 1, nil},
		{"unnamed stream uses text path", "", "unnamed: PASS\n", 1, nil},
		{"csv stream", "table.csv", "test_case,status\nx,PASS\n", 0, ErrMissingColumns},
		{"unsupported extension", "report.pdf", "anything", 0, ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			table, err := ParseReader(tt.name, strings.NewReader(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseReader() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseReader() error = %v", err)
			}
			if table.Len() != tt.want {
				t.Errorf("Len() = %d, want %d", table.Len(), tt.want)
			}
		})
	}
}

func TestParseFiles_NoCorrelationAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.log")
	second := filepath.Join(dir, "b.log")
	if err := os.WriteFile(first, []byte("[INFO] Running test: t1 [type=Unit]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte("[RESULT] t1 [CORE] PASS\n"), 0644); err != nil {
		t.Fatal(err)
	}

	table, err := ParseFiles([]string{first, second})
	if err != nil {
		t.Fatalf("ParseFiles() error = %v", err)
	}
	if table.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", table.Len())
	}
	if table.Records[0].TestType != "" {
		t.Errorf("TestType = %q, want empty (state is per file)", table.Records[0].TestType)
	}
}

func TestParseFiles_ErrorNamesFile(t *testing.T) {
	path := writeTemp(t, "bad.csv", "nope\n1\n")
	_, err := ParseFiles([]string{path})
	if err == nil || !strings.Contains(err.Error(), path) {
		t.Errorf("ParseFiles() error = %v, want mention of %s", err, path)
	}
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"a.csv", FormatCSV, false},
		{"A.CSV", FormatCSV, false},
		{"a.txt", FormatText, false},
		{"a.Log", FormatText, false},
		{"dir.csv/a.json", 0, true},
		{"noext", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatFor(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FormatFor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("FormatFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecord_Values(t *testing.T) {
	r := Record{Timestamp: "ts", TestCase: "tc", Module: "m", Status: StatusFail, Error: "e", TestType: "tt"}
	want := []string{"ts", "tc", "m", "FAIL", "e", "tt"}
	if got := r.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("Values() = %v, want %v", got, want)
	}
	if got := Columns(); !reflect.DeepEqual(got, []string{"timestamp", "test_case", "module", "status", "error", "test_type"}) {
		t.Errorf("Columns() = %v", got)
	}
}
