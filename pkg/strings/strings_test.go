package strings

import (
	"strings"
	"testing"
)

func TestBytesToString(t *testing.T) {
	b := []byte("hello world")
	s := BytesToString(b)

	if s != "hello world" {
		t.Errorf("expected 'hello world', got '%s'", s)
	}

	// Test empty slice
	empty := BytesToString([]byte{})
	if empty != "" {
		t.Errorf("expected empty string, got '%s'", empty)
	}
}

func TestStringToBytes(t *testing.T) {
	s := "hello world"
	b := StringToBytes(s)

	if string(b) != "hello world" {
		t.Errorf("expected 'hello world', got '%s'", string(b))
	}

	// Test empty string
	empty := StringToBytes("")
	if empty != nil {
		t.Errorf("expected nil slice, got %v", empty)
	}
}

func TestBuilder(t *testing.T) {
	builder := NewBuilder(32)

	builder.WriteString("serial:")
	builder.WriteString("111")
	builder.WriteByte(' ')
	builder.WriteString("temp:24.5")

	result := builder.String()
	if result != "serial:111 temp:24.5" {
		t.Errorf("expected 'serial:111 temp:24.5', got '%s'", result)
	}

	if builder.Len() != 20 {
		t.Errorf("expected length 20, got %d", builder.Len())
	}
}

func TestBuilderReset(t *testing.T) {
	builder := NewBuilder(32)
	builder.WriteString("test")

	if builder.Len() != 4 {
		t.Errorf("expected length 4, got %d", builder.Len())
	}

	builder.Reset()
	if builder.Len() != 0 {
		t.Errorf("expected length 0 after reset, got %d", builder.Len())
	}
}

func TestGetPutBuilder(t *testing.T) {
	builder := GetBuilder(Small)
	builder.WriteString("pooled")

	if builder.String() != "pooled" {
		t.Errorf("expected 'pooled', got '%s'", builder.String())
	}

	PutBuilder(builder, Small)

	// Reacquired builder must be reset
	builder = GetBuilder(Small)
	if builder.Len() != 0 {
		t.Errorf("expected reset builder, got length %d", builder.Len())
	}
	PutBuilder(builder, Small)
}

func TestSprintf(t *testing.T) {
	s := Sprintf("Sensor %s reported %.1f°C", "333", 31.5)
	if s != "Sensor 333 reported 31.5°C" {
		t.Errorf("unexpected result: %s", s)
	}

	// No-arg fast path returns the format untouched
	if Sprintf("plain") != "plain" {
		t.Error("expected no-arg Sprintf to return format string")
	}
}

func TestJoin(t *testing.T) {
	alerts := []string{"alert one", "alert two", "alert three"}
	joined := Join(alerts, "\n")

	if joined != "alert one\nalert two\nalert three" {
		t.Errorf("unexpected join result: %q", joined)
	}

	if Join(nil, "\n") != "" {
		t.Error("expected empty string for nil input")
	}
	if Join([]string{"solo"}, "\n") != "solo" {
		t.Error("expected single element passthrough")
	}
}

func TestTrimSpace(t *testing.T) {
	cases := map[string]string{
		"  OK  ":     "OK",
		"\tvalue\n":  "value",
		"no_trim":    "no_trim",
		"   ":        "",
		"":           "",
		" Qualcomm ": "Qualcomm",
	}

	for in, want := range cases {
		if got := TrimSpace(in); got != want {
			t.Errorf("TrimSpace(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHasPrefix(t *testing.T) {
	if !HasPrefix("serial:111temp:2450", "serial:") {
		t.Error("expected serial: prefix match")
	}
	if HasPrefix("manu:Qualcomm", "serial:") {
		t.Error("expected no serial: prefix match")
	}
	if !HasPrefix("manu:Qualcomm", "manu:") {
		t.Error("expected manu: prefix match")
	}
}

func TestReportBuilder(t *testing.T) {
	rb := NewReportBuilder(8)
	defer rb.Close()

	rb.WriteLine("=== Temperature Analysis ===")
	rb.WriteLinef("Maximum: %.2f°C", 31.5)
	rb.WriteIndented(1, "Sensor 333")

	report := rb.String()
	expected := "=== Temperature Analysis ===\nMaximum: 31.50°C\n  Sensor 333\n"
	if report != expected {
		t.Errorf("unexpected report:\n%q\nwant:\n%q", report, expected)
	}

	if rb.Lines() != 3 {
		t.Errorf("expected 3 lines, got %d", rb.Lines())
	}
}

func TestConcat(t *testing.T) {
	s := Concat("Unknown-", "a1b2c3d4")
	if s != "Unknown-a1b2c3d4" {
		t.Errorf("unexpected concat result: %s", s)
	}
}

func TestValueToString(t *testing.T) {
	if ValueToString(nil) != "" {
		t.Error("expected empty string for nil")
	}
	if ValueToString("x") != "x" {
		t.Error("expected passthrough for string")
	}
	if ValueToString(42) != "42" {
		t.Error("expected '42' for int")
	}
	if ValueToString(24.5) != "24.5" {
		t.Error("expected '24.5' for float64")
	}
	if ValueToString(true) != "true" {
		t.Error("expected 'true' for bool")
	}
}

func TestBuildString(t *testing.T) {
	s := BuildString(func(b *Builder) {
		b.WriteString("a")
		b.WriteString("b")
	})
	if s != "ab" {
		t.Errorf("expected 'ab', got '%s'", s)
	}
}

func TestCloneOwnsMemory(t *testing.T) {
	src := strings.Repeat("x", 16)
	cloned := Clone(src)
	if cloned != src {
		t.Error("clone must equal source")
	}
	if Clone("") != "" {
		t.Error("expected empty clone for empty string")
	}
}
