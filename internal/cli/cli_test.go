package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/AI2HU/bulletcalc/internal/ballistics"
	"github.com/AI2HU/bulletcalc/internal/config"
)

func TestValidatePort(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"", 27017, false},
		{"27018", 27018, false},
		{" 8000 ", 8000, false},
		{"0", 0, true},
		{"70000", 0, true},
		{"mongo", 0, true},
	}

	for _, tt := range tests {
		got, err := validatePort(tt.input, 27017)
		if (err != nil) != tt.wantErr {
			t.Errorf("validatePort(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("validatePort(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestValidateHostList(t *testing.T) {
	hosts, err := validateHostList(" localhost, .example.com ,,127.0.0.1")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"localhost", ".example.com", "127.0.0.1"}
	if strings.Join(hosts, "|") != strings.Join(want, "|") {
		t.Errorf("hosts = %v, want %v", hosts, want)
	}

	for _, bad := range []string{"", " , ", "http://example.com", "two words"} {
		if _, err := validateHostList(bad); err == nil {
			t.Errorf("validateHostList(%q) should fail", bad)
		}
	}
}

func TestValidateDatabaseName(t *testing.T) {
	if got, err := validateDatabaseName(" bullet_calculator_db "); err != nil || got != "bullet_calculator_db" {
		t.Errorf("got %q, %v", got, err)
	}
	for _, bad := range []string{"", "a.b", "a b", "a/b", "$db", strings.Repeat("x", 64)} {
		if _, err := validateDatabaseName(bad); err == nil {
			t.Errorf("validateDatabaseName(%q) should fail", bad)
		}
	}
}

func TestMaskSensitiveData(t *testing.T) {
	if got := maskSensitiveData("", "*"); got != "(not set)" {
		t.Errorf("empty = %q", got)
	}
	if got := maskSensitiveData("short", "*"); got != "***" {
		t.Errorf("short = %q", got)
	}
	if got := maskSensitiveData("abcdefghijkl", "*"); got != "abcd...ijkl" {
		t.Errorf("long = %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		250 * time.Millisecond:  "250ms",
		1500 * time.Millisecond: "1.5s",
		90 * time.Second:        "1.5m",
	}
	for d, want := range tests {
		if got := formatDuration(d); got != want {
			t.Errorf("formatDuration(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestPromptWithRetry(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader("abc\n99999\n27019\n"))
	got, err := promptWithRetry(reader, "Port: ", func(input string) (string, error) {
		if _, err := validatePort(input, 27017); err != nil {
			return "", err
		}
		return input, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "27019" {
		t.Errorf("got %q, want the first valid answer", got)
	}
}

func TestPromptYesNo(t *testing.T) {
	tests := map[string]bool{
		"y\n":         true,
		"YES\n":       true,
		"\n":          false,
		"maybe\nno\n": false,
		"nope\nyes\n": true,
	}
	for input, want := range tests {
		got, err := promptYesNo(bufio.NewReader(strings.NewReader(input)), "? ")
		if err != nil {
			t.Fatalf("%q: %v", input, err)
		}
		if got != want {
			t.Errorf("promptYesNo(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestPromptStopsAtEndOfInput(t *testing.T) {
	if _, err := promptRequired(bufio.NewReader(strings.NewReader("")), "Password: "); !errors.Is(err, errInputAborted) {
		t.Errorf("empty input: err = %v, want errInputAborted", err)
	}

	_, err := promptWithRetry(bufio.NewReader(strings.NewReader("abc")), "Port: ", func(input string) (string, error) {
		_, err := validatePort(input, 27017)
		return input, err
	})
	if !errors.Is(err, errInputAborted) {
		t.Errorf("invalid last line: err = %v, want errInputAborted", err)
	}

	got, err := promptRequired(bufio.NewReader(strings.NewReader("shooter")), "Username: ")
	if err != nil || got != "shooter" {
		t.Errorf("unterminated last line = %q, %v", got, err)
	}
}

func TestPromptPasswordWithoutTerminal(t *testing.T) {
	orig := stdinIsTerminal
	stdinIsTerminal = func() bool { return false }
	t.Cleanup(func() { stdinIsTerminal = orig })

	got, err := promptPassword(bufio.NewReader(strings.NewReader("\nWind-Call-Holdover\n")), "Password: ")
	if err != nil || got != "Wind-Call-Holdover" {
		t.Errorf("promptPassword = %q, %v", got, err)
	}
	if _, err := promptPassword(bufio.NewReader(strings.NewReader("")), "Password: "); !errors.Is(err, errInputAborted) {
		t.Errorf("closed stdin: err = %v, want errInputAborted", err)
	}
}

func TestNewSecretKey(t *testing.T) {
	a, b := newSecretKey(), newSecretKey()
	if len(a) != 100 {
		t.Errorf("len = %d, want 100 hex chars", len(a))
	}
	if a == b {
		t.Error("keys should differ")
	}
}

func TestMongoConfigFromSettings(t *testing.T) {
	c := config.DefaultConfig(t.TempDir())
	c.NoSQLDatabase.Username = "shooter"
	c.NoSQLDatabase.Password = "s3cret"

	m := mongoConfig(c)
	if m.Database != "bullet_calculator_db" || m.Host != "localhost" || m.Port != 27017 {
		t.Errorf("mongo config = %+v", m)
	}
	if m.Username != "shooter" || m.Password != "s3cret" || m.AuthSource != "admin" {
		t.Errorf("credentials = %+v", m)
	}
	if m.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", m.Timeout)
	}

	s := sqlConfig(c)
	if s.Provider != "sqlite" || !strings.HasSuffix(s.URI, "db.sqlite3") {
		t.Errorf("sql config = %+v", s)
	}
}

func TestPrintTrajectory(t *testing.T) {
	in := ballistics.Input{
		BulletWeightGr:       168,
		BallisticCoefficient: 0.462,
		DragModel:            ballistics.G1,
		MuzzleVelocityMS:     800,
		SightHeightCM:        3.8,
		ZeroRangeM:           100,
		MaxRangeM:            300,
		StepM:                100,
		Atmosphere:           ballistics.Standard(),
	}
	result, err := ballistics.New().Solve(in)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	printTrajectory(&buf, in, result, "mil")
	out := buf.String()

	for _, want := range []string{"Trajectory", "168 gr", "DROP MIL", "beyond max range", "300"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "stalled") {
		t.Errorf("complete trajectory reported as stalled:\n%s", out)
	}
}
