package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrefixWriter(t *testing.T) {
	tests := []struct {
		name   string
		writes []string
		flush  bool
		want   string
	}{
		{
			name:   "single line",
			writes: []string{"hello\n"},
			want:   "> hello\n",
		},
		{
			name:   "split across writes",
			writes: []string{"hel", "lo\nwor", "ld\n"},
			want:   "> hello\n> world\n",
		},
		{
			name:   "partial line held",
			writes: []string{"pending"},
			want:   "",
		},
		{
			name:   "partial line flushed",
			writes: []string{"pending"},
			flush:  true,
			want:   "> pending",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			pw := NewPrefixWriter("> ", &out)
			for _, w := range tt.writes {
				n, err := pw.Write([]byte(w))
				if err != nil {
					t.Fatalf("Write(%q) error: %v", w, err)
				}
				if n != len(w) {
					t.Errorf("Write(%q) = %d, want %d", w, n, len(w))
				}
			}
			if tt.flush {
				if err := pw.Flush(); err != nil {
					t.Fatalf("Flush error: %v", err)
				}
			}
			if got := out.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewLoggerPrefixesPlainOutput(t *testing.T) {
	t.Setenv("EMOTEPACK_JSON_LOG", "")

	var out bytes.Buffer
	logger := NewLogger("test", "info", &out)
	logger.Info("slot bound", "slot", "smile")

	got := out.String()
	if !strings.HasPrefix(got, Prefix) {
		t.Errorf("output %q missing prefix %q", got, Prefix)
	}
	if !strings.Contains(got, "slot=smile") {
		t.Errorf("output %q missing key/value pair", got)
	}
}

func TestNewLoggerJSONLevel(t *testing.T) {
	t.Setenv("EMOTEPACK_JSON_LOG", "")

	var out bytes.Buffer
	logger := NewLogger("test", "json:debug", &out)
	logger.Debug("decoded")

	got := out.String()
	if strings.HasPrefix(got, Prefix) {
		t.Errorf("JSON output should not be prefixed: %q", got)
	}
	if !strings.Contains(got, `"@message":"decoded"`) {
		t.Errorf("output %q is not JSON", got)
	}
}

func TestResolveLevel(t *testing.T) {
	t.Setenv("EMOTEPACK_LOG_LEVEL", "")
	if level, source := ResolveLevel(""); level != "warn" || source != "default" {
		t.Errorf("ResolveLevel(\"\") = %q, %q", level, source)
	}

	t.Setenv("EMOTEPACK_LOG_LEVEL", "debug")
	if level, _ := ResolveLevel(""); level != "debug" {
		t.Errorf("env level = %q, want debug", level)
	}
	if level, _ := ResolveLevel("trace"); level != "trace" {
		t.Errorf("flag level = %q, want trace", level)
	}
}
