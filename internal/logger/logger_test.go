package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		raw  string
		want zapcore.Level
		ok   bool
	}{
		{raw: "", want: zapcore.InfoLevel},
		{raw: "DEBUG", want: zapcore.DebugLevel, ok: true},
		{raw: " warn ", want: zapcore.WarnLevel, ok: true},
		{raw: "loud", want: zapcore.InfoLevel},
	}
	for _, tc := range cases {
		lvl, ok := parseLevel(tc.raw)
		if lvl != tc.want || ok != tc.ok {
			t.Fatalf("parseLevel(%q) = %v,%v; want %v,%v", tc.raw, lvl, ok, tc.want, tc.ok)
		}
	}
}

func TestNewBuildsForEachEnvironment(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		l, err := New(env, "error")
		if err != nil {
			t.Fatalf("%s: %v", env, err)
		}
		if l.Core().Enabled(zapcore.WarnLevel) {
			t.Fatalf("%s: expected level override to apply", env)
		}
	}
}
