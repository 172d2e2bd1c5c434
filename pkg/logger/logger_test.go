package logger

import "testing"

func TestParseLevel(t *testing.T) {
	cases := []struct {
		name string
		want Level
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"success", SuccessLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"fatal", FailLevel},
		{"bogus", InfoLevel},
		{"", InfoLevel},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.name); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestLevelStrings(t *testing.T) {
	if SuccessLevel.String() != "success" || SuccessLevel.CapitalString() != "SUCCESS" {
		t.Errorf("success level renders as %q/%q", SuccessLevel.String(), SuccessLevel.CapitalString())
	}
	if FailLevel.String() != "fail" {
		t.Errorf("fail level renders as %q", FailLevel.String())
	}
}

func TestNewLoggerWithoutSinksIsUsable(t *testing.T) {
	log, err := NewLogger(Options{})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	// Must not panic with no sinks configured.
	log.Debugf("debug %d", 1)
	log.Successf("success")
	log.With("component", "test").Infof("info")
}
