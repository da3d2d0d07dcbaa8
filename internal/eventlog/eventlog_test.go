package eventlog

import (
	"context"
	"testing"
)

func TestLoggerWithoutDatabaseIsNoop(t *testing.T) {
	loggers := map[string]*Logger{
		"nil logger": nil,
		"nil pool":   New(nil),
	}

	for name, l := range loggers {
		t.Run(name, func(t *testing.T) {
			if err := l.Log(context.Background(), "s1", EventFlushCompleted, map[string]any{"k": 1}); err != nil {
				t.Errorf("Log = %v, want nil", err)
			}
			// Must not panic or spawn work.
			l.LogAsync("s1", EventSessionDisconnected, nil)
		})
	}
}

func TestLoggerSkipsEmptySessionID(t *testing.T) {
	l := New(nil)
	if err := l.Log(context.Background(), "", EventSessionConnected, nil); err != nil {
		t.Errorf("Log = %v, want nil", err)
	}
}
