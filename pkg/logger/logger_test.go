package logger

import (
	"testing"
	"time"
)

func TestSubscribeReceivesEntries(t *testing.T) {
	l := New("test")
	l.DisableConsoleOutput()
	ch := l.Subscribe()

	l.Infof("hello %s", "world")

	select {
	case entry := <-ch:
		if entry.Level != "INFO" || entry.Message != "hello world" {
			t.Errorf("entry = %+v", entry)
		}
	case <-time.After(time.Second):
		t.Fatal("no entry delivered")
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Debugf("no-op")
	l.Warnf("no-op")
	l.Errorf("no-op")
}
