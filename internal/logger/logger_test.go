package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNew_WritesDailyFile(t *testing.T) {
	root := t.TempDir()
	log, err := New(root, false, "debug")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Debugw("probe", "k", "v")
	_ = log.Sync()

	name := filepath.Join(root, "logs", time.Now().Format("2006-01-02")+".log")
	b, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(b) == 0 {
		t.Fatal("log file empty")
	}
	if zap.L().Core().Enabled(zap.DebugLevel) != true {
		t.Fatal("global logger not replaced")
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("warn") != zap.WarnLevel {
		t.Fatal("warn")
	}
	if ParseLevel("bogus") != zap.InfoLevel {
		t.Fatal("fallback")
	}
}
