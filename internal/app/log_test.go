package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestHydroHandler_Handle(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name        string
		level       slog.Level
		message     string
		attrs       []slog.Attr
		wantFile    string
		wantConsole string
	}{
		{
			name:     "info goes to file only",
			level:    slog.LevelInfo,
			message:  "entry added",
			attrs:    []slog.Attr{slog.String("id", "id-1"), slog.Int("ml", 250)},
			wantFile: "2024-06-15T14:30:45Z\tINFO\top-7\tentry added\tid=id-1\tml=250\n",
		},
		{
			name:        "warn is echoed to console",
			level:       slog.LevelWarn,
			message:     "weather unavailable",
			wantFile:    "2024-06-15T14:30:45Z\tWARN\top-7\tweather unavailable\n",
			wantConsole: "2024-06-15T14:30:45Z\tWARN\top-7\tweather unavailable\n",
		},
		{
			name:     "debug level",
			level:    slog.LevelDebug,
			message:  "refreshed",
			wantFile: "2024-06-15T14:30:45Z\tDEBUG\top-7\trefreshed\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var file, console bytes.Buffer
			h := &hydroHandler{file: &file, console: &console, consoleLevel: slog.LevelWarn, opID: "op-7"}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			r.AddAttrs(tt.attrs...)

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if got := file.String(); got != tt.wantFile {
				t.Errorf("file output =\n%q\nwant:\n%q", got, tt.wantFile)
			}
			if got := console.String(); got != tt.wantConsole {
				t.Errorf("console output =\n%q\nwant:\n%q", got, tt.wantConsole)
			}
		})
	}
}

func TestHydroHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &hydroHandler{file: &buf, opID: "op-1", attrs: []slog.Attr{slog.String("a", "1")}}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "vault")}).(*hydroHandler)
	if len(h.attrs) != 1 {
		t.Errorf("original handler attrs modified: got %d, want 1", len(h.attrs))
	}

	r := slog.NewRecord(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), slog.LevelInfo, "upload", 0)
	r.AddAttrs(slog.String("key", "db"))
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	for _, want := range []string{"a=1", "component=vault", "key=db"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q missing %q", got, want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")
	var console bytes.Buffer

	logger, f, err := newLogger(dir, "test-op", &console)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}

	logger.Info("quiet")
	logger.Error("loud")
	f.Close()

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "quiet") || !strings.Contains(string(data), "loud") {
		t.Errorf("log file = %q, want both records", data)
	}
	if strings.Contains(console.String(), "quiet") || !strings.Contains(console.String(), "loud") {
		t.Errorf("console = %q, want only the error record", console.String())
	}
}
