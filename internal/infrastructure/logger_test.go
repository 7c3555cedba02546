package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/config"
)

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "test.log")
	var console bytes.Buffer

	cfg := config.LoggingConfig{
		Level:    "info",
		Output:   "both",
		FilePath: logFile,
	}

	logger, err := InitializeLoggerTo(cfg, &console)
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	if logger == nil {
		t.Fatal("Logger is nil")
	}

	logger.Info("test message", "key", "value")

	CloseLogFile()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	var logEntry map[string]interface{}
	if err := json.Unmarshal(content, &logEntry); err != nil {
		t.Fatalf("Log output is not valid JSON: %v", err)
	}

	if logEntry["msg"] != "test message" {
		t.Errorf("Expected msg='test message', got %v", logEntry["msg"])
	}
	if logEntry["key"] != "value" {
		t.Errorf("Expected key='value', got %v", logEntry["key"])
	}
	if logEntry["level"] != "INFO" {
		t.Errorf("Expected level='INFO', got %v", logEntry["level"])
	}
	if !strings.Contains(console.String(), "test message") {
		t.Error("Expected console output to mirror the log file")
	}
}

func TestTraceIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "debug")

	ctx := WithTraceID(context.Background(), "test-trace-123")
	logger.InfoContext(ctx, "test with trace")

	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse log entry: %v", err)
	}
	if logEntry["trace_id"] != "test-trace-123" {
		t.Errorf("Expected trace_id='test-trace-123', got %v", logEntry["trace_id"])
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level     string
		debugSeen bool
		infoSeen  bool
		warnSeen  bool
	}{
		{"debug", true, true, true},
		{"info", false, true, true},
		{"WARNING", false, false, true},
		{"error", false, false, false},
		{"bogus", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, tt.level)

			logger.Debug("debug line")
			logger.Info("info line")
			logger.Warn("warn line")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.debugSeen {
				t.Errorf("debug visible = %v, want %v", got, tt.debugSeen)
			}
			if got := strings.Contains(out, "info line"); got != tt.infoSeen {
				t.Errorf("info visible = %v, want %v", got, tt.infoSeen)
			}
			if got := strings.Contains(out, "warn line"); got != tt.warnSeen {
				t.Errorf("warn visible = %v, want %v", got, tt.warnSeen)
			}
		})
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if GetTraceID(ctx) != "" {
		t.Error("Expected empty trace ID on a bare context")
	}

	ctx = EnsureTraceID(ctx)
	first := GetTraceID(ctx)
	if len(first) != 36 {
		t.Errorf("Expected a UUID trace ID, got %q", first)
	}

	if again := GetTraceID(EnsureTraceID(ctx)); again != first {
		t.Errorf("EnsureTraceID replaced an existing trace ID: %q != %q", again, first)
	}

	if GetTraceID(ContextWithTraceID(ctx)) == first {
		t.Error("ContextWithTraceID should generate a fresh trace ID")
	}
}

func TestLoggerHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info")

	WithError(WithComponent(logger, "extractor"), os.ErrNotExist).Info("lookup failed")
	WithError(logger, nil).Info("no error")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log lines, got %d", len(lines))
	}

	var first map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("Failed to parse log entry: %v", err)
	}
	if first["component"] != "extractor" {
		t.Errorf("Expected component='extractor', got %v", first["component"])
	}
	if first["error"] != os.ErrNotExist.Error() {
		t.Errorf("Expected error field, got %v", first["error"])
	}
	if strings.Contains(lines[1], `"error"`) {
		t.Error("WithError(nil) should not add an error field")
	}
}
