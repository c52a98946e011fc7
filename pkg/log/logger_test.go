package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/takara-ml/prepro/pkg/errors"
)

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		name string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
	}
	for _, tt := range tests {
		if got := ToLogLevel(tt.name); Level(got) != tt.want {
			t.Errorf("ToLogLevel(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestToLogLevelPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for an unknown level name")
		}
	}()
	ToLogLevel("verbose")
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestTestLogger(t *testing.T) {
	t.Run("captures messages and fields", func(t *testing.T) {
		logger, _ := NewTestLogger(LevelDebug)
		logger.Info("fit complete", SamplesKey, 100, FeaturesKey, 5)

		if !logger.Contains("fit complete") {
			t.Error("message not captured")
		}

		records, err := logger.Records()
		if err != nil {
			t.Fatalf("Records failed: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("got %d records, want 1", len(records))
		}
		if records[0]["message"] != "fit complete" {
			t.Errorf("message = %v", records[0]["message"])
		}
		if records[0][SamplesKey] != float64(100) {
			t.Errorf("samples = %v", records[0][SamplesKey])
		}
	})

	t.Run("level filtering", func(t *testing.T) {
		logger, buffer := NewTestLogger(LevelWarn)
		logger.Debug("quiet")
		logger.Info("also quiet")
		logger.Warn("loud")

		if strings.Contains(buffer.String(), "quiet") {
			t.Error("records below the level leaked through")
		}
		if !logger.Contains("loud") {
			t.Error("warn record missing")
		}
	})

	t.Run("With merges fields", func(t *testing.T) {
		logger, _ := NewTestLogger(LevelInfo)
		child := logger.With(TransformerKey, "StandardScaler").(*TestLogger)
		child.Info("transform complete", OperationKey, "transform")

		records, err := child.Records()
		if err != nil {
			t.Fatalf("Records failed: %v", err)
		}
		if records[0][TransformerKey] != "StandardScaler" {
			t.Errorf("inherited field missing: %v", records[0])
		}
		if records[0][OperationKey] != "transform" {
			t.Errorf("call field missing: %v", records[0])
		}
	})

	t.Run("Enabled", func(t *testing.T) {
		logger, _ := NewTestLogger(LevelInfo)
		ctx := context.Background()
		if logger.Enabled(ctx, LevelDebug) {
			t.Error("debug should be disabled at info level")
		}
		if !logger.Enabled(ctx, LevelError) {
			t.Error("error should be enabled at info level")
		}
	})
}

func TestZerologLogger(t *testing.T) {
	t.Run("emits JSON with fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewZerologLogger(&buf, LevelInfo)
		logger.Info("grid search complete", ScoreKey, 0.97)

		var record map[string]interface{}
		if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if record["message"] != "grid search complete" {
			t.Errorf("message = %v", record["message"])
		}
		if record[ScoreKey] != 0.97 {
			t.Errorf("score = %v", record[ScoreKey])
		}
		if record["level"] != "info" {
			t.Errorf("level = %v", record["level"])
		}
	})

	t.Run("level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewZerologLogger(&buf, LevelWarn)
		logger.Info("suppressed")
		logger.Warn("emitted")

		out := buf.String()
		if strings.Contains(out, "suppressed") {
			t.Error("info record leaked through a warn-level logger")
		}
		if !strings.Contains(out, "emitted") {
			t.Error("warn record missing")
		}
	})

	t.Run("With carries fields forward", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewZerologLogger(&buf, LevelInfo).With(ComponentKey, "modelselection")
		logger.Info("starting grid search")

		if !strings.Contains(buf.String(), "modelselection") {
			t.Errorf("derived field missing from output: %s", buf.String())
		}
	})

	t.Run("Enabled respects level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewZerologLogger(&buf, LevelInfo)
		ctx := context.Background()
		if logger.Enabled(ctx, LevelDebug) {
			t.Error("debug should be disabled at info level")
		}
		if !logger.Enabled(ctx, LevelInfo) {
			t.Error("info should be enabled at info level")
		}
	})
}

func TestErrFmtHandler(t *testing.T) {
	var buf bytes.Buffer
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(&buf, nil))
	logger := slog.New(handler)

	err := errors.NewNotFittedError("StandardScaler", "Transform")
	logger.Error("transform failed", ErrAttr(err))

	var record map[string]interface{}
	if jsonErr := json.Unmarshal(buf.Bytes(), &record); jsonErr != nil {
		t.Fatalf("output is not JSON: %v", jsonErr)
	}
	if _, ok := record[StacktraceAttrKey]; !ok {
		t.Errorf("stacktrace attribute missing from record: %v", record)
	}
	if _, ok := record[ErrAttrKey]; !ok {
		t.Errorf("error attribute missing from record: %v", record)
	}
}

func TestErrFmtHandlerWithoutError(t *testing.T) {
	var buf bytes.Buffer
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(&buf, nil))
	slog.New(handler).Info("all good")

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if _, ok := record[StacktraceAttrKey]; ok {
		t.Error("stacktrace attribute added to a record with no error")
	}
}

func TestSetLogger(t *testing.T) {
	original := GetLogger()
	defer SetLogger(original)

	replacement, _ := NewTestLogger(LevelDebug)
	SetLogger(replacement)

	GetLogger().Info("routed")
	if !replacement.Contains("routed") {
		t.Error("SetLogger replacement not used by GetLogger")
	}
}
