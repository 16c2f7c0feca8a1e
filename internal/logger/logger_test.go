package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogFilePathFallsBackToWorkdir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := logFilePath(Options{})
	if err != nil {
		t.Fatalf("logFilePath failed: %v", err)
	}
	realTmp, _ := filepath.EvalSymlinks(tmpDir)
	realDir, _ := filepath.EvalSymlinks(filepath.Dir(got))
	if realDir != filepath.Join(realTmp, defaultDirName) {
		t.Fatalf("unexpected log dir: %s", realDir)
	}
	if filepath.Base(got) != defaultFilename {
		t.Fatalf("unexpected log filename: %s", filepath.Base(got))
	}
}

func TestReleaseModeWritesJSONEvents(t *testing.T) {
	dir := t.TempDir()
	log := New("release", Options{Dir: dir, Filename: "api.log"})
	log.Sugar().Infow("order_created", "order_id", 42)
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(dir, "api.log"))
	if err != nil {
		t.Fatalf("read log failed: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, `"event":"order_created"`) || !strings.Contains(text, `"order_id":42`) {
		t.Fatalf("unexpected log content: %s", text)
	}
}

func TestDebugModeSkipsFile(t *testing.T) {
	dir := t.TempDir()
	log := New("debug", Options{Dir: dir, Filename: "debug.log"})
	log.Info("debug_event")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(dir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create a log file")
	}
}

func TestPositiveOr(t *testing.T) {
	if positiveOr(0, 7) != 7 || positiveOr(-1, 7) != 7 || positiveOr(3, 7) != 3 {
		t.Fatalf("positiveOr returned unexpected values")
	}
}
