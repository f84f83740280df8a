package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/attendance/internal/attendance"
	"github.com/klabast/wb-services/attendance/internal/config"
)

func fixedNow() time.Time {
	return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
}

// run executes the CLI against dir with stdin and returns combined output.
func run(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ATTENDANCE_TIMEZONE", "UTC")

	c := &cli{in: strings.NewReader(stdin), now: fixedNow, log: zap.NewNop()}
	root := newRoot(c)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--data-dir", dir}, args...))
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := run(t, dir, "", args...)
	require.NoError(t, err, out)
	return out
}

func TestSubjectCommands(t *testing.T) {
	dir := t.TempDir()

	assert.Contains(t, mustRun(t, dir, "subject", "add", "  Math "), "Added Math")
	out := mustRun(t, dir, "subject", "present", "Math")
	assert.Contains(t, out, "1/1")
	assert.Contains(t, out, "100%")

	_, err := run(t, dir, "", "subject", "add", "Math")
	assert.ErrorIs(t, err, attendance.ErrDuplicateSubject)

	_, err = run(t, dir, "", "subject", "present", "Art")
	assert.ErrorIs(t, err, attendance.ErrSubjectNotFound)

	mustRun(t, dir, "subject", "add", "Art")
	mustRun(t, dir, "subject", "absent", "Art")
	out = mustRun(t, dir, "subject", "list")
	assert.Contains(t, out, "Art")
	assert.Contains(t, out, "below 80%")
	assert.Less(t, strings.Index(out, "Art"), strings.Index(out, "Math"))

	out = mustRun(t, dir, "subject", "show", "Math")
	assert.Contains(t, out, "2024-03-15")
	assert.Contains(t, out, "present")

	mustRun(t, dir, "subject", "unmark", "Math")
	assert.Contains(t, mustRun(t, dir, "subject", "show", "Math"), "0/0")

	// the subject is written as the attendanceData file
	_, err = os.Stat(filepath.Join(dir, attendance.KeyClasses+".json"))
	assert.NoError(t, err)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "subject", "add", "Math")

	out, err := run(t, dir, "n\n", "subject", "delete", "Math")
	assert.ErrorIs(t, err, attendance.ErrNotConfirmed)
	assert.Contains(t, out, "Delete Math and all its records? [y/N]")
	mustRun(t, dir, "subject", "show", "Math")

	_, err = run(t, dir, "", "subject", "delete", "Math")
	assert.ErrorIs(t, err, attendance.ErrNotConfirmed, "EOF answers no")

	out, err = run(t, dir, "y\n", "subject", "delete", "Math")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted Math")

	_, err = run(t, dir, "", "subject", "show", "Math")
	assert.ErrorIs(t, err, attendance.ErrSubjectNotFound)

	mustRun(t, dir, "subject", "add", "Art")
	mustRun(t, dir, "--yes", "subject", "clear")
	assert.Contains(t, mustRun(t, dir, "subject", "list"), "No subjects yet")
}

func TestDailyCommands(t *testing.T) {
	dir := t.TempDir()

	for _, want := range []string{"present", "absent", "unmarked", "present"} {
		out := mustRun(t, dir, "daily", "toggle", "2024-03-04")
		assert.Contains(t, out, "2024-03-04 "+want)
	}

	_, err := run(t, dir, "", "daily", "toggle", "2024-02-30")
	assert.ErrorIs(t, err, attendance.ErrInvalidDate)

	mustRun(t, dir, "daily", "set", "2024-03-05", "ABSENT")
	_, err = run(t, dir, "", "daily", "set", "2024-03-05", "late")
	assert.ErrorIs(t, err, attendance.ErrInvalidStatus)

	assert.Contains(t, mustRun(t, dir, "daily", "today", "present"), "2024-03-15 present")

	out := mustRun(t, dir, "daily", "month")
	assert.Contains(t, out, "March 2024")
	assert.Contains(t, out, "Su")
	assert.Contains(t, out, " 4P")
	assert.Contains(t, out, " 5A")

	out = mustRun(t, dir, "daily", "month", "2024", "13")
	assert.Contains(t, out, "January 2025")

	_, err = run(t, dir, "", "daily", "month", "2024")
	assert.Error(t, err)

	out = mustRun(t, dir, "overview", "--json")
	var overview attendance.Overview
	require.NoError(t, json.Unmarshal([]byte(out), &overview))
	assert.Equal(t, 3, overview.DailyMarked)

	mustRun(t, dir, "--yes", "daily", "clear")
	assert.Contains(t, mustRun(t, dir, "overview"), "Days marked       0")
}

func TestExportImport(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "subject", "add", "Math")
	mustRun(t, dir, "subject", "present", "Math")

	file := filepath.Join(t.TempDir(), "classes-attendance.json")
	mustRun(t, dir, "export", "-o", file)

	out := mustRun(t, dir, "export", "--csv")
	assert.Contains(t, out, "subject,date,status\nMath,2024-03-15,present\n")

	other := t.TempDir()
	assert.Contains(t, mustRun(t, other, "import", file), "Imported 1 subjects")
	assert.Contains(t, mustRun(t, other, "subject", "show", "Math"), "1/1")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[1,2,3]`), 0644))
	_, err := run(t, other, "", "--yes", "import", bad)
	assert.ErrorIs(t, err, attendance.ErrInvalidImport)
	assert.Contains(t, mustRun(t, other, "subject", "show", "Math"), "1/1", "rejected import must not change data")

	// replacing existing subjects asks first
	_, err = run(t, other, "n\n", "import", file)
	assert.ErrorIs(t, err, attendance.ErrNotConfirmed)

	out, err = run(t, other, `{"Art":{"records":[]}}`, "--yes", "import", "-")
	require.NoError(t, err, out)
	assert.Contains(t, mustRun(t, other, "subject", "list"), "Art")
	_, err = run(t, other, "", "subject", "show", "Math")
	assert.ErrorIs(t, err, attendance.ErrSubjectNotFound)
}

func TestSQLiteBackend(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "--backend", "sqlite", "subject", "add", "Math")
	mustRun(t, dir, "--backend", "sqlite", "subject", "present", "Math")

	assert.Contains(t, mustRun(t, dir, "--backend", "sqlite", "subject", "list"), "Math")
	_, err := os.Stat(filepath.Join(dir, "attendance.db"))
	assert.NoError(t, err)

	// the file backend is a separate store
	assert.Contains(t, mustRun(t, dir, "subject", "list"), "No subjects yet")

	_, err = run(t, dir, "", "--backend", "redis", "subject", "list")
	assert.Error(t, err)
}

func TestHashPasswordCommand(t *testing.T) {
	dir := t.TempDir()
	authFile := filepath.Join(dir, "auth.secret")
	t.Setenv("AUTH_FILE", authFile)

	out, err := run(t, dir, "admin\nS3cret-pass\nS3cret-pass\n", "hash-password")
	require.NoError(t, err, out)
	content, err := os.ReadFile(authFile)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "admin:$argon2id$"))

	_, err = run(t, dir, "admin\na\nb\n", "hash-password", "--overwrite")
	assert.ErrorContains(t, err, "passwords do not match")

	_, err = run(t, dir, "root\npw\npw\nn\n", "hash-password")
	assert.Error(t, err, "declined overwrite")

	_, err = run(t, dir, "root\npw\npw\ny\n", "hash-password")
	require.NoError(t, err)
	content, _ = os.ReadFile(authFile)
	assert.True(t, strings.HasPrefix(string(content), "root:"))
}

func TestServeShutsDown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Port = port
	cfg.AuthFile = filepath.Join(cfg.DataDir, "auth.secret")
	c := &cli{cfg: cfg, log: zap.NewNop(), now: fixedNow}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
