package process

import (
	"context"
	"os/exec"
	"runtime"
	"testing"
	"time"
)

func TestKillProcessGroup_InvalidPID(t *testing.T) {
	t.Parallel()

	// Must not panic. PID 0 and negative PIDs are never passed: they would
	// target the test's own process group.
	KillProcessGroup(999999999)
}

func TestConfigure_SetsCancel(t *testing.T) {
	t.Parallel()

	cmd := exec.Command("true")
	Configure(cmd)

	if cmd.Cancel == nil {
		t.Fatal("Configure() left Cmd.Cancel nil")
	}
	// Not started yet: Cancel is a no-op.
	if err := cmd.Cancel(); err != nil {
		t.Errorf("Cancel() before start = %v, want nil", err)
	}
}

func TestConfigure_CancelStopsProcess(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("uses sleep(1)")
	}
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, "sleep", "30")
	Configure(cmd)

	if err := cmd.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Error("Wait() = nil, want error from killed process")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("process still running 5s after cancel")
	}
}
