package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpinnerDrawsAndClears(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Resolving components under modules...")
	s.Start()
	time.Sleep(2 * spinnerInterval)
	s.Stop()

	out := buf.String()
	assert.Contains(t, out, "Resolving components under modules...")
	assert.True(t, strings.HasSuffix(out, "\r"), "line should be cleared on stop")
	assert.Greater(t, s.Elapsed(), time.Duration(0))
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Validating declarations...")
	s.Start()
	s.Stop()
	s.Stop()

	n := buf.Len()
	s.Stop()
	assert.Equal(t, n, buf.Len())
}

func TestSpinnerEndsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var buf bytes.Buffer
	s := newSpinner(ctx, &buf, "Resolving components...")
	s.Start()
	cancel()

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the context ended")
	}
}

func TestSpinnerNeverStarted(t *testing.T) {
	s := newSpinner(context.Background(), &bytes.Buffer{}, "unused")
	s.Stop()
	assert.Zero(t, s.Elapsed())
}

func TestNilSpinnerIsNoop(t *testing.T) {
	var s *Spinner
	s.Start()
	s.StopWithSuccess("Resolved %d components", 3)
	s.Stop()
	assert.Zero(t, s.Elapsed())
}

func TestResolvingMessage(t *testing.T) {
	assert.Equal(t, "Resolving components...", resolvingMessage(nil))
	assert.Equal(t, "Resolving components under modules, vendor...", resolvingMessage([]string{"modules", "vendor"}))
}

func TestResolveSpinnerOnlyWithoutJSON(t *testing.T) {
	isolate(t)
	root := seedTree(t)

	out, stderr, err := runCLIStreams(t, "resolve", root, "--json")
	require.NoError(t, err)
	assert.Empty(t, stderr, "--json output must not carry spinner frames")
	assert.Equal(t, []string{"core.CoreSeeder", "users.UserSeeder", "billing.InvoiceSeeder"}, decodeResult(t, out).Order)

	_, stderr, err = runCLIStreams(t, "resolve", root)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Resolving components under "+root)
}

func TestValidateSpinnerOnlyWithoutJSON(t *testing.T) {
	isolate(t)
	root := seedTree(t)

	_, stderr, err := runCLIStreams(t, "validate", root, "--json")
	require.NoError(t, err)
	assert.Empty(t, stderr)

	_, stderr, err = runCLIStreams(t, "validate", root)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Validating declarations...")
}
