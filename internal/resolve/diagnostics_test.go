package resolve

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReporter_RecordsAndPublishes(t *testing.T) {
	reporter := NewReporter()
	defer reporter.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := reporter.Subscribe(ctx)

	reporter.DanglingReference("web", "base", "")

	diags := reporter.Diagnostics()
	require.Len(t, diags, 1)
	require.Equal(t, "web", diags[0].Service)

	select {
	case ev := <-sub:
		require.Equal(t, "base", ev.Payload.Target)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for diagnostic event")
	}
}

func TestReporter_DiagnosticsReturnsCopy(t *testing.T) {
	reporter := NewReporter()
	defer reporter.Close()

	reporter.DanglingReference("a", "b", "")
	diags := reporter.Diagnostics()
	diags[0].Service = "mutated"

	require.Equal(t, "a", reporter.Diagnostics()[0].Service)
}

func TestDiagnostic_String(t *testing.T) {
	local := Diagnostic{Service: "web", Target: "base"}
	require.Contains(t, local.String(), `"web"`)
	require.Contains(t, local.String(), `"base"`)

	crossFile := Diagnostic{Service: "web", Target: "base", File: "common.yaml"}
	require.Contains(t, crossFile.String(), "common.yaml")
}
