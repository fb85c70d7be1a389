package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/traffic-sim/sim/traffic"
)

const twoSourceYAML = `
seed: 7
warm_up: 2
horizon: 20
trace: events
generators:
  - id: tick
    source: clock
    destination: sink
    start_on: true
    distribution:
      type: constant
      params: {interval: 1}
  - id: burst
    source: a
    destination: sink
    start_on: true
    distribution:
      type: gamma
      params: {shape: 0.5, scale: 2}
`

func parse(t *testing.T, body string) *traffic.TrafficSpec {
	t.Helper()
	spec, err := traffic.ParseTrafficSpec([]byte(body))
	require.NoError(t, err)
	require.NoError(t, spec.Validate())
	return spec
}

func TestRunSpec_ConstantSourceCountsArrivals(t *testing.T) {
	// GIVEN a spec with a unit-interval constant source over 20 time units
	spec := parse(t, twoSourceYAML)

	// WHEN it runs
	result, err := runSpec(spec)
	require.NoError(t, err)

	// THEN the constant source caused arrivals at 1..20, 19 of them at or after warm-up 2
	assert.Equal(t, int64(7), result.Seed)
	assert.Equal(t, uint64(20), result.Summary.Arrivals["tick"])
	assert.Equal(t, uint64(19), result.Summary.PostWarmUp["tick"])
	assert.LessOrEqual(t, result.Summary.EndClock, 20.0)
	assert.Equal(t, 2, result.Summary.Pending, "each On source keeps one arrival in flight")
	require.NotNil(t, result.Trace)
	assert.Equal(t, result.Summary.Caused, result.Trace.TotalEvents)
	assert.Equal(t, 20, result.Trace.ByType["tick"].Count)
	assert.InDelta(t, 1.0, result.Trace.ByType["tick"].MeanGap, 1e-12)
}

func TestRunSpec_SameSeed_IdenticalOutput(t *testing.T) {
	run := func() string {
		result, err := runSpec(parse(t, twoSourceYAML))
		require.NoError(t, err)
		var buf bytes.Buffer
		printSummary(&buf, result)
		return buf.String()
	}
	assert.Equal(t, run(), run())
}

func TestRunSpec_DifferentSeeds_DifferentOutput(t *testing.T) {
	// GIVEN the same spec under two seeds
	outputs := make([]string, 2)
	for i, s := range []int64{100, 200} {
		spec := parse(t, twoSourceYAML)
		seed := s
		spec.Seed = &seed

		// WHEN each runs
		result, err := runSpec(spec)
		require.NoError(t, err)
		var buf bytes.Buffer
		printSummary(&buf, result)
		outputs[i] = buf.String()
	}

	// THEN the gamma source diverges, so the reports differ
	assert.NotEqual(t, outputs[0], outputs[1])
}

func TestPrintSummary_Sections(t *testing.T) {
	result, err := runSpec(parse(t, twoSourceYAML))
	require.NoError(t, err)

	var buf bytes.Buffer
	printSummary(&buf, result)
	out := buf.String()

	assert.Contains(t, out, "=== Simulation Summary ===")
	assert.Contains(t, out, "Seed             : 7")
	assert.Contains(t, out, "=== Generators ===")
	assert.Contains(t, out, "kind=constant state=On arrivals=20")
	assert.Contains(t, out, "=== Trace ===")
}

func TestPrintSummary_NoTraceSection_WhenDisabled(t *testing.T) {
	spec := parse(t, twoSourceYAML)
	spec.Trace = "none"
	result, err := runSpec(spec)
	require.NoError(t, err)
	assert.Nil(t, result.Trace)

	var buf bytes.Buffer
	printSummary(&buf, result)
	assert.NotContains(t, buf.String(), "=== Trace ===")
}

// newFlagCmd returns a command carrying the run flags, isolated from runCmd.
func newFlagCmd() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().Int64Var(&seed, "seed", 42, "")
	cmd.Flags().Float64Var(&horizon, "horizon", 1000, "")
	cmd.Flags().StringVar(&traceLevel, "trace", "none", "")
	return cmd
}

func TestApplyOverrides_OnlyChangedFlags(t *testing.T) {
	// GIVEN a spec with seed 7, horizon 20 and tracing on
	spec := parse(t, twoSourceYAML)

	// WHEN no flags are set
	cmd := newFlagCmd()
	applyOverrides(cmd, spec)

	// THEN the YAML values survive
	assert.Equal(t, int64(7), *spec.Seed)
	assert.Equal(t, 20.0, spec.Horizon)
	assert.Equal(t, "events", spec.Trace)

	// WHEN --seed and --horizon are set
	require.NoError(t, cmd.Flags().Set("seed", "99"))
	require.NoError(t, cmd.Flags().Set("horizon", "5"))
	applyOverrides(cmd, spec)

	// THEN they override the traffic spec, and the untouched --trace does not
	assert.Equal(t, int64(99), *spec.Seed)
	assert.Equal(t, 5.0, spec.Horizon)
	assert.Equal(t, "events", spec.Trace)
}

func TestRunCmd_FlagDefaults(t *testing.T) {
	for name, want := range map[string]string{
		"traffic-spec": "",
		"seed":         "42",
		"horizon":      "1000",
		"log":          "error",
		"trace":        "none",
	} {
		f := runCmd.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, want, f.DefValue, name)
	}
}
