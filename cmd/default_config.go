package cmd

import (
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/traffic-sim/sim/traffic"
)

// defaultTrafficYAML is used when --traffic-spec is not given: a single
// always-on exponential source with unit mean interarrival.
const defaultTrafficYAML = `
version: "1.0.0"
seed: 42
horizon: 1000
generators:
  - id: default
    event_type: Arrival
    source: src
    destination: dst
    contents: packet
    start_on: true
    distribution:
      type: exponential
      params: {tau: 1.0}
`

// defaultTrafficSpec parses the built-in spec. A parse failure is a build
// defect, hence fatal.
func defaultTrafficSpec() *traffic.TrafficSpec {
	spec, err := traffic.ParseTrafficSpec([]byte(defaultTrafficYAML))
	if err != nil {
		logrus.Fatalf("Failed to parse built-in traffic spec: %v", err)
	}
	return spec
}

// loadTrafficSpec reads path, or returns the built-in spec when path is empty.
func loadTrafficSpec(path string) (*traffic.TrafficSpec, error) {
	if path == "" {
		logrus.Info("No --traffic-spec given; using built-in default")
		return defaultTrafficSpec(), nil
	}
	return traffic.LoadTrafficSpec(path)
}
