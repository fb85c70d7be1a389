package traffic

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestExponentialSampler_MeanIAT_MatchesTau(t *testing.T) {
	// GIVEN an exponential sampler with τ = 0.25
	sampler, err := newExponentialSampler(0.25, rand.NewPCG(42, 42))
	require.NoError(t, err)

	// WHEN 10000 IATs are sampled
	vals := make([]float64, 10000)
	for i := range vals {
		vals[i] = sampler.Rand()
	}

	// THEN mean IAT ≈ τ (within 5%) and CV ≈ 1
	mean, variance := stat.MeanVariance(vals, nil)
	if math.Abs(mean-0.25)/0.25 > 0.05 {
		t.Errorf("mean IAT = %.4f, want ≈ 0.25 (within 5%%)", mean)
	}
	cv := math.Sqrt(variance) / mean
	if cv < 0.9 || cv > 1.1 {
		t.Errorf("exponential CV = %.2f, want ≈ 1.0", cv)
	}
}

func TestGammaSampler_LowShape_ProducesBurstierArrivals(t *testing.T) {
	// GIVEN a Gamma sampler with shape 0.1 (CV ≈ 3.2) and an exponential at the same mean
	gamma, err := newGammaSampler(0.1, 10, rand.NewPCG(42, 42))
	require.NoError(t, err)
	exp, err := newExponentialSampler(1, rand.NewPCG(42, 42))
	require.NoError(t, err)

	// WHEN 10000 IATs sampled from each
	n := 10000
	gammaIATs := make([]float64, n)
	expIATs := make([]float64, n)
	for i := 0; i < n; i++ {
		gammaIATs[i] = gamma.Rand()
		expIATs[i] = exp.Rand()
	}

	// THEN Gamma CV > 2.0 and exponential CV ≈ 1.0
	gm, gv := stat.MeanVariance(gammaIATs, nil)
	em, ev := stat.MeanVariance(expIATs, nil)
	if cv := math.Sqrt(gv) / gm; cv < 2.0 {
		t.Errorf("gamma CV = %.2f, want > 2.0", cv)
	}
	if cv := math.Sqrt(ev) / em; cv < 0.9 || cv > 1.1 {
		t.Errorf("exponential CV = %.2f, want ≈ 1.0", cv)
	}
}

func TestSamplers_AlwaysPositive(t *testing.T) {
	src := rand.NewPCG(1, 2)
	exp, err := newExponentialSampler(1, src)
	require.NoError(t, err)
	weib, err := newWeibullSampler(1, 0.5, src)
	require.NoError(t, err)
	gamma, err := newGammaSampler(0.5, 1, src)
	require.NoError(t, err)

	for i := 0; i < 5000; i++ {
		for name, s := range map[string]interface{ Rand() float64 }{"exponential": exp, "weibull": weib, "gamma": gamma} {
			v := s.Rand()
			if !(v >= 0) || math.IsInf(v, 0) {
				t.Fatalf("%s sample %d = %v, want finite and non-negative", name, i, v)
			}
		}
	}
}

func TestNewSampler_RequiredParameters(t *testing.T) {
	tests := []struct {
		kind    Kind
		params  map[string]float64
		wantErr bool
	}{
		{KindConstant, map[string]float64{"interval": 2}, false},
		{KindConstant, map[string]float64{}, true},
		{KindExponential, map[string]float64{"tau": 1}, false},
		{KindExponential, map[string]float64{"rate": 1}, true},
		{KindWeibull, map[string]float64{"scale": 1, "shape": 2}, false},
		{KindWeibull, map[string]float64{"shape": 2}, true},
		{KindGamma, map[string]float64{"shape": 2, "scale": 1}, false},
		{KindGamma, map[string]float64{"shape": 2, "scale": 0}, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			s, err := newSampler(tt.kind, tt.params, rand.NewPCG(1, 1))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParameter)
				assert.Nil(t, s)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}

func TestIsValidKind(t *testing.T) {
	for _, k := range []string{"constant", "exponential", "weibull", "gamma"} {
		assert.True(t, IsValidKind(k), k)
	}
	for _, k := range []string{"", "poisson", "Weibull"} {
		assert.False(t, IsValidKind(k), k)
	}
}

func TestValidateFinitePositive(t *testing.T) {
	assert.NoError(t, validateFinitePositive("x", 1e-9))
	assert.ErrorIs(t, validateFinitePositive("x", 0), ErrInvalidParameter)
	assert.ErrorIs(t, validateFinitePositive("x", -3), ErrInvalidParameter)
	assert.ErrorIs(t, validateFinitePositive("x", math.NaN()), ErrInvalidParameter)
	assert.ErrorIs(t, validateFinitePositive("x", math.Inf(1)), ErrInvalidParameter)
	assert.ErrorContains(t, validateFinitePositive("tau", -1), "tau must be positive")
}
