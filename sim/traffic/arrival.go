package traffic

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidParameter is returned when a distribution parameter is
// non-positive or not a finite number.
var ErrInvalidParameter = errors.New("traffic: invalid distribution parameter")

// Kind names an interarrival distribution.
type Kind string

const (
	KindConstant    Kind = "constant"
	KindExponential Kind = "exponential"
	KindWeibull     Kind = "weibull"
	KindGamma       Kind = "gamma"
)

// validKinds maps accepted distribution names to their required parameters.
var validKinds = map[Kind][]string{
	KindConstant:    {"interval"},
	KindExponential: {"tau"},
	KindWeibull:     {"scale", "shape"},
	KindGamma:       {"shape", "scale"},
}

// IsValidKind reports whether name is a known distribution.
func IsValidKind(name string) bool {
	_, ok := validKinds[Kind(name)]
	return ok
}

// Every sampler satisfies distuv.Rander: Rand returns the next interarrival
// delay. Stochastic samplers hold the shared engine's rand.Source, so each
// call advances the run-wide stream.

// ConstantSampler returns the same interval on every draw and consumes no
// randomness.
type ConstantSampler struct {
	interval float64
}

func (s *ConstantSampler) Rand() float64 { return s.interval }

// Interval returns the fixed interarrival time.
func (s *ConstantSampler) Interval() float64 { return s.interval }

// ExponentialSampler draws exponential interarrivals with mean tau (rate 1/tau).
type ExponentialSampler struct {
	tau  float64
	dist distuv.Exponential
}

func (s *ExponentialSampler) Rand() float64 { return s.dist.Rand() }

// Tau returns the mean interarrival time.
func (s *ExponentialSampler) Tau() float64 { return s.tau }

// WeibullSampler draws Weibull interarrivals.
//
// Parameter binding: shape is gonum's K, scale is gonum's Lambda. The fields
// are set by name, never positionally, so the two cannot be swapped. The
// resulting mean is scale * Γ(1 + 1/shape); shape == 1 is exponential with
// mean scale.
type WeibullSampler struct {
	scale float64
	shape float64
	dist  distuv.Weibull
}

func (s *WeibullSampler) Rand() float64 { return s.dist.Rand() }

// Scale returns λ.
func (s *WeibullSampler) Scale() float64 { return s.scale }

// Shape returns κ.
func (s *WeibullSampler) Shape() float64 { return s.shape }

// Mean returns the theoretical mean interarrival time.
func (s *WeibullSampler) Mean() float64 { return s.dist.Mean() }

// GammaSampler draws Gamma(shape, scale) interarrivals. CV = 1/sqrt(shape),
// so shape < 1 produces bursty arrivals.
type GammaSampler struct {
	shape float64
	scale float64
	dist  distuv.Gamma
}

func (s *GammaSampler) Rand() float64 { return s.dist.Rand() }

// Shape returns α.
func (s *GammaSampler) Shape() float64 { return s.shape }

// Scale returns θ (the inverse of gonum's rate Beta).
func (s *GammaSampler) Scale() float64 { return s.scale }

func newConstantSampler(interval float64) (*ConstantSampler, error) {
	if err := validateFinitePositive("interval", interval); err != nil {
		return nil, err
	}
	return &ConstantSampler{interval: interval}, nil
}

func newExponentialSampler(tau float64, src rand.Source) (*ExponentialSampler, error) {
	if err := validateFinitePositive("tau", tau); err != nil {
		return nil, err
	}
	return &ExponentialSampler{
		tau:  tau,
		dist: distuv.Exponential{Rate: 1.0 / tau, Src: src},
	}, nil
}

func newWeibullSampler(scale, shape float64, src rand.Source) (*WeibullSampler, error) {
	if err := validateFinitePositive("scale", scale); err != nil {
		return nil, err
	}
	if err := validateWeibullShape(shape); err != nil {
		return nil, err
	}
	return &WeibullSampler{
		scale: scale,
		shape: shape,
		dist:  distuv.Weibull{K: shape, Lambda: scale, Src: src},
	}, nil
}

func newGammaSampler(shape, scale float64, src rand.Source) (*GammaSampler, error) {
	if err := validateFinitePositive("shape", shape); err != nil {
		return nil, err
	}
	if err := validateFinitePositive("scale", scale); err != nil {
		return nil, err
	}
	return &GammaSampler{
		shape: shape,
		scale: scale,
		dist:  distuv.Gamma{Alpha: shape, Beta: 1.0 / scale, Src: src},
	}, nil
}

// newSampler builds a sampler of kind from named parameters.
func newSampler(kind Kind, params map[string]float64, src rand.Source) (distuv.Rander, error) {
	required, ok := validKinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown distribution %q; valid: constant, exponential, weibull, gamma", kind)
	}
	for _, name := range required {
		if _, ok := params[name]; !ok {
			return nil, fmt.Errorf("%s distribution requires parameter %q: %w", kind, name, ErrInvalidParameter)
		}
	}
	var (
		sampler distuv.Rander
		err     error
	)
	switch kind {
	case KindConstant:
		sampler, err = newConstantSampler(params["interval"])
	case KindExponential:
		sampler, err = newExponentialSampler(params["tau"], src)
	case KindWeibull:
		sampler, err = newWeibullSampler(params["scale"], params["shape"], src)
	default:
		sampler, err = newGammaSampler(params["shape"], params["scale"], src)
	}
	if err != nil {
		return nil, fmt.Errorf("%s distribution: %w", kind, err)
	}
	return sampler, nil
}

// MinWeibullShape is the smallest accepted Weibull shape. A draw is
// scale * E^(1/shape) with E a standard exponential. From this bound up,
// E^(1/shape) stays finite for any E a 53-bit uniform can produce (E <= 37).
// Smaller shapes overflow to +Inf at ordinary values of E.
const MinWeibullShape = 0.01

func validateWeibullShape(shape float64) error {
	if err := validateFinitePositive("shape", shape); err != nil {
		return err
	}
	if shape < MinWeibullShape {
		return fmt.Errorf("weibull shape must be >= %g, got %g: %w", MinWeibullShape, shape, ErrInvalidParameter)
	}
	return nil
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f: %w", name, val, ErrInvalidParameter)
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %f: %w", name, val, ErrInvalidParameter)
	}
	return nil
}
