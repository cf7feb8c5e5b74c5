// Package speed turns a measured distance, elapsed time and launch angle into
// a launch speed using one of two physical models.
package speed

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/shuttle.report/internal/units"
)

// Model selects the physical model used by Evaluate.
type Model string

const (
	// Linear is the average speed over the interval corrected for skew:
	// (distance / t) / cos(theta).
	Linear Model = "linear"
	// Exponential models a shuttle decelerating under quadratic drag:
	// (exp(k*x) - 1) / (k * t * cos(theta)).
	Exponential Model = "exponential"
)

// Models lists every supported model.
var Models = []Model{Linear, Exponential}

// ParseModel validates a model name.
func ParseModel(s string) (Model, error) {
	for _, m := range Models {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown model %q: expected linear or exponential", s)
}

// MinDenominator is the smallest denominator magnitude accepted before the
// result is considered unstable.
const MinDenominator = 1e-12

var (
	ErrTimeNotPositive       = errors.New("time must be > 0")
	ErrZeroDragConstant      = errors.New("drag constant must be non-zero")
	ErrNonFiniteInput        = errors.New("input must be a finite number")
	ErrNonFiniteIntermediate = errors.New("non-finite intermediate result")
	ErrDenominatorTooSmall   = errors.New("denominator too small")
)

// Inputs is the tuple consumed by Evaluate. DragConstant is only read by the
// exponential model and is in 1/m.
type Inputs struct {
	DistanceMeters float64 `json:"distance_m"`
	TimeSeconds    float64 `json:"time_s"`
	AngleDegrees   float64 `json:"angle_deg"`
	DragConstant   float64 `json:"drag_constant"`
}

// Result is a successful evaluation. Numerator and Denominator are the
// model's intermediate terms, kept for diagnostics.
type Result struct {
	Model       Model   `json:"model"`
	Inputs      Inputs  `json:"inputs"`
	MPS         float64 `json:"mps"`
	KMH         float64 `json:"kmh"`
	MPH         float64 `json:"mph"`
	Numerator   float64 `json:"numerator"`
	Denominator float64 `json:"denominator"`
}

// Evaluate computes the launch speed. Every rejection wraps one of the
// package's sentinel errors; nothing is retried or approximated, in
// particular k = 0 is never silently treated as the linear model.
func Evaluate(model Model, in Inputs) (Result, error) {
	if !(in.TimeSeconds > 0) {
		return Result{}, ErrTimeNotPositive
	}
	if model == Exponential && in.DragConstant == 0 {
		return Result{}, ErrZeroDragConstant
	}
	if err := checkFinite(model, in); err != nil {
		return Result{}, err
	}

	var num, den float64
	theta := in.AngleDegrees * math.Pi / 180
	switch model {
	case Linear:
		num = in.DistanceMeters
		den = in.TimeSeconds * math.Cos(theta)
	case Exponential:
		k := in.DragConstant
		num = math.Expm1(k * in.DistanceMeters)
		den = k * in.TimeSeconds * math.Cos(theta)
	default:
		return Result{}, fmt.Errorf("unknown model %q", model)
	}

	if !finite(den) {
		return Result{}, fmt.Errorf("%w: denominator = %v", ErrNonFiniteIntermediate, den)
	}
	if math.Abs(den) < MinDenominator {
		return Result{}, fmt.Errorf("%w: |%g| < %g", ErrDenominatorTooSmall, den, MinDenominator)
	}
	if !finite(num) {
		return Result{}, fmt.Errorf("%w: numerator = %v", ErrNonFiniteIntermediate, num)
	}
	mps := num / den
	if !finite(mps) {
		return Result{}, fmt.Errorf("%w: speed = %v", ErrNonFiniteIntermediate, mps)
	}

	return Result{
		Model:       model,
		Inputs:      in,
		MPS:         mps,
		KMH:         units.ConvertSpeed(mps, units.KPH),
		MPH:         units.ConvertSpeed(mps, units.MPH),
		Numerator:   num,
		Denominator: den,
	}, nil
}

func checkFinite(model Model, in Inputs) error {
	fields := []struct {
		name string
		v    float64
	}{
		{"distance", in.DistanceMeters},
		{"time", in.TimeSeconds},
		{"angle", in.AngleDegrees},
	}
	if model == Exponential {
		fields = append(fields, struct {
			name string
			v    float64
		}{"drag constant", in.DragConstant})
	}
	for _, f := range fields {
		if !finite(f.v) {
			return fmt.Errorf("%w: %s = %v", ErrNonFiniteInput, f.name, f.v)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Notes renders the diagnostic lines shown under a result.
func (r Result) Notes() []string {
	notes := []string{
		fmt.Sprintf("model: %s", r.Model),
		fmt.Sprintf("numerator = %.6g", r.Numerator),
		fmt.Sprintf("denominator = %.6g", r.Denominator),
	}
	if r.Model == Exponential {
		notes = append(notes, fmt.Sprintf("k = %g 1/m", r.Inputs.DragConstant))
	}
	return notes
}

// Formatted returns the three display strings (m/s, km/h, mph).
func (r Result) Formatted() (mps, kmh, mph string) {
	return units.FormatSpeed(r.MPS, units.MPS),
		units.FormatSpeed(r.KMH, units.KPH),
		units.FormatSpeed(r.MPH, units.MPH)
}
