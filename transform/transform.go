// Package transform implements the calibration engine that converts raw
// sample codes into physical units.
//
// A transform is a pure function from raw value(s) to a calibrated value.
// Four variants exist:
//
//   - Univariate: a single-variable polynomial y = Σ cᵢ·xⁱ
//   - Bivariate: a two-variable polynomial whose second variable is the
//     calibrated value of a reference subchannel (for example
//     temperature-compensated acceleration)
//   - Combined: the sum of two or more registered transforms' outputs
//   - PolyPoly: an outer polynomial applied to the summed output of its
//     members
//
// Transforms are held in a Registry arena indexed by stable integer
// handles. The dependency graph (bivariate references, composition
// members) is validated to be acyclic at registration time, never at
// evaluation time.
//
// Reference alignment policy: a Bivariate samples its reference subchannel
// at the greatest reference timestamp less than or equal to the query
// timestamp; if no reference sample precedes the query, the first
// reference sample is used. The Resolver implementation owns this lookup.
package transform

// SubChannelRef identifies one scalar component of a channel: the
// channel's dataset-unique id and the subchannel index within it.
type SubChannelRef struct {
	Channel int
	Sub     int
}

// Resolver supplies the calibrated value of a reference subchannel at (or
// nearest preceding) a timestamp. The dataset's query layer implements it;
// the indirection keeps this package free of the block model.
type Resolver interface {
	ReferenceValue(ref SubChannelRef, t int64) (float64, error)
}

// Transform converts one raw scalar into a calibrated value. Implementations
// are immutable and safe for concurrent use.
type Transform interface {
	// Eval calibrates one raw value sampled at timestamp t. Composite
	// transforms resolve their members through reg; bivariate transforms
	// resolve their reference value through res.
	Eval(reg *Registry, x float64, t int64, res Resolver) (float64, error)

	// dependsOn lists the registered handles this transform evaluates,
	// used for cycle validation at registration.
	dependsOn() []int
}

// evalPoly evaluates Σ coeffs[i]·xⁱ by Horner's method.
// An empty coefficient list evaluates to zero; [0, 1] is the identity.
func evalPoly(coeffs []float64, x float64) float64 {
	var y float64
	for i := len(coeffs) - 1; i >= 0; i-- {
		y = y*x + coeffs[i]
	}

	return y
}

// Identity passes raw values through unchanged. It is the implicit
// transform of every channel without a calibration reference.
type Identity struct{}

func (Identity) Eval(_ *Registry, x float64, _ int64, _ Resolver) (float64, error) {
	return x, nil
}

func (Identity) dependsOn() []int { return nil }

// Univariate is a single-variable calibration polynomial.
// Coeffs[i] multiplies xⁱ, so Coeffs []float64{0, 1} is the identity.
type Univariate struct {
	Coeffs []float64
}

// NewUnivariate creates a univariate polynomial transform.
func NewUnivariate(coeffs []float64) Univariate {
	return Univariate{Coeffs: coeffs}
}

func (u Univariate) Eval(_ *Registry, x float64, _ int64, _ Resolver) (float64, error) {
	return evalPoly(u.Coeffs, x), nil
}

func (u Univariate) dependsOn() []int { return nil }

// Bivariate is a two-variable calibration polynomial: Coeffs[i][j]
// multiplies xⁱ·yʲ, where y is the calibrated value of the reference
// subchannel nearest preceding the sample timestamp.
type Bivariate struct {
	Coeffs [][]float64
	// Ref names the subchannel supplying the second variable.
	Ref SubChannelRef
	// RefTransform is the registered handle of the reference
	// subchannel's own transform, recorded so the dependency is part of
	// the validated graph. Zero means the reference is read through the
	// identity.
	RefTransform int
}

// NewBivariate creates a bivariate polynomial transform.
func NewBivariate(coeffs [][]float64, ref SubChannelRef, refTransform int) Bivariate {
	return Bivariate{Coeffs: coeffs, Ref: ref, RefTransform: refTransform}
}

func (b Bivariate) Eval(_ *Registry, x float64, t int64, res Resolver) (float64, error) {
	if res == nil {
		return 0, ErrNoResolver
	}

	y, err := res.ReferenceValue(b.Ref, t)
	if err != nil {
		return 0, err
	}

	var sum float64
	xi := 1.0
	for i := range b.Coeffs {
		yj := 1.0
		for j := range b.Coeffs[i] {
			sum += b.Coeffs[i][j] * xi * yj
			yj *= y
		}
		xi *= x
	}

	return sum, nil
}

func (b Bivariate) dependsOn() []int {
	if b.RefTransform == 0 {
		return nil
	}

	return []int{b.RefTransform}
}

// Combined sums the outputs of its member transforms.
type Combined struct {
	Members []int
}

// NewCombined creates a summation of previously registered transforms.
func NewCombined(members []int) Combined {
	return Combined{Members: members}
}

func (c Combined) Eval(reg *Registry, x float64, t int64, res Resolver) (float64, error) {
	var sum float64
	for _, m := range c.Members {
		v, err := reg.Eval(m, x, t, res)
		if err != nil {
			return 0, err
		}
		sum += v
	}

	return sum, nil
}

func (c Combined) dependsOn() []int { return c.Members }

// PolyPoly applies an outer polynomial to the summed output of its members.
type PolyPoly struct {
	Members []int
	Outer   []float64
}

// NewPolyPoly creates a polynomial-of-polynomials transform.
func NewPolyPoly(members []int, outer []float64) PolyPoly {
	return PolyPoly{Members: members, Outer: outer}
}

func (p PolyPoly) Eval(reg *Registry, x float64, t int64, res Resolver) (float64, error) {
	var inner float64
	for _, m := range p.Members {
		v, err := reg.Eval(m, x, t, res)
		if err != nil {
			return 0, err
		}
		inner += v
	}

	return evalPoly(p.Outer, inner), nil
}

func (p PolyPoly) dependsOn() []int { return p.Members }
