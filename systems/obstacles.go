package systems

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// NoiseCostParams shapes the obstacle field.
type NoiseCostParams struct {
	Seed       int64
	Frequency  float64 // Per cell
	Octaves    int
	Threshold  float64 // Normalized noise at or above this is impassable
	RoughBand  float64 // Width below Threshold that costs RoughCost
	RoughCost  int
	Impassable int
	Clearing   int // Chebyshev radius around the origin kept open
}

// DefaultNoiseCostParams returns a sparse scattering of rock outcrops.
func DefaultNoiseCostParams() NoiseCostParams {
	return NoiseCostParams{
		Seed:       1,
		Frequency:  0.08,
		Octaves:    3,
		Threshold:  0.8,
		RoughBand:  0.08,
		RoughCost:  3,
		Impassable: 255,
		Clearing:   3,
	}
}

// NoiseCostSource derives cell costs from layered simplex noise. The same
// coordinate always yields the same cost.
type NoiseCostSource struct {
	params NoiseCostParams
	noise  opensimplex.Noise
}

// NewNoiseCostSource creates a cost source from params.
func NewNoiseCostSource(params NoiseCostParams) *NoiseCostSource {
	if params.Octaves < 1 {
		params.Octaves = 1
	}
	return &NoiseCostSource{
		params: params,
		noise:  opensimplex.NewNormalized(params.Seed),
	}
}

// CostAt implements CostSource.
func (s *NoiseCostSource) CostAt(c Coord) int {
	if Chebyshev(c, Coord{}) <= s.params.Clearing {
		return OpenCost
	}
	v := s.sample(float64(c.X), float64(c.Z))
	switch {
	case v >= s.params.Threshold:
		return s.params.Impassable
	case v >= s.params.Threshold-s.params.RoughBand:
		return s.params.RoughCost
	}
	return OpenCost
}

// sample returns fractal noise in [0, 1].
func (s *NoiseCostSource) sample(x, z float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	frequency := s.params.Frequency
	for i := 0; i < s.params.Octaves; i++ {
		total += s.noise.Eval2(x*frequency, z*frequency) * amplitude
		maxVal += amplitude
		amplitude *= 0.5
		frequency *= 2
	}
	return total / maxVal
}
