package systems

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/slime/config"
)

// GenerateNoiseStimuli lays out stimuli on a lattice with the given cell
// spacing and scales each lattice point by fractal simplex noise. Points
// whose normalized noise is at or below the threshold emit nothing; above
// it, intensity rises linearly to cfg.Intensity at noise 1. Obstacle cells
// are skipped. The result is deterministic for a given seed.
func GenerateNoiseStimuli(w, h int, cfg config.NoiseStimulusConfig, mask *ObstacleMask) []Stimulus {
	if cfg.Spacing <= 0 || cfg.Octaves <= 0 || cfg.Threshold >= 1 {
		return nil
	}

	noise := opensimplex.NewNormalized(cfg.Seed)
	offset := cfg.Spacing / 2

	var out []Stimulus
	for y := offset; y < h; y += cfg.Spacing {
		for x := offset; x < w; x += cfg.Spacing {
			if mask != nil && mask.IsObstacleCell(x, y) {
				continue
			}
			n := octaveNoise(noise, float64(x), float64(y), cfg.Octaves, cfg.Scale, 0.5)
			if n <= cfg.Threshold {
				continue
			}
			strength := (n - cfg.Threshold) / (1 - cfg.Threshold)
			out = append(out, Stimulus{X: x, Y: y, Intensity: float32(strength * cfg.Intensity)})
		}
	}
	return out
}

// octaveNoise sums octaves of normalized noise, halving amplitude and
// doubling frequency each octave. The result stays in [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
