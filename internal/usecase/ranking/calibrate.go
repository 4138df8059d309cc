package ranking

import (
	"sort"

	"note-ranker/internal/domain"
)

// CalibrationPoint is one reference observation: a raw pairwise score and
// its relevance label (typically 0 or 1). The reference set is supplied
// out-of-band alongside the scorer.
type CalibrationPoint struct {
	Raw   float64 `json:"raw_score"`
	Label float64 `json:"label"`
}

// NewCalibrator fits an isotonic regression (pool-adjacent-violators) over
// the reference set. Degenerate references (fewer than two points, a
// single raw value, or a single-class label set) cannot support a fit, so
// the identity mapping is returned instead and Calibrated() reports false.
func NewCalibrator(points []CalibrationPoint) domain.Calibrator {
	if iso, ok := fitIsotonic(points); ok {
		return iso
	}
	return identityCalibrator{}
}

// identityCalibrator passes raw scores through, clamped to [0,1].
type identityCalibrator struct{}

func (identityCalibrator) Calibrate(raw float64) float64 { return clamp01(raw) }
func (identityCalibrator) Calibrated() bool              { return false }

// isotonicCalibrator is a fitted non-decreasing step mapping with linear
// interpolation between block centers.
type isotonicCalibrator struct {
	xs []float64 // block centers, strictly increasing
	ys []float64 // fitted values, non-decreasing, in [0,1]
}

func (c *isotonicCalibrator) Calibrated() bool { return true }

func (c *isotonicCalibrator) Calibrate(raw float64) float64 {
	if raw <= c.xs[0] {
		return c.ys[0]
	}
	last := len(c.xs) - 1
	if raw >= c.xs[last] {
		return c.ys[last]
	}
	// First block center strictly above raw.
	j := sort.SearchFloat64s(c.xs, raw)
	if c.xs[j] == raw {
		return c.ys[j]
	}
	i := j - 1
	t := (raw - c.xs[i]) / (c.xs[j] - c.xs[i])
	return c.ys[i] + t*(c.ys[j]-c.ys[i])
}

func fitIsotonic(points []CalibrationPoint) (*isotonicCalibrator, bool) {
	if len(points) < 2 {
		return nil, false
	}

	// Collapse duplicate raw values to their mean label, sorted by raw.
	byRaw := make(map[float64][]float64)
	for _, p := range points {
		byRaw[p.Raw] = append(byRaw[p.Raw], p.Label)
	}
	if len(byRaw) < 2 {
		return nil, false
	}
	xs := make([]float64, 0, len(byRaw))
	for raw := range byRaw {
		xs = append(xs, raw)
	}
	sort.Float64s(xs)

	ys := make([]float64, len(xs))
	ws := make([]float64, len(xs))
	firstLabel := byRaw[xs[0]][0]
	singleClass := true
	for i, raw := range xs {
		labels := byRaw[raw]
		sum := 0.0
		for _, l := range labels {
			sum += l
			if l != firstLabel {
				singleClass = false
			}
		}
		ys[i] = sum / float64(len(labels))
		ws[i] = float64(len(labels))
	}
	if singleClass {
		return nil, false
	}

	// Pool adjacent violators: merge any block whose fitted value drops
	// below its predecessor into a weighted mean until non-decreasing.
	type block struct {
		x, y, w float64
	}
	blocks := make([]block, 0, len(xs))
	for i := range xs {
		blocks = append(blocks, block{x: xs[i], y: ys[i], w: ws[i]})
		for len(blocks) > 1 {
			n := len(blocks)
			if blocks[n-2].y <= blocks[n-1].y {
				break
			}
			merged := block{
				w: blocks[n-2].w + blocks[n-1].w,
			}
			merged.y = (blocks[n-2].y*blocks[n-2].w + blocks[n-1].y*blocks[n-1].w) / merged.w
			merged.x = (blocks[n-2].x*blocks[n-2].w + blocks[n-1].x*blocks[n-1].w) / merged.w
			blocks = blocks[:n-2]
			blocks = append(blocks, merged)
		}
	}
	if len(blocks) < 2 {
		// Everything pooled into one flat block; no useful mapping.
		return nil, false
	}

	cal := &isotonicCalibrator{
		xs: make([]float64, len(blocks)),
		ys: make([]float64, len(blocks)),
	}
	for i, b := range blocks {
		cal.xs[i] = b.x
		cal.ys[i] = clamp01(b.y)
	}
	return cal, true
}
