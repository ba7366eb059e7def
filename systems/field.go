package systems

import (
	"image/color"

	"gonum.org/v1/gonum/blas/blas32"
)

// SenseChannel selects which field channels agents read.
type SenseChannel uint8

const (
	SenseDeposition SenseChannel = iota // deposition only
	SenseCombined                       // deposition + pre-pattern
)

// TrailField is the W×H trail grid. Dep and Pre are the two sensed,
// diffusing channels; Tint carries the blue component of painted cells and
// is only used for rendering. All channels are row-major, index y*W+x.
type TrailField struct {
	W, H int

	Dep  []float32
	Pre  []float32
	Tint []float32

	decay float32
	sense SenseChannel
	mask  *ObstacleMask

	// Back buffers for the double-buffered field pass
	nextDep []float32
	nextPre []float32

	rows *rowPool
}

// NewTrailField creates a zeroed field with obstacle cells painted.
// A nil mask means no obstacles.
func NewTrailField(w, h int, decay float32, mask *ObstacleMask) *TrailField {
	if mask == nil {
		mask = NewObstacleMask(w, h, nil)
	}
	n := w * h
	f := &TrailField{
		W: w, H: h,
		Dep:     make([]float32, n),
		Pre:     make([]float32, n),
		Tint:    make([]float32, n),
		nextDep: make([]float32, n),
		nextPre: make([]float32, n),
		decay:   decay,
		mask:    mask,
	}
	f.rows = newRowPool(1, f.diffuseRows)
	f.Paint()
	return f
}

// SetDecay sets the per-pass decay multiplier.
func (f *TrailField) SetDecay(decay float32) { f.decay = decay }

// Decay returns the per-pass decay multiplier.
func (f *TrailField) Decay() float32 { return f.decay }

// SetSenseChannel selects what Sense and SenseWindow return.
func (f *TrailField) SetSenseChannel(c SenseChannel) { f.sense = c }

// SetWorkers sets how many goroutines the field pass uses (0 = GOMAXPROCS).
// The result of Step does not depend on the worker count.
func (f *TrailField) SetWorkers(n int) {
	f.rows.stop()
	f.rows = newRowPool(n, f.diffuseRows)
}

// Close stops any field-pass workers.
func (f *TrailField) Close() {
	f.rows.stop()
}

// Mask returns the obstacle mask the field was built with.
func (f *TrailField) Mask() *ObstacleMask { return f.mask }

func (f *TrailField) index(x, y int) int {
	return clampInt(y, f.H)*f.W + clampInt(x, f.W)
}

// Deposit adds amount to the deposition channel at the clamped cell.
// Obstacle cells are left untouched.
func (f *TrailField) Deposit(x, y int, amount float32) {
	i := f.index(x, y)
	if f.mask.masked(i) {
		return
	}
	f.Dep[i] += amount
}

// Sense reads the configured channels at the clamped cell.
func (f *TrailField) Sense(x, y int) float32 {
	return f.senseAt(f.index(x, y))
}

func (f *TrailField) senseAt(i int) float32 {
	if f.sense == SenseCombined {
		return f.Dep[i] + f.Pre[i]
	}
	return f.Dep[i]
}

// SenseWindow sums the configured channels over every cell whose center
// lies in the square of side size centred on (sx, sy), clamped to the grid.
// A window that holds no cell center reads the single cell under (sx, sy).
func (f *TrailField) SenseWindow(sx, sy, size float32) float32 {
	if size <= 0 {
		return f.Sense(floorInt(sx), floorInt(sy))
	}

	half := size / 2
	x0 := ceilInt(sx - half - 0.5)
	x1 := floorInt(sx + half - 0.5)
	y0 := ceilInt(sy - half - 0.5)
	y1 := floorInt(sy + half - 0.5)
	if x0 > x1 || y0 > y1 {
		return f.Sense(floorInt(sx), floorInt(sy))
	}

	x0, x1 = clampInt(x0, f.W), clampInt(x1, f.W)
	y0, y1 = clampInt(y0, f.H), clampInt(y1, f.H)

	var sum float32
	for y := y0; y <= y1; y++ {
		row := y * f.W
		for x := x0; x <= x1; x++ {
			sum += f.senseAt(row + x)
		}
	}
	return sum
}

// Step runs one decay and diffusion pass.
//
// Every non-obstacle cell is multiplied by the decay factor and then split
// into nine equal shares over its 3×3 neighbourhood, with neighbour
// coordinates clamped to the grid. Obstacle cells neither send nor receive
// shares; shares aimed at them are lost. Obstacle cells end the pass
// holding their paint color.
func (f *TrailField) Step() {
	n := f.W * f.H
	blas32.Scal(f.decay, blas32.Vector{N: n, Inc: 1, Data: f.Dep})
	blas32.Scal(f.decay, blas32.Vector{N: n, Inc: 1, Data: f.Pre})

	f.rows.run(f.H, n)

	f.Dep, f.nextDep = f.nextDep, f.Dep
	f.Pre, f.nextPre = f.nextPre, f.Pre
	f.Paint()
}

// diffuseRows computes rows [y0, y1) of the back buffers.
//
// The scatter is evaluated as a gather: along one axis a destination
// receives one share from each in-range neighbour and 1 + (number of
// clamped edges it sits on) shares from itself. The 2D multiplicity is
// the product of the two axes.
func (f *TrailField) diffuseRows(y0, y1 int) {
	w, h := f.W, f.H
	for y := y0; y < y1; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if f.mask.masked(i) {
				f.nextDep[i] = 0
				f.nextPre[i] = 0
				continue
			}

			var dep, pre float32
			for sy := y - 1; sy <= y+1; sy++ {
				if sy < 0 || sy >= h {
					continue
				}
				wy := axisShares(sy, y, h)
				row := sy * w
				for sx := x - 1; sx <= x+1; sx++ {
					if sx < 0 || sx >= w {
						continue
					}
					j := row + sx
					if f.mask.masked(j) {
						continue
					}
					s := wy * axisShares(sx, x, w)
					dep += f.Dep[j] * s
					pre += f.Pre[j] * s
				}
			}
			f.nextDep[i] = dep / 9
			f.nextPre[i] = pre / 9
		}
	}
}

// axisShares counts the offsets in {-1, 0, 1} that carry source s to
// destination d along an axis of length n after clamping.
func axisShares(s, d, n int) float32 {
	if s != d {
		return 1
	}
	shares := float32(1)
	if d == 0 {
		shares++
	}
	if d == n-1 {
		shares++
	}
	return shares
}

// Paint repaints obstacle cells with their colors.
func (f *TrailField) Paint() {
	f.mask.Paint(f)
}

// PaintCell overwrites the clamped cell with a color. Obstacle cells are skipped.
func (f *TrailField) PaintCell(x, y int, c Color) {
	i := f.index(x, y)
	if f.mask.masked(i) {
		return
	}
	f.Dep[i] = c.R
	f.Pre[i] = c.G
	f.Tint[i] = c.B
}

// Reset zeroes every channel and repaints obstacles.
func (f *TrailField) Reset() {
	clear(f.Dep)
	clear(f.Pre)
	clear(f.Tint)
	clear(f.nextDep)
	clear(f.nextPre)
	f.Paint()
}

// TotalDeposition returns the sum of the deposition channel.
func (f *TrailField) TotalDeposition() float32 {
	return blas32.Asum(blas32.Vector{N: len(f.Dep), Inc: 1, Data: f.Dep})
}

// TotalPrepattern returns the sum of the pre-pattern channel.
func (f *TrailField) TotalPrepattern() float32 {
	return blas32.Asum(blas32.Vector{N: len(f.Pre), Inc: 1, Data: f.Pre})
}

// Max returns the largest deposition and pre-pattern values.
func (f *TrailField) Max() (dep, pre float32) {
	if len(f.Dep) == 0 {
		return 0, 0
	}
	// Values are non-negative, so the largest magnitude is the maximum.
	dep = f.Dep[blas32.Iamax(blas32.Vector{N: len(f.Dep), Inc: 1, Data: f.Dep})]
	pre = f.Pre[blas32.Iamax(blas32.Vector{N: len(f.Pre), Inc: 1, Data: f.Pre})]
	return dep, pre
}

// PackRGBA writes the field as colors into dst, growing it if needed.
// R is deposition, G is pre-pattern and B is tint, each scaled by gain
// and clamped to [0, 1].
func (f *TrailField) PackRGBA(dst []color.RGBA, gain float32) []color.RGBA {
	n := f.W * f.H
	if cap(dst) < n {
		dst = make([]color.RGBA, n)
	}
	dst = dst[:n]
	for i := 0; i < n; i++ {
		dst[i] = color.RGBA{
			R: uint8(clamp01(f.Dep[i]*gain) * 255),
			G: uint8(clamp01(f.Pre[i]*gain) * 255),
			B: uint8(clamp01(f.Tint[i]*gain) * 255),
			A: 255,
		}
	}
	return dst
}
