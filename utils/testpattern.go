package utils

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog/log"
	"github.com/voxelsplace/ilda/go/ilda"
)

// GenerateTestPattern builds a deterministic animation of a polygon that
// turns once over the whole sequence. Each frame starts with a blanked
// move to the first vertex, then traces the outline with a hue sweep and
// a gentle z wobble. The polygon, radius and hue are drawn from seed.
func GenerateTestPattern(frames, points int, seed int64) (*ilda.Stream, error) {
	if frames < 1 || frames > 0xFFFF {
		return nil, fmt.Errorf("frame count out of range: %d", frames)
	}
	if points < 3 || points > 0xFFFF {
		return nil, fmt.Errorf("point count out of range: %d", points)
	}
	r := rand.New(rand.NewSource(seed))
	sides := 3 + r.Intn(6)
	radius := 12000 + r.Float64()*16000
	hue := r.Float64()

	company := ilda.MustName("ildatool")
	s := &ilda.Stream{Frames: make([]ilda.Frame, frames)}
	for i := range s.Frames {
		turn := 2 * math.Pi * float64(i) / float64(frames)
		pts := make([]ilda.Point, points)
		// the first point is the blanked move-in, the rest trace the
		// outline from vertex 0 back to vertex 0
		lit := points - 1
		for j := range pts {
			t := 0.0
			if j > 0 && lit > 1 {
				t = float64(j-1) / float64(lit-1)
			}
			x, y := polygonPoint(sides, t)
			sin, cos := math.Sincos(turn)
			px := (x*cos - y*sin) * radius
			py := (x*sin + y*cos) * radius
			pz := math.Sin(turn+2*math.Pi*t) * radius / 4

			p := ilda.Point{X: clamp16(px), Y: clamp16(py), Z: clamp16(pz), Color: hsv(math.Mod(hue+t, 1))}
			if j == 0 {
				p.Status = ilda.StatusBlanked
				p.Color = ilda.Color{}
			}
			if j == len(pts)-1 {
				p.Status = p.Status.WithLastPoint(true)
			}
			pts[j] = p
		}
		s.Frames[i] = ilda.Frame{
			Header: ilda.Header{
				Format:      ilda.Coords3dTrueColor,
				Name:        ilda.MustName(fmt.Sprintf("tp%05d", i)),
				Company:     company,
				Number:      uint16(i),
				TotalFrames: uint16(frames),
			},
			Points:  pts,
			Palette: -1,
		}
	}
	return s, nil
}

// polygonPoint returns the point at fraction t of the perimeter of a
// regular polygon inscribed in the unit circle.
func polygonPoint(sides int, t float64) (float64, float64) {
	pos := t * float64(sides)
	edge := int(pos)
	if edge >= sides {
		edge = sides - 1
	}
	f := pos - float64(edge)
	a0 := 2 * math.Pi * float64(edge) / float64(sides)
	a1 := 2 * math.Pi * float64(edge+1) / float64(sides)
	x := math.Cos(a0)*(1-f) + math.Cos(a1)*f
	y := math.Sin(a0)*(1-f) + math.Sin(a1)*f
	return x, y
}

func clamp16(v float64) int16 {
	v = math.Round(v)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// hsv converts a hue in [0,1) at full saturation and value.
func hsv(h float64) ilda.Color {
	h6 := h * 6
	sector := int(h6) % 6
	f := h6 - math.Floor(h6)
	up := uint8(math.Round(f * 255))
	down := 255 - up
	switch sector {
	case 0:
		return ilda.Color{Red: 255, Green: up}
	case 1:
		return ilda.Color{Red: down, Green: 255}
	case 2:
		return ilda.Color{Green: 255, Blue: up}
	case 3:
		return ilda.Color{Green: down, Blue: 255}
	case 4:
		return ilda.Color{Red: up, Blue: 255}
	default:
		return ilda.Color{Red: 255, Blue: down}
	}
}

// RunGenerateTestPattern writes a test pattern to outPath.
func RunGenerateTestPattern(frames, points int, seed int64, outPath string) error {
	s, err := GenerateTestPattern(frames, points, seed)
	if err != nil {
		return err
	}
	if err := ilda.WriteFile(outPath, s); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	log.Info().Int("frames", frames).Int("points", points).Int64("seed", seed).Str("out", outPath).Msg("gentest")
	return nil
}
