package api

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/voxelsplace/ilda/go/ilda"
)

// NewDocument returns an empty glTF document with the single vertex
// coloured material that AddFrames meshes refer to.
func NewDocument(generator string) *gltf.Document {
	doc := gltf.NewDocument()
	doc.Asset.Generator = generator

	// Colours come from the per-vertex COLOR_0 attribute.
	pbr := &gltf.PBRMetallicRoughness{BaseColorFactor: &[4]float64{1, 1, 1, 1}, MetallicFactor: gltf.Float(0), RoughnessFactor: gltf.Float(1)}
	material := &gltf.Material{PBRMetallicRoughness: pbr, AlphaMode: gltf.AlphaOpaque}
	doc.Materials = []*gltf.Material{material}
	return doc
}

// GridWidth is the extent along x of the frame grid AddFrames lays out
// for n frames.
func GridWidth(n int, scale float32) float32 {
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	return float32(cols) * 2 * scale
}

// AddFrames appends one node per frame to doc and returns the node
// indices. Each node with lit segments carries a LINES mesh with
// per-vertex colour. Frames are laid out side by side on a square grid in
// the XZ plane starting at origin so a whole animation is visible at once.
func AddFrames(doc *gltf.Document, frames []ilda.Frame, scale float32, origin [3]float32) []int {
	cols := int(math.Ceil(math.Sqrt(float64(len(frames)))))
	step := 2 * scale
	nodes := make([]int, 0, len(frames))

	for i, f := range frames {
		name := f.Header.Name.Text()
		if name == "" {
			name = fmt.Sprintf("frame%d", i)
		}
		node := &gltf.Node{Name: name}
		doc.Nodes = append(doc.Nodes, node)
		nodes = append(nodes, len(doc.Nodes)-1)

		mesh := ilda.BuildLines(f, scale)
		if mesh.Segments() == 0 {
			continue
		}
		tx := origin[0] + float32(i%cols)*step
		ty := origin[1]
		tz := origin[2] + float32(i/cols)*step
		positions := make([][3]float32, len(mesh.Vertices))
		colors := make([][4]float32, len(mesh.Vertices))
		for vi, v := range mesh.Vertices {
			positions[vi] = [3]float32{v.Position[0] + tx, v.Position[1] + ty, v.Position[2] + tz}
			colors[vi] = [4]float32{float32(v.Color.Red) / 255, float32(v.Color.Green) / 255, float32(v.Color.Blue) / 255, 1}
		}
		indices := make([]uint32, len(mesh.Indices))
		copy(indices, mesh.Indices)

		posAccessor := modeler.WritePosition(doc, positions)
		colorAccessor := modeler.WriteColor(doc, colors)
		indicesAccessor := modeler.WriteIndices(doc, indices)

		prim := &gltf.Primitive{
			Attributes: gltf.PrimitiveAttributes{
				gltf.POSITION: posAccessor,
				gltf.COLOR_0:  colorAccessor,
			},
			Indices:  gltf.Index(indicesAccessor),
			Material: gltf.Index(0),
			Mode:     gltf.PrimitiveLines,
		}
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: name, Primitives: []*gltf.Primitive{prim}})
		node.Mesh = gltf.Index(len(doc.Meshes) - 1)
	}
	return nodes
}

// NewGLBDocument builds a glTF document whose scene holds one node per
// frame of s.
func NewGLBDocument(s *ilda.Stream, scale float32) (*gltf.Document, error) {
	if len(s.Frames) == 0 {
		return nil, fmt.Errorf("stream has no frames")
	}
	doc := NewDocument("ILDA -> GLB")
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, AddFrames(doc, s.Frames, scale, [3]float32{})...)
	return doc, nil
}

// ILDToGLB takes IDTF stream bytes and returns .glb bytes.
func ILDToGLB(data []byte, scale float32, opts ...ilda.Option) ([]byte, error) {
	s, err := ilda.Decode(bytes.NewReader(data), opts...)
	if err != nil {
		return nil, err
	}
	doc, err := NewGLBDocument(s, scale)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	enc := gltf.NewEncoder(&out)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// PackILDs builds a .ildapack from the provided streams keyed by name.
// Entries are stored in name order.
func PackILDs(files map[string][]byte, layout ilda.PackLayout, comp ilda.PackCompression) ([]byte, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files")
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	pack := &ilda.Pack{Entries: make([]ilda.PackEntry, len(names))}
	for i, name := range names {
		if _, err := ilda.DecodeHeader(files[name]); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		pack.Entries[i] = ilda.PackEntry{Name: name, Data: files[name]}
	}
	return pack.Marshal(layout, comp)
}

// UnpackILDAPACKToMemory returns a map of entry name -> stream bytes.
func UnpackILDAPACKToMemory(packBytes []byte) (map[string][]byte, error) {
	pack, _, err := ilda.UnmarshalPack(packBytes)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(pack.Entries))
	for _, e := range pack.Entries {
		out[e.Name] = e.Data
	}
	return out, nil
}

// FrameSummary describes one point section.
type FrameSummary struct {
	Name        string      `json:"name"`
	Company     string      `json:"company"`
	Format      ilda.Format `json:"format"`
	Number      uint16      `json:"number"`
	TotalFrames uint16      `json:"totalFrames"`
	Projector   uint8       `json:"projector"`
	Points      int         `json:"points"`
	Lit         int         `json:"lit"`
	// Fingerprint is the xxhash64 of the frame's record bytes; equal
	// fingerprints mean identical point data.
	Fingerprint uint64 `json:"fingerprint"`
}

// Summary describes a stream.
type Summary struct {
	Frames       []FrameSummary `json:"frames"`
	Palettes     int            `json:"palettes"`
	UniqueFrames int            `json:"uniqueFrames"`
	Bytes        int            `json:"bytes"`
}

// Summarize decodes data and reports its frames.
func Summarize(data []byte, opts ...ilda.Option) (*Summary, error) {
	s, err := ilda.Decode(bytes.NewReader(data), opts...)
	if err != nil {
		return nil, err
	}
	sum := &Summary{Palettes: len(s.Palettes), Bytes: len(data)}
	var prints []uint64
	for _, b := range ilda.SplitSections(data) {
		h, err := ilda.DecodeHeader(b)
		if err != nil || h.IsEnd() || !h.Format.IsPoints() {
			continue
		}
		prints = append(prints, xxhash.Sum64(b[ilda.HeaderSize:]))
	}
	seen := make(map[uint64]struct{}, len(prints))
	for i, f := range s.Frames {
		fs := FrameSummary{
			Name:        f.Header.Name.Text(),
			Company:     f.Header.Company.Text(),
			Format:      f.Header.Format,
			Number:      f.Header.Number,
			TotalFrames: f.Header.TotalFrames,
			Projector:   f.Header.Projector,
			Points:      len(f.Points),
		}
		for _, p := range f.Points {
			if !p.Status.IsBlanked() {
				fs.Lit++
			}
		}
		if i < len(prints) {
			fs.Fingerprint = prints[i]
			seen[fs.Fingerprint] = struct{}{}
		}
		sum.Frames = append(sum.Frames, fs)
	}
	sum.UniqueFrames = len(seen)
	return sum, nil
}

// ConvertILD re-encodes every frame of data as target, which must be a
// point format. Indexed sources resolve through their palette; indexed
// targets take the nearest entry of pal (the default palette when nil)
// for true colour points, and a non-default pal is written as a palette
// section. Palette sections are kept only when target is indexed.
func ConvertILD(data []byte, target ilda.Format, pal ilda.Palette, opts ...ilda.Option) ([]byte, error) {
	if !target.IsPoints() {
		return nil, fmt.Errorf("convert: %v is not a point format", target)
	}
	s, err := ilda.Decode(bytes.NewReader(data), opts...)
	if err != nil {
		return nil, err
	}
	if pal == nil {
		pal = ilda.DefaultPalette()
	}
	isDefault := samePalette(pal, ilda.DefaultPalette())
	custom := -1
	for i := range s.Frames {
		f := &s.Frames[i]
		if !target.IsIndexed() {
			f.Header.Format = target
			f.Palette = -1
			continue
		}
		// a frame that keeps no stored index is matched against pal, so
		// the palette section it was read with no longer applies
		if !allIndexed(f.Points) {
			for j := range f.Points {
				p := &f.Points[j]
				p.ColorIndex = pal.Nearest(p.Color)
				p.Indexed = true
			}
			if !isDefault && custom < 0 {
				s.Palettes = append(s.Palettes, ilda.PaletteSection{
					Header: ilda.Header{Format: ilda.ColorPalette, Name: ilda.MustName("convert")},
					Colors: pal,
				})
				custom = len(s.Palettes) - 1
			}
			f.Palette = custom
		}
		f.Header.Format = target
	}
	if !target.IsIndexed() {
		s.Palettes = nil
	}
	var out bytes.Buffer
	if err := ilda.Encode(&out, s, opts...); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func samePalette(a, b ilda.Palette) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func allIndexed(points []ilda.Point) bool {
	for _, p := range points {
		if !p.Indexed {
			return false
		}
	}
	return true
}
