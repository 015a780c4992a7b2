package ilda

// Vertex is a mesh vertex in normalised space.
type Vertex struct {
	Position [3]float32
	Color    Color
}

// Mesh is a list of line segments: Indices holds pairs into Vertices.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// Segments returns the number of line segments in m.
func (m *Mesh) Segments() int { return len(m.Indices) / 2 }

func normalise(v int16, scale float32) float32 {
	return float32(v) / 32768 * scale
}

// BuildLines turns the lit moves of f into line segments. The beam moves
// from each point to the next; the move is drawn in the colour of the
// destination point unless that point is blanked. Coordinates map to
// [-scale, scale) with x right, y up and z towards the viewer.
func BuildLines(f Frame, scale float32) *Mesh {
	mesh := &Mesh{}
	for i := 1; i < len(f.Points); i++ {
		to := f.Points[i]
		if to.Status.IsBlanked() {
			continue
		}
		from := f.Points[i-1]
		base := uint32(len(mesh.Vertices))
		mesh.Vertices = append(mesh.Vertices,
			Vertex{Position: [3]float32{normalise(from.X, scale), normalise(from.Y, scale), normalise(from.Z, scale)}, Color: to.Color},
			Vertex{Position: [3]float32{normalise(to.X, scale), normalise(to.Y, scale), normalise(to.Z, scale)}, Color: to.Color},
		)
		mesh.Indices = append(mesh.Indices, base, base+1)
	}
	return mesh
}
