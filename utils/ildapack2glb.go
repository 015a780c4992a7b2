package utils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/voxelsplace/ilda/go/api"
	"github.com/voxelsplace/ilda/go/ilda"
)

// RunILDAPACK2GLB converts a .ildapack into a .glb.
// Each entry becomes a parent node holding that stream's frame nodes; the
// entries are placed side by side along x so they don't overlap.
func RunILDAPACK2GLB(inPackPath, outGlbPath string, cfg Config) error {
	data, err := os.ReadFile(inPackPath)
	if err != nil {
		return err
	}
	pack, _, err := ilda.UnmarshalPack(data)
	if err != nil {
		return err
	}
	if len(pack.Entries) == 0 {
		return fmt.Errorf("empty pack: no entries")
	}

	doc := api.NewDocument("ILDAPACK -> GLB")
	var x float32
	for i, e := range pack.Entries {
		s, err := ilda.Decode(bytes.NewReader(e.Data), cfg.ReadOptions()...)
		if err != nil {
			return fmt.Errorf("entry %d (%s): %w", i, e.Name, err)
		}
		children := api.AddFrames(doc, s.Frames, cfg.GLBScale, [3]float32{x, 0, 0})
		x += api.GridWidth(len(s.Frames), cfg.GLBScale) + 2*cfg.GLBScale

		parent := &gltf.Node{Name: filepath.Base(e.Name), Children: children}
		doc.Nodes = append(doc.Nodes, parent)
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	}

	return gltf.SaveBinary(doc, outGlbPath)
}
