package utils

import (
	"github.com/qmuntal/gltf"
	"github.com/rs/zerolog/log"
	"github.com/voxelsplace/ilda/go/api"
	"github.com/voxelsplace/ilda/go/ilda"
)

// RunILD2GLB converts an IDTF stream into a .glb with one line mesh per frame.
func RunILD2GLB(inPath, outPath string, cfg Config) error {
	s, err := ilda.ReadFile(inPath, cfg.ReadOptions()...)
	if err != nil {
		return err
	}
	doc, err := api.NewGLBDocument(s, cfg.GLBScale)
	if err != nil {
		return err
	}
	log.Info().Str("in", inPath).Int("frames", len(s.Frames)).Int("meshes", len(doc.Meshes)).Msg("ild2glb")
	return gltf.SaveBinary(doc, outPath)
}
