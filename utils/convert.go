package utils

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/voxelsplace/ilda/go/api"
	"github.com/voxelsplace/ilda/go/ilda"
)

// RunConvert rewrites every frame of inPath in point format code.
// Indexed targets use the configured palette for true colour points.
func RunConvert(inPath string, code uint8, outPath string, cfg Config) error {
	target, err := ilda.FormatFromCode(code)
	if err != nil {
		return err
	}
	data, err := ilda.ReadBytes(inPath)
	if err != nil {
		return err
	}
	out, err := api.ConvertILD(data, target, cfg.DefaultPalette(), cfg.ReadOptions()...)
	if err != nil {
		return fmt.Errorf("convert %s: %w", inPath, err)
	}
	w, err := ilda.Create(outPath)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		w.Close()
		return err
	}
	log.Info().Str("in", inPath).Stringer("format", target).Int("bytes", len(out)).Msg("convert")
	return w.Close()
}
