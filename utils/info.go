package utils

import (
	"fmt"
	"io"

	"github.com/voxelsplace/ilda/go/api"
	"github.com/voxelsplace/ilda/go/ilda"
)

// RunInfo prints a per-frame listing of the stream at inPath to w.
func RunInfo(inPath string, w io.Writer, cfg Config) error {
	data, err := ilda.ReadBytes(inPath)
	if err != nil {
		return err
	}
	sum, err := api.Summarize(data, cfg.ReadOptions()...)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %d bytes, %d frames (%d unique), %d palettes\n",
		inPath, sum.Bytes, len(sum.Frames), sum.UniqueFrames, sum.Palettes)
	for i, f := range sum.Frames {
		fmt.Fprintf(w, "%5d  %-8s %-8s %-22v %5d/%-5d proj %3d  %5d points %5d lit  %016x\n",
			i, f.Name, f.Company, f.Format, f.Number, f.TotalFrames, f.Projector, f.Points, f.Lit, f.Fingerprint)
	}
	return nil
}
