package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/voxelsplace/ilda/go/ilda"
)

// CreatePack reads IDTF streams and writes a .ildapack to outputFile.
// Every input must start with a valid section header. Layout and
// compression come from cfg.
func CreatePack(inputFiles []string, outputFile string, cfg Config) error {
	if len(inputFiles) == 0 {
		return fmt.Errorf("no .ild files provided")
	}
	type item struct {
		name string
		data []byte
		err  error
	}
	items := make([]item, len(inputFiles))

	var wg sync.WaitGroup
	for i := range inputFiles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := inputFiles[i]
			b, err := ilda.ReadBytes(path)
			if err != nil {
				items[i].err = err
				return
			}
			if _, err := ilda.DecodeHeader(b); err != nil {
				items[i].err = fmt.Errorf("%s: %w", path, err)
				return
			}
			// entries hold the plain stream
			items[i] = item{name: strings.TrimSuffix(filepath.Base(path), ".zst"), data: b}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]string, len(items))
	for i, it := range items {
		if it.err != nil {
			return it.err
		}
		if prev, ok := seen[it.name]; ok {
			return fmt.Errorf("duplicate entry name %s (%s and %s)", it.name, prev, inputFiles[i])
		}
		seen[it.name] = inputFiles[i]
	}

	pack := &ilda.Pack{Entries: make([]ilda.PackEntry, len(items))}
	raw := 0
	for i, it := range items {
		pack.Entries[i] = ilda.PackEntry{Name: it.name, Data: it.data}
		raw += len(it.data)
	}
	start := time.Now()
	data, err := pack.Marshal(cfg.Layout(), cfg.PackCompression)
	if err != nil {
		return err
	}
	log.Info().
		Int("entries", len(items)).
		Int("raw_bytes", raw).
		Int("packed_bytes", len(data)).
		Stringer("compression", cfg.PackCompression).
		Dur("took", time.Since(start)).
		Msg("ild2ildapack")
	return os.WriteFile(outputFile, data, 0o644)
}

// UnpackToDir writes the streams of a .ildapack into outputDir.
func UnpackToDir(packFile, outputDir string) error {
	names, blobs, err := UnpackToMemory(packFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	// Parallel write
	var wg sync.WaitGroup
	errCh := make(chan error, len(names))
	for i := range names {
		wg.Add(1)
		go func(name string, b []byte) {
			defer wg.Done()
			if err := os.WriteFile(filepath.Join(outputDir, filepath.Base(name)), b, 0o644); err != nil {
				errCh <- err
			}
		}(names[i], blobs[i])
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return err
		}
	}
	log.Info().Str("pack", packFile).Int("entries", len(names)).Str("dir", outputDir).Msg("ildapack2ild")
	return nil
}

// UnpackToMemory returns names and raw stream bytes without writing to disk.
func UnpackToMemory(packFile string) ([]string, [][]byte, error) {
	data, err := os.ReadFile(packFile)
	if err != nil {
		return nil, nil, err
	}
	pack, _, err := ilda.UnmarshalPack(data)
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, len(pack.Entries))
	blobs := make([][]byte, len(pack.Entries))
	for i, e := range pack.Entries {
		names[i] = e.Name
		blobs[i] = e.Data
	}
	return names, blobs, nil
}
