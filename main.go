//go:build !(js && wasm)

package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/voxelsplace/ilda/go/internal/logging"
	"github.com/voxelsplace/ilda/go/utils"
)

const defaultConfigPath = "ildatool.toml"

func usage() {
	fmt.Println("Usage: ildatool [-config ildatool.toml] <command> [args]")
	fmt.Println("Commands:")
	fmt.Println("  info input.ild                              (list frames, formats and point counts)")
	fmt.Println("  ild2glb input.ild output.glb                (convert .ild -> .glb, one line mesh per frame)")
	fmt.Println("  ildapack2glb input.ildapack output.glb      (convert .ildapack -> .glb, one node per entry)")
	fmt.Println("  render input.ild <frame> output.png         (rasterise one frame to a PNG preview)")
	fmt.Println("  convert input.ild <format> output.ild       (rewrite every frame as format 0, 1, 4 or 5)")
	fmt.Println("  ild2ildapack output.ildapack input1.ild [input2.ild ...]   (pack multiple streams into a .ildapack)")
	fmt.Println("  ildapack2ild input.ildapack output_dir      (unpack .ildapack into a directory of .ild files)")
	fmt.Println("  gentest <frames> <points> output.ild [seed] (generate a rotating polygon test pattern)")
	fmt.Println("Streams ending in .zst are read and written zstd-compressed.")
}

func loadConfig(path string) (utils.Config, error) {
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); errors.Is(err, fs.ErrNotExist) {
			return utils.DefaultConfig(), nil
		}
		path = defaultConfigPath
	}
	return utils.LoadConfig(path)
}

func main() {
	configPath := flag.String("config", "", "path to ildatool.toml")
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()

	logger := logging.Init("ildatool")
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error().Err(err).Msg("config")
		os.Exit(1)
	}
	if os.Getenv(logging.EnvLogLevel) == "" && cfg.LogLevel != "" {
		logger = logging.New(os.Stderr, "ildatool", cfg.LogLevel)
	}

	if err := run(args, cfg); err != nil {
		logger.Error().Err(err).Str("command", args[0]).Msg("failed")
		os.Exit(1)
	}
}

func run(args []string, cfg utils.Config) error {
	start := time.Now()
	var err error
	switch args[0] {
	case "info":
		if len(args) != 2 {
			usage()
			os.Exit(1)
		}
		err = utils.RunInfo(args[1], os.Stdout, cfg)
	case "ild2glb":
		if len(args) != 3 {
			usage()
			os.Exit(1)
		}
		err = utils.RunILD2GLB(args[1], args[2], cfg)
	case "ildapack2glb":
		if len(args) != 3 {
			usage()
			os.Exit(1)
		}
		err = utils.RunILDAPACK2GLB(args[1], args[2], cfg)
	case "render":
		if len(args) != 4 {
			usage()
			os.Exit(1)
		}
		var frame int
		if _, err := fmt.Sscan(args[2], &frame); err != nil {
			return fmt.Errorf("parse frame: %w", err)
		}
		err = utils.RunRender(args[1], frame, args[3], cfg)
	case "convert":
		if len(args) != 4 {
			usage()
			os.Exit(1)
		}
		var code uint8
		if _, err := fmt.Sscan(args[2], &code); err != nil {
			return fmt.Errorf("parse format: %w", err)
		}
		err = utils.RunConvert(args[1], code, args[3], cfg)
	case "ild2ildapack":
		if len(args) < 3 {
			usage()
			os.Exit(1)
		}
		err = utils.CreatePack(args[2:], args[1], cfg)
	case "ildapack2ild":
		if len(args) != 3 {
			usage()
			os.Exit(1)
		}
		err = utils.RunILDAPACK2ILD(args[1], args[2])
	case "gentest":
		if len(args) != 4 && len(args) != 5 {
			usage()
			os.Exit(1)
		}
		var frames, points int
		if _, err := fmt.Sscan(args[1], &frames); err != nil {
			return fmt.Errorf("parse frames: %w", err)
		}
		if _, err := fmt.Sscan(args[2], &points); err != nil {
			return fmt.Errorf("parse points: %w", err)
		}
		seed := time.Now().UnixNano()
		if len(args) == 5 {
			if _, err := fmt.Sscan(args[4], &seed); err != nil {
				return fmt.Errorf("parse seed: %w", err)
			}
		}
		err = utils.RunGenerateTestPattern(frames, points, seed, args[3])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Operation completed in %d ms\n", time.Since(start).Milliseconds())
	return nil
}
