package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vearutop/texload"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "detect":
		err = runDetect(os.Args[2:], os.Stdout)
	case "info":
		err = runInfo(os.Args[2:], os.Stdout)
	case "convert":
		err = runConvert(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: textool <command> [args]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  detect  -in input.bmp")
	fmt.Fprintln(os.Stderr, "  info    -in input.hdr [-skip-gamma] [-xyz]")
	fmt.Fprintln(os.Stderr, "  convert -in input.hdr -out preview.tiff [-w 512] [-h 0] [-interp lanczos3] [-tmo reinhard05]")
	fmt.Fprintln(os.Stderr, "          [-filter 'pow(v, 1/2.2)'] [-config textool.yaml]")
	fmt.Fprintln(os.Stderr, "Inputs ending in .zst or .lz4 are decompressed first.")
}

func runDetect(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	inPath := fs.String("in", "", "input image")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" {
		return errors.New("missing required arguments")
	}
	f, err := os.Open(filepath.Clean(*inPath))
	if err != nil {
		return err
	}
	defer f.Close()
	format, err := texload.DetectFormat(f)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, format)
	return nil
}

func runInfo(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	inPath := fs.String("in", "", "input image")
	skipGamma := fs.Bool("skip-gamma", false, "do not apply gamma")
	xyz := fs.Bool("xyz", false, "convert XYZE pixels to RGB")
	logLevel := fs.String("log", "warning", "log level")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" {
		return errors.New("missing required arguments")
	}

	cfg := config{SkipGamma: *skipGamma, ConvertXYZ: *xyz, LogLevel: *logLevel}
	log, err := cfg.logger()
	if err != nil {
		return err
	}
	opt, err := cfg.decodeOptions(log)
	if err != nil {
		return err
	}
	img, err := texload.DecodeFile(*inPath, opt)
	if err != nil {
		return err
	}
	printInfo(out, img)
	return nil
}

func printInfo(out io.Writer, img *texload.Image) {
	fmt.Fprintf(out, "size:        %dx%d\n", img.Width(), img.Height())
	fmt.Fprintf(out, "format:      %s\n", img.Format())
	fmt.Fprintf(out, "row order:   %s\n", img.RowOrder())
	fmt.Fprintf(out, "color space: %s\n", img.ColorSpace())
	fmt.Fprintf(out, "exposure:    %g\n", img.Exposure())
	fmt.Fprintf(out, "gamma:       %g\n", img.Gamma())
	fmt.Fprintf(out, "source key:  %08x\n", img.SourceKey())
}

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	inPath := fs.String("in", "", "input BMP or HDR image")
	outPath := fs.String("out", "", "output TIFF")
	cfgPath := fs.String("config", "", "YAML config file")
	width := fs.Uint("w", 0, "target width, 0 keeps aspect ratio")
	height := fs.Uint("h", 0, "target height, 0 keeps aspect ratio")
	interp := fs.String("interp", "", "nearest, bilinear, bicubic, mitchell, lanczos2 or lanczos3")
	tmo := fs.String("tmo", "", "linear, log, drago03 or reinhard05")
	filter := fs.String("filter", "", "per-channel expression over v, r, g, b, l, c")
	logLevel := fs.String("log", "", "log level")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" || *outPath == "" {
		return errors.New("missing required arguments")
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "w":
			cfg.Width = *width
		case "h":
			cfg.Height = *height
		case "interp":
			cfg.Interpolation = *interp
		case "tmo":
			cfg.ToneMap = *tmo
		case "filter":
			cfg.Filter = *filter
		case "log":
			cfg.LogLevel = *logLevel
		}
	})

	return convert(*inPath, *outPath, cfg)
}

func convert(inPath, outPath string, cfg config) error {
	log, err := cfg.logger()
	if err != nil {
		return err
	}
	opt, err := cfg.decodeOptions(log)
	if err != nil {
		return err
	}
	interp, err := texload.ParseInterpolation(cfg.Interpolation)
	if err != nil {
		return err
	}
	op, err := texload.ParseToneMapOperator(cfg.ToneMap)
	if err != nil {
		return err
	}

	img, err := texload.DecodeFile(inPath, opt)
	if err != nil {
		return err
	}
	if cfg.Filter != "" {
		f, err := texload.NewChannelFilter(cfg.Filter)
		if err != nil {
			return err
		}
		if img, err = f.Apply(img); err != nil {
			return err
		}
	}

	preview, err := texload.ToneMap(img, op)
	if err != nil {
		return err
	}
	preview = texload.Resize(preview, cfg.Width, cfg.Height, func(o *texload.ResizeOptions) {
		o.Interpolation = interp
	})

	out, err := os.Create(filepath.Clean(outPath))
	if err != nil {
		return err
	}
	if err := texload.EncodeTIFF(out, preview); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
