package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/vearutop/texload"
	"gopkg.in/yaml.v2"
)

// config holds convert settings that can be kept in a YAML file.
// Command line flags override file values.
type config struct {
	Width         uint   `yaml:"width"`
	Height        uint   `yaml:"height"`
	Interpolation string `yaml:"interpolation"`
	ToneMap       string `yaml:"tone_map"`
	Filter        string `yaml:"filter"`
	MaxPixels     int    `yaml:"max_pixels"`
	SkipGamma     bool   `yaml:"skip_gamma"`
	ConvertXYZ    bool   `yaml:"convert_xyz"`
	Gamut         string `yaml:"gamut"`
	LogLevel      string `yaml:"log_level"`
}

func loadConfig(path string) (config, error) {
	var c config
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return c, err
	}
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

func (c config) logger() (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if c.LogLevel == "" {
		return log, nil
	}
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	log.SetLevel(lvl)
	return log, nil
}

func (c config) decodeOptions(log logrus.FieldLogger) (func(o *texload.DecodeOptions), error) {
	gamut := texload.GamutBT709
	if c.Gamut != "" {
		g, ok := texload.ParseGamut(c.Gamut)
		if !ok {
			return nil, fmt.Errorf("unknown gamut %q", c.Gamut)
		}
		gamut = g
	}
	return func(o *texload.DecodeOptions) {
		o.Logger = log
		o.MaxPixels = c.MaxPixels
		o.SkipGamma = c.SkipGamma
		o.ConvertXYZ = c.ConvertXYZ
		o.TargetGamut = gamut
	}, nil
}
