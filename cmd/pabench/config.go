package main

import (
	"fmt"
	"os"

	"github.com/notargets/PAKernel/mesh"
	"gopkg.in/yaml.v3"
)

// BenchConfig is the YAML run description. Flags override loaded values.
type BenchConfig struct {
	Dim     int       `yaml:"dim"`
	N       [3]int    `yaml:"n"`
	Order   int       `yaml:"order"`
	Workers int       `yaml:"workers"`
	Mode    string    `yaml:"mode"`
	Repeat  int       `yaml:"repeat"`
	Twist   bool      `yaml:"twist"`
	Kappa   float64   `yaml:"kappa"`
	Beta    []float64 `yaml:"beta"`
}

func defaultConfig() BenchConfig {
	return BenchConfig{
		Dim:    3,
		N:      [3]int{8, 8, 8},
		Order:  3,
		Mode:   "Host",
		Repeat: 10,
		Kappa:  1,
		Beta:   []float64{1, 0.5, 0.25},
	}
}

// loadConfig reads path over the defaults; an empty path keeps them
func loadConfig(path string) (BenchConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c BenchConfig) validate() error {
	if c.Dim < 1 || c.Dim > 3 {
		return fmt.Errorf("dim must be 1, 2 or 3, got %d", c.Dim)
	}
	need := mesh.MinPeriodic(c.Dim)
	for d := 0; d < c.Dim; d++ {
		if c.N[d] < need {
			return fmt.Errorf("n[%d] = %d, a periodic axis needs at least %d elements", d, c.N[d], need)
		}
	}
	if c.Order < 1 {
		return fmt.Errorf("order must be positive, got %d", c.Order)
	}
	if len(c.Beta) < c.Dim {
		return fmt.Errorf("beta has %d components, want %d", len(c.Beta), c.Dim)
	}
	if c.Repeat < 1 {
		return fmt.Errorf("repeat must be positive, got %d", c.Repeat)
	}
	return nil
}
