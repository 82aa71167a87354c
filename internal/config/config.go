// config.go - Configuration file loading.
//
// Grounded on original_source/src/config.cpp: whitespace-tokenized
// `key value` lines, unknown keys ignored, last occurrence of a key wins.
// Delivered as an immutable Config value once loaded — the scheduler core
// never re-reads the file.
//
// License: GPLv3 or later

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Algorithm selects the scheduling discipline.
type Algorithm int

const (
	FCFS Algorithm = iota
	RR
)

func (a Algorithm) String() string {
	if a == RR {
		return "rr"
	}
	return "fcfs"
}

// Config is the immutable-after-load configuration value.
type Config struct {
	CPUCount           int
	Algorithm          Algorithm
	QuantumCycles      uint64
	BatchGenFrequency  uint64
	MinInstructions    uint64
	MaxInstructions    uint64
	DelayPerExec       uint64
	MaxOverallMemory   uint64
	MemoryPerFrame     uint64 // parsed but unused by the allocator
	MemoryPerProcess   uint64
}

// Load reads and validates a configuration file in the whitespace key/value
// format.
// A missing file or a validation failure is a configuration error: the
// caller must not start the scheduler.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: cannot open %s: %w", path, err)
	}
	defer f.Close()

	raw := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		raw[fields[0]] = fields[1] // last occurrence wins
	}
	if err := scanner.Err(); err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Config{
		CPUCount:          1,
		Algorithm:         FCFS,
		QuantumCycles:     1,
		BatchGenFrequency: 1,
		MinInstructions:   1,
		MaxInstructions:   1,
	}

	if v, ok := raw["num-cpu"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: num-cpu: %w", err)
		}
		cfg.CPUCount = n
	}
	if v, ok := raw["scheduler"]; ok {
		switch strings.ToLower(v) {
		case "fcfs":
			cfg.Algorithm = FCFS
		case "rr":
			cfg.Algorithm = RR
		default:
			return Config{}, fmt.Errorf("config: scheduler: unknown value %q", v)
		}
	}
	for key, dst := range map[string]*uint64{
		"quantum-cycles":     &cfg.QuantumCycles,
		"batch-process-freq": &cfg.BatchGenFrequency,
		"min-ins":            &cfg.MinInstructions,
		"max-ins":            &cfg.MaxInstructions,
		"delay-per-exec":     &cfg.DelayPerExec,
		"max-overall-mem":    &cfg.MaxOverallMemory,
		"mem-per-frame":      &cfg.MemoryPerFrame,
		"mem-per-proc":       &cfg.MemoryPerProcess,
	} {
		if v, ok := raw[key]; ok {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return Config{}, fmt.Errorf("config: %s: %w", key, err)
			}
			*dst = n
		}
	}

	// If algorithm != RR, quantum_cycles is forced to 1.
	if cfg.Algorithm != RR {
		cfg.QuantumCycles = 1
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.CPUCount < 1 || c.CPUCount > 128:
		return fmt.Errorf("config: num-cpu must be in [1,128], got %d", c.CPUCount)
	case c.QuantumCycles < 1:
		return fmt.Errorf("config: quantum-cycles must be >= 1")
	case c.BatchGenFrequency < 1:
		return fmt.Errorf("config: batch-process-freq must be >= 1")
	case c.MaxInstructions < c.MinInstructions:
		return fmt.Errorf("config: max-ins must be >= min-ins")
	case c.MaxOverallMemory == 0:
		return fmt.Errorf("config: max-overall-mem must be > 0")
	case c.MemoryPerProcess == 0 || c.MemoryPerProcess > c.MaxOverallMemory:
		return fmt.Errorf("config: mem-per-proc must be in (0, max-overall-mem]")
	}
	return nil
}
