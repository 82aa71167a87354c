package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.txt")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "max-overall-mem 1024\nmem-per-proc 256\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CPUCount != 1 || cfg.Algorithm != FCFS || cfg.QuantumCycles != 1 {
		t.Errorf("defaults = %+v, want CPUCount=1 Algorithm=FCFS QuantumCycles=1", cfg)
	}
}

func TestLoadLastOccurrenceWins(t *testing.T) {
	path := writeConfig(t, "num-cpu 2\nnum-cpu 4\nmax-overall-mem 1024\nmem-per-proc 256\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CPUCount != 4 {
		t.Errorf("CPUCount = %d, want 4 (last occurrence wins)", cfg.CPUCount)
	}
}

func TestLoadIgnoresCommentsAndBlankLines(t *testing.T) {
	path := writeConfig(t, "# a comment\n\nnum-cpu 2\nmax-overall-mem 1024\nmem-per-proc 256\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CPUCount != 2 {
		t.Errorf("CPUCount = %d, want 2", cfg.CPUCount)
	}
}

func TestLoadForcesQuantumCyclesToOneUnlessRR(t *testing.T) {
	path := writeConfig(t, "scheduler fcfs\nquantum-cycles 5\nmax-overall-mem 1024\nmem-per-proc 256\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.QuantumCycles != 1 {
		t.Errorf("QuantumCycles = %d, want 1 (forced under FCFS)", cfg.QuantumCycles)
	}

	path = writeConfig(t, "scheduler rr\nquantum-cycles 5\nmax-overall-mem 1024\nmem-per-proc 256\n")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.QuantumCycles != 5 {
		t.Errorf("QuantumCycles = %d, want 5 under RR", cfg.QuantumCycles)
	}
}

func TestLoadRejectsUnknownAlgorithm(t *testing.T) {
	path := writeConfig(t, "scheduler round-robin\nmax-overall-mem 1024\nmem-per-proc 256\n")
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted an unknown scheduler value")
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"cpu count zero", "num-cpu 0\nmax-overall-mem 1024\nmem-per-proc 256\n"},
		{"max-ins below min-ins", "min-ins 10\nmax-ins 2\nmax-overall-mem 1024\nmem-per-proc 256\n"},
		{"missing max-overall-mem", "mem-per-proc 256\n"},
		{"mem-per-proc exceeds total", "max-overall-mem 100\nmem-per-proc 200\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := writeConfig(t, c.body)
			if _, err := Load(path); err == nil {
				t.Errorf("Load(%q) accepted an invalid config", c.name)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("Load accepted a nonexistent path")
	}
}
