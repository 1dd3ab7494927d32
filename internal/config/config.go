// Package config loads a Valori kernel's fixed build-time Config from a
// commented JSON file, in the same style as the teacher's root-level
// config loader: hujson lets operators leave // comments and trailing
// commas in the file they hand-edit, then the result is decoded as
// plain JSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"github.com/valori-dev/valori/pkg/kernel"
)

// File is the on-disk shape of a kernel config file.
type File struct {
	Dim        int    `json:"dim"`
	CapRecords uint32 `json:"cap_records"`
	CapNodes   uint32 `json:"cap_nodes"`
	CapEdges   uint32 `json:"cap_edges"`
	IndexKind  string `json:"index_kind"`
}

// Load reads and parses path into a kernel.Config.
func Load(path string) (kernel.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return kernel.Config{}, err
	}

	standard, err := hujson.Standardize(raw)
	if err != nil {
		return kernel.Config{}, fmt.Errorf("config: %s: %w", path, err)
	}

	var f File
	if err := json.Unmarshal(standard, &f); err != nil {
		return kernel.Config{}, fmt.Errorf("config: %s: %w", path, err)
	}

	return toKernelConfig(f)
}

func toKernelConfig(f File) (kernel.Config, error) {
	kind, err := parseIndexKind(f.IndexKind)
	if err != nil {
		return kernel.Config{}, err
	}

	if f.Dim <= 0 {
		return kernel.Config{}, fmt.Errorf("config: dim must be positive, got %d", f.Dim)
	}

	return kernel.Config{
		Dim:        f.Dim,
		CapRecords: f.CapRecords,
		CapNodes:   f.CapNodes,
		CapEdges:   f.CapEdges,
		IndexKind:  kind,
	}, nil
}

func parseIndexKind(name string) (kernel.IndexKind, error) {
	switch name {
	case "", "brute_force":
		return kernel.IndexKindBruteForce, nil
	default:
		return 0, fmt.Errorf("config: unknown index_kind %q", name)
	}
}
