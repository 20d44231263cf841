// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

// ExportEntry is a run with its stage outputs.
type ExportEntry struct {
	types.RunRecord `yaml:",inline"`
	Stages          []StageRecord `json:"stages,omitempty" yaml:"stages,omitempty"`
}

const exportLimit = 100000

// ExportYAML writes every run, newest first, as YAML.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer) error {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes every run, newest first, as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer) error {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

func (s *Store) exportEntries(ctx context.Context) ([]ExportEntry, error) {
	runs, err := s.ListRuns(ctx, exportLimit)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	entries := make([]ExportEntry, len(runs))
	for i, r := range runs {
		stages, err := s.Stages(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		entries[i] = ExportEntry{RunRecord: r, Stages: stages}
	}
	return entries, nil
}
