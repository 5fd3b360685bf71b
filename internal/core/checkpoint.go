package core

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"
)

// StageRecord is the on-disk envelope for one stage output.
type StageRecord struct {
	RunID     string          `json:"run_id"`
	Stage     StageID         `json:"stage"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// ArtifactRecorder persists stage outputs under runs/<runID>/<stage>.json.
type ArtifactRecorder struct {
	storage Storage
}

func NewArtifactRecorder(storage Storage) *ArtifactRecorder {
	return &ArtifactRecorder{storage: storage}
}

func recordPath(runID string, stage StageID) string {
	return path.Join("runs", runID, string(stage)+".json")
}

func (r *ArtifactRecorder) Record(ctx context.Context, runID string, stage StageID, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling %s output: %w", stage, err)
	}

	record := StageRecord{
		RunID:     runID,
		Stage:     stage,
		Timestamp: time.Now(),
		Data:      raw,
	}
	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	return r.storage.Save(ctx, recordPath(runID, stage), out)
}

// Load decodes a recorded stage output into v.
func (r *ArtifactRecorder) Load(ctx context.Context, runID string, stage StageID, v any) error {
	data, err := r.storage.Load(ctx, recordPath(runID, stage))
	if err != nil {
		return fmt.Errorf("loading %s record: %w", stage, err)
	}

	var record StageRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("unmarshaling record: %w", err)
	}
	if err := json.Unmarshal(record.Data, v); err != nil {
		return fmt.Errorf("unmarshaling %s output: %w", stage, err)
	}
	return nil
}

// Stages lists the stages recorded for a run.
func (r *ArtifactRecorder) Stages(ctx context.Context, runID string) ([]StageID, error) {
	files, err := r.storage.List(ctx, path.Join("runs", runID, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	stages := make([]StageID, 0, len(files))
	for _, f := range files {
		name := strings.TrimSuffix(path.Base(strings.ReplaceAll(f, "\\", "/")), ".json")
		stages = append(stages, StageID(name))
	}
	return stages, nil
}

func (r *ArtifactRecorder) Delete(ctx context.Context, runID string) error {
	stages, err := r.Stages(ctx, runID)
	if err != nil {
		return err
	}
	for _, s := range stages {
		if err := r.storage.Delete(ctx, recordPath(runID, s)); err != nil {
			return err
		}
	}
	return nil
}
