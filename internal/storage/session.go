package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/dotcommander/carousel/internal/core"
)

// RunNamingStrategy defines how exported run directories are named.
type RunNamingStrategy int

const (
	// RunUUID uses the full run ID (default)
	RunUUID RunNamingStrategy = iota
	// RunTimestamp uses timestamp + short ID
	RunTimestamp
	// RunDescriptive uses timestamp + sanitized brand name + short ID
	RunDescriptive
)

// ParseRunNaming maps a config value onto a strategy. Unknown values fall
// back to RunUUID.
func ParseRunNaming(s string) RunNamingStrategy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "timestamp":
		return RunTimestamp
	case "descriptive":
		return RunDescriptive
	}
	return RunUUID
}

// ExportDir returns the storage-relative directory a run is exported to.
func ExportDir(runID, label string, strategy RunNamingStrategy, now time.Time) string {
	shortID := runID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}

	switch strategy {
	case RunTimestamp:
		// 2025-07-16_1530_82f06b15
		return path.Join("exports", fmt.Sprintf("%s_%s", now.Format("2006-01-02_1504"), shortID))
	case RunDescriptive:
		// 2025-07-16_1530_planwise_82f06b15
		return path.Join("exports", fmt.Sprintf("%s_%s_%s", now.Format("2006-01-02_1504"), sanitizeForFilename(label, 30), shortID))
	default:
		return path.Join("exports", runID)
	}
}

var filenameReplacer = strings.NewReplacer(
	" ", "-", "/", "-", "\\", "-", ":", "-", ".", "-", "_", "-",
)

// sanitizeForFilename converts a string to a safe filename component
func sanitizeForFilename(s string, maxLen int) string {
	s = filenameReplacer.Replace(strings.ToLower(s))

	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	s = b.String()

	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")

	if len(s) > maxLen {
		s = strings.TrimRight(s[:maxLen], "-")
	}
	if s == "" {
		s = "carousel"
	}
	return s
}

// RunMetadata describes an exported run.
type RunMetadata struct {
	RunID      string    `json:"runId"`
	Brand      string    `json:"brand"`
	TemplateID string    `json:"templateId,omitempty"`
	Slides     int       `json:"slides"`
	Passed     bool      `json:"qualityPassed"`
	Score      int       `json:"qualityScore"`
	Provider   string    `json:"provider,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ExportFile is one file of an exported run, relative to its directory.
type ExportFile struct {
	Name string
	Data []byte
}

// Export writes metadata.json plus files into dir.
func Export(ctx context.Context, store core.Storage, dir string, meta RunMetadata, files ...ExportFile) ([]string, error) {
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling metadata: %w", err)
	}
	files = append([]ExportFile{{Name: "metadata.json", Data: raw}}, files...)

	written := make([]string, 0, len(files))
	for _, f := range files {
		p := path.Join(dir, f.Name)
		if err := store.Save(ctx, p, f.Data); err != nil {
			return written, fmt.Errorf("exporting %s: %w", f.Name, err)
		}
		written = append(written, p)
	}
	return written, nil
}
