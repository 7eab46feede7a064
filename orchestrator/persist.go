package orchestrator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/maastricht-university/patient-pulse/catalog"
	"github.com/maastricht-university/patient-pulse/entities"
	"github.com/maastricht-university/patient-pulse/timeline"
)

type Bundle struct {
	SessionID   string                `json:"session_id"`
	Demo        catalog.Demo          `json:"demo"`
	GeneratedAt time.Time             `json:"generated_at"`
	Time        float64               `json:"time"`
	ActiveLine  timeline.LineNumber   `json:"active_line"`
	Lines       int                   `json:"lines"`
	Entities    entities.Set          `json:"entities"`
	Highlighted []timeline.LineNumber `json:"highlighted_lines"`
}

func mkSessionDir(outputsRoot, sid string) (string, error) {
	dir := filepath.Join(outputsRoot, "session_"+sid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// writeJSON replaces path atomically so a reader never sees a partial export.
func writeJSON(path string, v any) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), path)
}

func persist(outputsRoot string, b Bundle) (string, error) {
	dir, err := mkSessionDir(outputsRoot, b.SessionID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "session.json")
	if err := writeJSON(path, b); err != nil {
		return "", err
	}
	return path, nil
}
