package geojsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/wildfire-hotspot-etl/internal/domain"
)

// Writer persists a feature collection as an indented GeoJSON document.
// It implements pipeline.Loader.
type Writer struct {
	path   string
	logger *slog.Logger
}

// NewWriter creates a file sink for path. Parent directories are created on
// first write.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

func (w *Writer) Name() string { return "geojson_file" }

// Load writes fc to a temp file next to the target and renames it into
// place, so readers never observe a partial document.
func (w *Writer) Load(_ context.Context, fc domain.FeatureCollection) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fc); err != nil {
		tmp.Close()
		return fmt.Errorf("encode feature collection: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}

	w.logger.Info("feature collection written",
		"path", w.path,
		"total_features", fc.Metadata.TotalFeatures,
	)
	return nil
}

// Read loads a previously written collection.
func Read(path string) (domain.FeatureCollection, error) {
	var fc domain.FeatureCollection
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("decode %s: %w", path, err)
	}
	return fc, nil
}
