package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"FrameForge-server/config"
)

// MetaRecordStore is the durable side of project metadata. The database is
// the primary store; disk mirrors exist so a project directory stays
// self-describing.
type MetaRecordStore interface {
	LoadMetaJSON(projectID string) (string, error)
	SaveMetaJSON(projectID, raw string) error
}

// MetaStore reads and writes per-project metadata maps. Writes go to the
// record store first and are mirrored to <root>/<id>/meta.json best-effort;
// a mirror failure is logged and never fails the operation.
type MetaStore struct {
	Records MetaRecordStore
	Root    string
}

func NewMetaStore(records MetaRecordStore, root string) *MetaStore {
	return &MetaStore{Records: records, Root: root}
}

func (m *MetaStore) metaPath(projectID string) string {
	return filepath.Join(m.Root, projectID, "meta.json")
}

// Load returns the project's metadata map. An empty record falls back to
// the disk mirror, which is then backfilled into the record store.
func (m *MetaStore) Load(projectID string) (map[string]interface{}, error) {
	raw, err := m.Records.LoadMetaJSON(projectID)
	if err != nil {
		return nil, fmt.Errorf("load meta for %s: %w", projectID, err)
	}
	if raw != "" {
		var meta map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			return nil, fmt.Errorf("decode meta for %s: %w", projectID, err)
		}
		return meta, nil
	}

	// Record is empty. Try the disk mirror and backfill if it has content.
	data, err := os.ReadFile(m.metaPath(projectID))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]interface{}{}, nil
		}
		return nil, fmt.Errorf("read meta mirror for %s: %w", projectID, err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode meta mirror for %s: %w", projectID, err)
	}
	if err := m.Records.SaveMetaJSON(projectID, string(data)); err != nil {
		config.Log.WithError(err).WithField("project", projectID).Warn("meta backfill to record store failed")
	}
	return meta, nil
}

// Update merges patch into the project's metadata at the top level and
// persists the result.
func (m *MetaStore) Update(projectID string, patch map[string]interface{}) (map[string]interface{}, error) {
	meta, err := m.Load(projectID)
	if err != nil {
		return nil, err
	}
	for k, v := range patch {
		meta[k] = v
	}
	if err := m.Save(projectID, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// Save persists the full metadata map, record store first, disk mirror
// second.
func (m *MetaStore) Save(projectID string, meta map[string]interface{}) error {
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode meta for %s: %w", projectID, err)
	}
	if err := m.Records.SaveMetaJSON(projectID, string(raw)); err != nil {
		return fmt.Errorf("save meta for %s: %w", projectID, err)
	}
	m.mirror(projectID, raw)
	return nil
}

func (m *MetaStore) mirror(projectID string, raw []byte) {
	path := m.metaPath(projectID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		config.Log.WithError(err).WithField("project", projectID).Warn("meta mirror mkdir failed")
		return
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		config.Log.WithError(err).WithField("project", projectID).Warn("meta mirror write failed")
	}
}

// GetString pulls a string field out of a metadata map, with a default.
func GetString(meta map[string]interface{}, key, def string) string {
	if v, ok := meta[key].(string); ok && v != "" {
		return v
	}
	return def
}

// GetFloat pulls a numeric field out of a metadata map, with a default.
func GetFloat(meta map[string]interface{}, key string, def float64) float64 {
	switch v := meta[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	}
	return def
}

// GetBool pulls a boolean field out of a metadata map, with a default.
func GetBool(meta map[string]interface{}, key string, def bool) bool {
	if v, ok := meta[key].(bool); ok {
		return v
	}
	return def
}
