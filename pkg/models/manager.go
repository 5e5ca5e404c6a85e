// Package models manages the on-disk model cache: download, checksum
// verification, listing and deletion. Models marked external (served by a
// separate process, like the synthesis service's weights) are never
// downloaded here.
package models

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
)

// ModelType classifies a model's role in the pipeline.
type ModelType string

const (
	TypeVAD        ModelType = "vad"
	TypeASR        ModelType = "asr"
	TypeTranslator ModelType = "translator"
	TypeTTS        ModelType = "tts"
)

// ModelFile is one file of a model. SHA256, when set, is verified after
// download.
type ModelFile struct {
	Path      string `json:"path"`
	SHA256    string `json:"sha256,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

// ModelInfo describes one known model.
type ModelInfo struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Type      ModelType   `json:"type"`
	Source    string      `json:"source"`
	Files     []ModelFile `json:"files"`
	SizeBytes int64       `json:"size_bytes,omitempty"`
	// External models are managed outside this cache and never downloaded.
	External bool `json:"external,omitempty"`
}

// ProgressFunc reports download progress in bytes.
type ProgressFunc func(done, total int64)

// Manager is the model cache. Safe for sequential use; callers serialize.
type Manager struct {
	dir        string
	httpClient *http.Client
	registry   map[string]ModelInfo
}

// DefaultRegistry lists the models this pipeline knows how to fetch.
func DefaultRegistry() map[string]ModelInfo {
	return map[string]ModelInfo{
		"silero-vad": {
			ID:     "silero-vad",
			Name:   "Silero VAD v5",
			Type:   TypeVAD,
			Source: "https://models.silero.ai/models/en/silero_vad.onnx",
			Files:  []ModelFile{{Path: "silero_vad.onnx"}},
		},
		"xtts-v2": {
			ID:       "xtts-v2",
			Name:     "XTTS v2 (synthesis service)",
			Type:     TypeTTS,
			Source:   "external",
			External: true,
		},
	}
}

// NewManager creates a cache rooted at dir, creating it if needed.
func NewManager(dir string, registry map[string]ModelInfo) (*Manager, error) {
	if dir == "" {
		return nil, fmt.Errorf("model cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create model cache dir: %w", err)
	}
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Manager{
		dir:        dir,
		httpClient: &http.Client{},
		registry:   registry,
	}, nil
}

// GetModelInfo returns the registry entry for a model id.
func (m *Manager) GetModelInfo(id string) (ModelInfo, error) {
	info, ok := m.registry[id]
	if !ok {
		return ModelInfo{}, fmt.Errorf("unknown model %q", id)
	}
	return info, nil
}

// ListModels returns every known model id, sorted.
func (m *Manager) ListModels() []string {
	out := make([]string, 0, len(m.registry))
	for id := range m.registry {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ListCachedModels returns the ids whose files are all present on disk.
func (m *Manager) ListCachedModels() []string {
	var out []string
	for id := range m.registry {
		if m.IsModelCached(id) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// modelDir is the cache directory for one model.
func (m *Manager) modelDir(id string) string {
	return filepath.Join(m.dir, id)
}

// IsModelCached reports whether every file of the model is on disk.
// External models are never considered cached here.
func (m *Manager) IsModelCached(id string) bool {
	info, ok := m.registry[id]
	if !ok || info.External || len(info.Files) == 0 {
		return false
	}
	for _, f := range info.Files {
		if _, err := os.Stat(filepath.Join(m.modelDir(id), f.Path)); err != nil {
			return false
		}
	}
	return true
}

// GetModelPath returns the on-disk path of a cached model's primary file,
// or "" when not cached.
func (m *Manager) GetModelPath(id string) string {
	info, ok := m.registry[id]
	if !ok || len(info.Files) == 0 || !m.IsModelCached(id) {
		return ""
	}
	return filepath.Join(m.modelDir(id), info.Files[0].Path)
}

// EnsureModel downloads the model unless it is already cached, verifying
// checksums where present, and returns the primary file path.
func (m *Manager) EnsureModel(ctx context.Context, id string, progress ProgressFunc) (string, error) {
	info, ok := m.registry[id]
	if !ok {
		return "", fmt.Errorf("unknown model %q", id)
	}
	if info.External {
		return "", fmt.Errorf("model %q is external and is not downloaded here", id)
	}
	if len(info.Files) == 0 {
		return "", fmt.Errorf("model %q has no files", id)
	}
	if m.IsModelCached(id) {
		return m.GetModelPath(id), nil
	}

	if err := os.MkdirAll(m.modelDir(id), 0o755); err != nil {
		return "", fmt.Errorf("failed to create model dir: %w", err)
	}

	for _, f := range info.Files {
		url := info.Source
		if len(info.Files) > 1 {
			url = info.Source + "/" + f.Path
		}
		dest := filepath.Join(m.modelDir(id), f.Path)
		if err := m.download(ctx, url, dest, f, progress); err != nil {
			os.Remove(dest)
			return "", fmt.Errorf("failed to download %s: %w", f.Path, err)
		}
	}
	log.Printf("[Models] cached %s in %s", id, m.modelDir(id))
	return m.GetModelPath(id), nil
}

// download fetches one file and verifies its checksum when declared.
func (m *Manager) download(ctx context.Context, url, dest string, file ModelFile, progress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	hasher := sha256.New()
	total := resp.ContentLength
	var done int64
	buf := make([]byte, 64*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				return err
			}
			hasher.Write(buf[:n])
			done += int64(n)
			if progress != nil {
				progress(done, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return readErr
		}
	}

	if file.SHA256 != "" {
		sum := hex.EncodeToString(hasher.Sum(nil))
		if sum != file.SHA256 {
			return fmt.Errorf("checksum mismatch: got %s want %s", sum, file.SHA256)
		}
	}
	return nil
}

// DeleteModel removes a model's cached files.
func (m *Manager) DeleteModel(id string) error {
	if _, ok := m.registry[id]; !ok {
		return fmt.Errorf("unknown model %q", id)
	}
	return os.RemoveAll(m.modelDir(id))
}
