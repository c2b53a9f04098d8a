package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Manifest lists the submissions to ingest.
type Manifest struct {
	Source      string          `json:"source"`
	Submissions []ManifestEntry `json:"submissions"`

	dir string
}

// ManifestEntry names one EML document and its optional Darwin Core records.
// Locations are http(s) URLs or paths relative to the manifest file.
type ManifestEntry struct {
	Name         string `json:"name"`
	SourceSystem string `json:"source_system,omitempty"`
	EML          string `json:"eml"`
	DwC          string `json:"dwc,omitempty"`
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	for i, e := range m.Submissions {
		if e.EML == "" {
			return nil, fmt.Errorf("manifest entry %d (%s): eml is required", i, e.Name)
		}
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

// Filter returns the entries whose name is in names, or every entry when
// names is empty. Relative paths are resolved against the manifest directory.
func (m *Manifest) Filter(names []string) []ManifestEntry {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if n != "" {
			want[n] = true
		}
	}
	var out []ManifestEntry
	for _, e := range m.Submissions {
		if len(want) > 0 && !want[e.Name] {
			continue
		}
		e.EML = m.resolve(e.EML)
		e.DwC = m.resolve(e.DwC)
		out = append(out, e)
	}
	return out
}

func (m *Manifest) resolve(loc string) string {
	if loc == "" || isURL(loc) || filepath.IsAbs(loc) {
		return loc
	}
	return filepath.Join(m.dir, loc)
}

func isURL(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}

// Fetcher reads submission documents from disk or over HTTP.
type Fetcher struct {
	Client *http.Client
}

// Pair fetches an entry's EML document and, when listed, its DwC records.
func (f *Fetcher) Pair(ctx context.Context, e ManifestEntry) (eml, dwc json.RawMessage, err error) {
	if eml, err = f.Fetch(ctx, e.EML); err != nil {
		return nil, nil, fmt.Errorf("eml: %w", err)
	}
	if e.DwC != "" {
		if dwc, err = f.Fetch(ctx, e.DwC); err != nil {
			return nil, nil, fmt.Errorf("dwc: %w", err)
		}
	}
	return eml, dwc, nil
}

// Fetch returns the bytes at loc.
func (f *Fetcher) Fetch(ctx context.Context, loc string) ([]byte, error) {
	if !isURL(loc) {
		return os.ReadFile(loc)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", loc, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: HTTP %d", loc, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
