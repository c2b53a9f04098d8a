package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadManifest_ResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "owls.eml.json", `{"eml:eml":{}}`)
	path := writeFile(t, dir, "manifest.json", `{
		"source": "sims",
		"submissions": [
			{"name": "owls", "eml": "owls.eml.json", "dwc": "https://example.org/owls.dwc.json"},
			{"name": "moose", "eml": "/data/moose.eml.json"}
		]
	}`)

	m, err := LoadManifest(path)
	require.NoError(t, err)

	all := m.Filter(nil)
	require.Len(t, all, 2)
	assert.Equal(t, filepath.Join(dir, "owls.eml.json"), all[0].EML)
	assert.Equal(t, "https://example.org/owls.dwc.json", all[0].DwC)
	assert.Equal(t, "/data/moose.eml.json", all[1].EML)

	only := m.Filter([]string{"moose"})
	require.Len(t, only, 1)
	assert.Equal(t, "moose", only[0].Name)
}

func TestLoadManifest_RequiresEML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "manifest.json", `{"submissions":[{"name":"x"}]}`)
	_, err := LoadManifest(path)
	assert.Error(t, err)
}

func TestFetcher_Pair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`[{"occurrenceID":"o-1"}]`))
	}))
	defer srv.Close()

	eml := writeFile(t, t.TempDir(), "eml.json", `{"eml:eml":{}}`)
	f := &Fetcher{Client: srv.Client()}

	gotEML, gotDwC, err := f.Pair(context.Background(), ManifestEntry{EML: eml, DwC: srv.URL + "/dwc.json"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"eml:eml":{}}`, string(gotEML))
	assert.JSONEq(t, `[{"occurrenceID":"o-1"}]`, string(gotDwC))

	_, _, err = f.Pair(context.Background(), ManifestEntry{EML: eml, DwC: srv.URL + "/missing.json"})
	assert.ErrorContains(t, err, "HTTP 404")

	gotEML, gotDwC, err = f.Pair(context.Background(), ManifestEntry{EML: eml})
	require.NoError(t, err)
	assert.NotNil(t, gotEML)
	assert.Nil(t, gotDwC)
}
