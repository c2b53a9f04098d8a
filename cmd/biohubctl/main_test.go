package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDwC = `{
  "occurrence": [
    {"occurrenceID": "occ-1", "taxonID": "m-alam", "decimalLatitude": 49.5, "decimalLongitude": -120.1},
    {"occurrenceID": "occ-2", "taxonID": "M-DEER", "decimalLatitude": 50.2, "decimalLongitude": -121.3},
    {"occurrenceID": "occ-3", "taxonID": "M-DEER"}
  ]
}`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestTransformSecure_MasksDenylisted(t *testing.T) {
	path := writeFile(t, "dwc.json", sampleDwC)

	stdout, stderr, err := execute(t, "transform", "secure", path)
	require.NoError(t, err)

	var out []securedFeature
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out, 2)

	assert.Equal(t, "occ-1", out[0].ID)
	assert.True(t, out[0].Restricted)
	assert.JSONEq(t, `{}`, string(out[0].Secured))

	assert.Equal(t, "occ-2", out[1].ID)
	assert.False(t, out[1].Restricted)
	assert.Contains(t, string(out[1].Secured), `"Point"`)

	assert.Contains(t, stderr, "occ-3")
}

func TestTransformSecure_RulesFile(t *testing.T) {
	dwc := writeFile(t, "dwc.json", sampleDwC)
	rules := writeFile(t, "rules.yaml", "denylist:\n  - M-DEER\n")

	stdout, _, err := execute(t, "transform", "secure", "--rules", rules, dwc)
	require.NoError(t, err)

	var out []securedFeature
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out, 2)
	assert.False(t, out[0].Restricted)
	assert.True(t, out[1].Restricted)
}

func TestClassify(t *testing.T) {
	stdout, _, err := execute(t, "transform", "classify", " b-spow ", "M-DEER")
	require.NoError(t, err)

	var out map[string]bool
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.True(t, out[" b-spow "])
	assert.False(t, out["M-DEER"])
}

func TestTransformOccurrences_BadJSON(t *testing.T) {
	path := writeFile(t, "bad.json", "{not json")

	_, _, err := execute(t, "transform", "occurrences", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestTransformMetadata_MissingFile(t *testing.T) {
	_, _, err := execute(t, "transform", "metadata", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read")
}
