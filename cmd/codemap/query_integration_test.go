package main_test

import (
	"encoding/json"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_FindsIndexedSymbol(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createGoFixture(t)

	cmd := exec.Command(bin, "index", fixture)
	cmd.Dir = fixture
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "index failed: %s", string(out))

	cmd = exec.Command(bin, "search", "helper")
	cmd.Dir = fixture
	out, err = cmd.CombinedOutput()
	require.NoError(t, err, "search failed: %s", string(out))

	var result struct {
		Command string `json:"command"`
		Results []struct {
			Name string `json:"name"`
			Kind string `json:"kind"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(out, &result))
	assert.Equal(t, "search", result.Command)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "helper", result.Results[0].Name)
}

func TestStatus_ReportsCounts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createGoFixture(t)

	cmd := exec.Command(bin, "index", fixture)
	cmd.Dir = fixture
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "index failed: %s", string(out))

	cmd = exec.Command(bin, "status")
	cmd.Dir = fixture
	out, err = cmd.CombinedOutput()
	require.NoError(t, err, "status failed: %s", string(out))

	var result struct {
		Results map[string]int `json:"results"`
	}
	require.NoError(t, json.Unmarshal(out, &result))
	assert.Equal(t, 1, result.Results["files"])
	assert.Greater(t, result.Results["nodes"], 1)
}

func TestContext_RanksRelevantSymbol(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createGoFixture(t)

	cmd := exec.Command(bin, "index", fixture)
	cmd.Dir = fixture
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "index failed: %s", string(out))

	cmd = exec.Command(bin, "context", "what does helper do")
	cmd.Dir = fixture
	out, err = cmd.CombinedOutput()
	require.NoError(t, err, "context failed: %s", string(out))

	var result struct {
		Results []struct {
			Name string `json:"name"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(out, &result))
	var names []string
	for _, s := range result.Results {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "helper")
}

func TestReindex_WithoutFilesReindexesEverything(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createGoFixture(t)

	cmd := exec.Command(bin, "index", fixture)
	cmd.Dir = fixture
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "index failed: %s", string(out))

	cmd = exec.Command(bin, "reindex")
	cmd.Dir = fixture
	out, err = cmd.CombinedOutput()
	require.NoError(t, err, "reindex failed: %s", string(out))

	var result struct {
		Results map[string]int `json:"results"`
	}
	require.NoError(t, json.Unmarshal(out, &result))
	assert.Equal(t, 1, result.Results["unchanged"])
}

func TestIndex_TextFormat(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createGoFixture(t)

	cmd := exec.Command(bin, "index", fixture)
	cmd.Dir = fixture
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "index failed: %s", string(out))

	cmd = exec.Command(bin, "--format", "text", "search", "helper")
	cmd.Dir = fixture
	out, err = cmd.CombinedOutput()
	require.NoError(t, err, "text search failed: %s", string(out))
	assert.Contains(t, string(out), "helper")
	assert.Contains(t, string(out), "NAME")
}

func TestRoot_InvalidFormatFlag(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createGoFixture(t)

	cmd := exec.Command(bin, "--format", "xml", "status")
	cmd.Dir = fixture
	out, err := cmd.CombinedOutput()
	require.Error(t, err)
	assert.Contains(t, string(out), "invalid format")
}
