package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const emissionsCSV = `State,District,Date,Emission_Index,CO2_ppm,CH4_ppm,SO2_ppm,NOx_ppm,PM2_5,PM10
Odisha,Angul,2024-01-05,400,410,2,10,20,55,100
Odisha,Angul,2024-02-05,420,420,3,11,21,60,110
Jharkhand,Dhanbad,2024-02-07,380,390,1,9,19,50,90
`

const trainingCSV = `State,Max_Height,NDVI,Age_Years,CO2e_Stock_t_ha
Odisha,12,0.8,8,140
Odisha,15,0.9,10,150
`

const registryCSV = `Mine_Name,Available_Land_Ha,Cost_Teak,Cost_Acacia,Cost_Pioneer,Max_Teak_Pct
Angul Mine,120,9,6,3,0.4
`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range map[string]string{
		"emissions.csv": emissionsCSV,
		"training.csv":  trainingCSV,
		"registry.csv":  registryCSV,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}

	cfg := fmt.Sprintf(`datasets:
  emissions_path: %s
  training_path: %s
  registry_path: %s
planner:
  trees: 5
database:
  driver: sqlite
  path: %s
`, filepath.Join(dir, "emissions.csv"), filepath.Join(dir, "training.csv"),
		filepath.Join(dir, "registry.csv"), filepath.Join(dir, "offsets.db"))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSites(t *testing.T) {
	out, err := run(t, "sites", "--config", writeConfig(t))
	require.NoError(t, err)
	assert.Equal(t, "Angul Mine\nDhanbad Mine\n", out)
}

func TestPlan_JSON(t *testing.T) {
	out, err := run(t, "plan", "angul mine", "--format", "json", "--config", writeConfig(t))
	require.NoError(t, err)

	var plan map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	meta := plan["mine_metadata"].(map[string]any)
	assert.Equal(t, "Angul Mine", meta["mine_name"])
	kpis := plan["kpis"].(map[string]any)
	assert.Equal(t, 120.0, kpis["land_available_ha"])
}

func TestPlan_UnknownSite(t *testing.T) {
	_, err := run(t, "plan", "atlantis", "--config", writeConfig(t))
	assert.ErrorContains(t, err, "not found")
}

func TestPlan_RejectsFormat(t *testing.T) {
	_, err := run(t, "plan", "angul", "--format", "docx", "--config", writeConfig(t))
	assert.Error(t, err)
}

func TestHotspots_Store(t *testing.T) {
	out, err := run(t, "hotspots", "--store", "--top", "2", "--config", writeConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "thresholds:")
	assert.Contains(t, out, "SITE")
	assert.Contains(t, out, "Angul Mine")
}

func TestSummaries(t *testing.T) {
	out, err := run(t, "summaries", "--config", writeConfig(t))
	require.NoError(t, err)

	var got struct {
		Monthly []map[string]any `json:"monthly"`
		Used    int              `json:"rows_used"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got.Monthly, 12)
	assert.Equal(t, 3, got.Used)
}
