package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carbon-offset/offset-portal/offset-portal-backend/internal/config"
)

const emissionsCSV = `State,District,Date,Emission_Index
Odisha,Angul,2024-01-05,400
Odisha,Angul,2024-02-05,420
`

const trainingCSV = `State,Max_Height,NDVI,Age_Years,CO2e_Stock_t_ha
Odisha,12,0.8,8,140
Odisha,15,0.9,10,150
`

const registryCSV = `Mine_Name,Available_Land_Ha,Cost_Teak,Cost_Acacia,Cost_Pioneer,Max_Teak_Pct
Angul Mine,120,9,6,3,0.4
`

func writeDatasets(t *testing.T) config.DatasetsConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DatasetsConfig{
		EmissionsPath: filepath.Join(dir, "emissions.csv"),
		TrainingPath:  filepath.Join(dir, "training.csv"),
		RegistryPath:  filepath.Join(dir, "registry.csv"),
	}
	require.NoError(t, os.WriteFile(cfg.EmissionsPath, []byte(emissionsCSV), 0o600))
	require.NoError(t, os.WriteFile(cfg.TrainingPath, []byte(trainingCSV), 0o600))
	require.NoError(t, os.WriteFile(cfg.RegistryPath, []byte(registryCSV), 0o600))
	return cfg
}

func TestNeedsS3(t *testing.T) {
	assert.False(t, NeedsS3(config.DatasetsConfig{EmissionsPath: "data/a.csv"}))
	assert.True(t, NeedsS3(config.DatasetsConfig{EmissionsPath: "data/a.csv", RegistryPath: "s3://bucket/registry.csv"}))
}

func TestTrainOptions(t *testing.T) {
	opts := TrainOptions(config.PlannerConfig{Trees: 10, FallbackRegions: []string{"Odisha"}}, zap.NewNop())
	assert.Equal(t, 10, opts.Forest.Trees)
	assert.Equal(t, uint64(42), opts.Forest.Seed)
	assert.Equal(t, []string{"Odisha"}, opts.Fallback.Preferred)
}

func TestLoad(t *testing.T) {
	cfg := config.Default()
	cfg.Datasets = writeDatasets(t)
	cfg.Planner.Trees = 5

	tables, p, err := Load(context.Background(), cfg, nil, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, tables.Emissions.Rows, 2)
	assert.Equal(t, []string{"Angul Mine"}, p.Sites())

	result, err := p.Plan("angul")
	require.NoError(t, err)
	assert.Equal(t, "Angul Mine", result.Site)
}

func TestLoad_MissingDataset(t *testing.T) {
	cfg := config.Default()
	cfg.Datasets = writeDatasets(t)
	cfg.Datasets.TrainingPath = filepath.Join(t.TempDir(), "absent.csv")

	_, _, err := Load(context.Background(), cfg, nil, zap.NewNop())
	require.Error(t, err)
	assert.True(t, IsMissingData(err))
}
