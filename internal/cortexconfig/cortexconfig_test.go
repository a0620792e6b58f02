package cortexconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDefaultsWithoutConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir))
	assert.Equal(t, 200, GetInt(KeyLineBudgetTotal))
	assert.Equal(t, "voyage-3", GetString(KeyEmbeddingModel))
}

func TestInitReadsConfigYaml(t *testing.T) {
	dir := t.TempDir()
	content := "surface:\n  line-budget:\n    total: 500\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	require.NoError(t, Init(dir))
	assert.Equal(t, 500, GetInt(KeyLineBudgetTotal))
}

func TestLoadLocalConfigMissingFileReturnsEmpty(t *testing.T) {
	cfg := LoadLocalConfig(t.TempDir())
	assert.Equal(t, &LocalConfig{}, cfg)
}

func TestLoadLocalConfigParsesFile(t *testing.T) {
	dir := t.TempDir()
	content := "line-budget-total: 300\nembed-model: custom-model\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	cfg := LoadLocalConfig(dir)
	assert.Equal(t, 300, cfg.LineBudgetTotal)
	assert.Equal(t, "custom-model", cfg.EmbeddingModel)
}
