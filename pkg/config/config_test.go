package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dasmlab/tripglot/pkg/translate"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50051, cfg.GRPCPort)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 500, cfg.ChunkThreshold)
	assert.Equal(t, 400, cfg.ChunkBudget)
	assert.Equal(t, 100*time.Millisecond, cfg.ChunkDelay)
	assert.Equal(t, 15*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 5, cfg.BatchSize)
	assert.Equal(t, "mymemory", cfg.LastResortProvider)

	pc := cfg.Providers(nil)
	assert.Equal(t, translate.DefaultProviderOrder, pc.Order)
	assert.Equal(t, "https://libretranslate.com", pc.LibreTranslateURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PROVIDER_ORDER", "libretranslate, mymemory")
	t.Setenv("CHUNK_DELAY", "250ms")
	t.Setenv("AZURE_TRANSLATOR_KEY", "k")
	t.Setenv("AZURE_TRANSLATOR_REGION", "eastus")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.ChunkDelay)
	pc := cfg.Providers(nil)
	assert.Equal(t, []string{"libretranslate", "mymemory"}, pc.Order)
	assert.Equal(t, "eastus", pc.AzureRegion)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"budget over threshold", map[string]string{"CHUNK_BUDGET": "600"}},
		{"unknown provider", map[string]string{"PROVIDER_ORDER": "mymemory,deepl"}},
		{"empty order", map[string]string{"PROVIDER_ORDER": " , "}},
		{"unknown last resort", map[string]string{"LAST_RESORT_PROVIDER": "bing"}},
		{"azure key without region", map[string]string{"AZURE_TRANSLATOR_KEY": "k"}},
		{"same ports", map[string]string{"HTTP_PORT": "50051"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}},
		{"zero batch", map[string]string{"BATCH_SIZE": "0"}},
		{"zero concurrency", map[string]string{"CHUNK_CONCURRENCY": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestCORSAllowedOriginsList(t *testing.T) {
	cfg := &Config{CORSAllowedOrigins: "https://a.example, https://b.example,https://a.example,"}
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOriginsList())
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TRIPGLOT_TEST_VALUE=from-file\n"), 0o600))
	t.Setenv("TRIPGLOT_TEST_VALUE", "")
	os.Unsetenv("TRIPGLOT_TEST_VALUE")

	loaded, err := LoadEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, loaded)
	assert.Equal(t, "from-file", os.Getenv("TRIPGLOT_TEST_VALUE"))

	_, err = LoadEnvFile(filepath.Join(dir, "missing.env"))
	assert.Error(t, err)
}

func TestLoadEnvFileMissingDefault(t *testing.T) {
	chdir(t, t.TempDir())
	loaded, err := LoadEnvFile("")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
