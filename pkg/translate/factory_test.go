package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRegistryDefaultOrder(t *testing.T) {
	r, err := BuildRegistry(Config{Logger: quietLogger(), OnDeviceProbe: NeverCapable})
	require.NoError(t, err)

	assert.Equal(t, DefaultProviderOrder, r.Names())

	// Keyless providers only.
	var available []string
	for _, p := range r.AvailableProviders() {
		available = append(available, p.Name())
	}
	assert.Equal(t, []string{ProviderMyMemory, ProviderGoogleFree, ProviderLibreTranslate}, available)
}

func TestBuildRegistryWithCredentials(t *testing.T) {
	r, err := BuildRegistry(Config{
		Order:             []string{ProviderAzure, ProviderGoogleCloud},
		GoogleCloudAPIKey: "k",
		AzureKey:          "k",
		AzureRegion:       "eastus",
		Logger:            quietLogger(),
	})
	require.NoError(t, err)
	assert.Len(t, r.AvailableProviders(), 2)
	assert.Equal(t, []string{ProviderAzure, ProviderGoogleCloud}, r.Names())
}

func TestBuildRegistryRejectsDuplicatesAndUnknown(t *testing.T) {
	_, err := BuildRegistry(Config{Order: []string{ProviderMyMemory, ProviderMyMemory}, Logger: quietLogger()})
	assert.Error(t, err)

	_, err = BuildRegistry(Config{Order: []string{"bing"}, Logger: quietLogger()})
	assert.Error(t, err)
}

func TestParseProviderOrder(t *testing.T) {
	order, err := ParseProviderOrder(" MyMemory, googlefree ,,azure")
	require.NoError(t, err)
	assert.Equal(t, []string{ProviderMyMemory, ProviderGoogleFree, ProviderAzure}, order)

	_, err = ParseProviderOrder("mymemory,deepl")
	assert.Error(t, err)
}
