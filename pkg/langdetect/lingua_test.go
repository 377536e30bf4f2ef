package langdetect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectISO6391(t *testing.T) {
	assert.Equal(t, "fr", DetectISO6391("Bonjour, je voudrais réserver une chambre pour deux nuits, s'il vous plaît."))
	assert.Equal(t, "de", DetectISO6391("Wo ist der Bahnhof? Ich möchte eine Fahrkarte nach Berlin kaufen."))
	assert.Equal(t, "es", DetectISO6391("¿Dónde está la estación de tren más cercana, por favor?"))
}

func TestDetectISO6391ShortSamples(t *testing.T) {
	assert.Equal(t, "", DetectISO6391(""))
	assert.Equal(t, "", DetectISO6391("   "))
	assert.Equal(t, "", DetectISO6391("Hi!"))
	assert.Equal(t, "", DetectISO6391("12345 67890 !!!"))
}
