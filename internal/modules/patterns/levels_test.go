package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var levelSeries = []float64{10, 11, 12, 11, 10, 11, 12, 13, 14, 13, 12, 13, 14, 15, 14, 13, 12, 12.2, 12.3, 12.4}

func TestFindLevels(t *testing.T) {
	bars := peakBars(levelSeries)

	lv := FindLevels(bars, 11.9, 2)
	assert.Equal(t, 11.0, lv.Support)
	assert.Equal(t, 12.0, lv.Resistance)

	lv = FindLevels(bars, 20, 2)
	assert.Equal(t, 11.0, lv.Support)
	assert.Zero(t, lv.Resistance, "nothing above the highest swing")

	lv = FindLevels(bars, 5, 2)
	assert.Zero(t, lv.Support)
	assert.Equal(t, 12.0, lv.Resistance)
}

func TestDetectLevels(t *testing.T) {
	bars := peakBars(levelSeries)

	// last close 11.9: resistance 12 is 0.8% away, support 11 is 7.6% away
	found := DetectLevels(bars, 2, DefaultLevelThreshold)
	assert.Equal(t, []string{NameNearResistance}, names(found))
	assert.Equal(t, 10.0, found[0].Weight)
	assert.InDelta(t, 0.1/11.9, found[0].Details["distance"], 1e-12)

	found = DetectLevels(bars, 2, 0.1)
	assert.Equal(t, []string{NameNearSupport, NameNearResistance}, names(found))

	assert.Nil(t, DetectLevels(bars[:10], 2, DefaultLevelThreshold))
}
