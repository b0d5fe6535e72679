package patterns

import (
	"github.com/aristath/advisor/internal/domain"
	"github.com/rs/zerolog"
)

// Config tunes the detectors
type Config struct {
	SwingLookback  int
	LevelThreshold float64
	ProfileLevels  int
}

// DefaultConfig returns the standard detector settings
func DefaultConfig() Config {
	return Config{
		SwingLookback:  DefaultSwingLookback,
		LevelThreshold: DefaultLevelThreshold,
		ProfileLevels:  DefaultProfileLevels,
	}
}

// Detector runs every pattern recogniser over a series
type Detector struct {
	cfg Config
	log zerolog.Logger
}

// NewDetector creates a detector; zero config fields take their defaults
func NewDetector(cfg Config, log zerolog.Logger) *Detector {
	def := DefaultConfig()
	if cfg.SwingLookback <= 0 {
		cfg.SwingLookback = def.SwingLookback
	}
	if cfg.LevelThreshold <= 0 {
		cfg.LevelThreshold = def.LevelThreshold
	}
	if cfg.ProfileLevels < 2 {
		cfg.ProfileLevels = def.ProfileLevels
	}
	return &Detector{
		cfg: cfg,
		log: log.With().Str("component", "patterns").Logger(),
	}
}

// Detect runs all detectors. A detector that panics is skipped.
func (d *Detector) Detect(symbol string, bars []domain.Bar) Result {
	var result Result

	d.run(symbol, "candlestick", func() {
		result.Patterns = append(result.Patterns, DetectCandlesticks(bars)...)
	})
	d.run(symbol, "chart", func() {
		result.Patterns = append(result.Patterns, DetectChartPatterns(bars, d.cfg.SwingLookback)...)
	})
	d.run(symbol, "levels", func() {
		result.Patterns = append(result.Patterns, DetectLevels(bars, d.cfg.SwingLookback, d.cfg.LevelThreshold)...)
	})
	d.run(symbol, "volume_profile", func() {
		vp := CalculateVolumeProfile(bars, d.cfg.ProfileLevels)
		if vp == nil {
			return
		}
		vp.Position = vp.Classify(bars[len(bars)-1].Close)
		result.Profile = vp
		result.Patterns = append(result.Patterns, profilePattern(vp))
	})

	return result
}

func (d *Detector) run(symbol, detector string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Debug().
				Str("symbol", symbol).
				Str("detector", detector).
				Interface("panic", r).
				Msg("Pattern detector panicked")
		}
	}()
	fn()
}
