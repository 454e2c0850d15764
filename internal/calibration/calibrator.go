package calibration

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync"

	"goassay/domain/belief"
	"goassay/domain/core"
	"goassay/internal/errors"
)

// Model is the frozen calibrator artifact: logistic-regression coefficients
// fit offline against empirical correctness, stratified by nuisance level so
// the fit learns belief geometry rather than a mechanism-specific shortcut.
// The runtime only evaluates it; fitting lives in the offline pipeline.
type Model struct {
	Version          string                  `json:"version"`
	IndicatorVersion belief.IndicatorVersion `json:"indicator_version"`

	Intercept         float64 `json:"intercept"`
	WTopProbability   float64 `json:"w_top_probability"`
	WMargin           float64 `json:"w_margin"`
	WEntropy          float64 `json:"w_entropy"`
	WNuisance         float64 `json:"w_nuisance"`
	WElapsedHours     float64 `json:"w_elapsed_hours"`
	WRelativeDose     float64 `json:"w_relative_dose"`
	WViability        float64 `json:"w_viability"`

	// Strata documents the nuisance bands the fit was stratified over.
	Strata []Stratum `json:"strata,omitempty"`
}

// Stratum records fit metadata for one nuisance band.
type Stratum struct {
	NuisanceLow  float64 `json:"nuisance_low"`
	NuisanceHigh float64 `json:"nuisance_high"`
	Samples      int     `json:"samples"`
	Brier        float64 `json:"brier"`
}

// Calibrator evaluates a loaded Model. It is invoked on every prefix rollout
// during search, so the model is loaded at most once and reused; Predict
// before Load fails with core.ErrCalibratorNotReady.
type Calibrator struct {
	mu     sync.RWMutex
	model  *Model
	loaded bool
}

// New returns an empty, not-yet-loaded calibrator.
func New() *Calibrator {
	return &Calibrator{}
}

// NewFromModel returns a ready calibrator around an in-memory model.
func NewFromModel(m Model) *Calibrator {
	return &Calibrator{model: &m, loaded: true}
}

// Load reads and freezes a model artifact from disk. Calling Load twice is
// an error: a mid-search model swap would make confidences incomparable.
func (c *Calibrator) Load(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return errors.CalibrationError("calibrator model already loaded")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading calibrator model %s", path)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("%w: %v", core.ErrModelCorrupt, err)
	}
	if m.IndicatorVersion == "" {
		return fmt.Errorf("%w: missing indicator_version", core.ErrModelCorrupt)
	}

	c.model = &m
	c.loaded = true
	return nil
}

// Ready reports whether a model has been loaded.
func (c *Calibrator) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// IndicatorVersion returns the nuisance indicator the model was fit against.
func (c *Calibrator) IndicatorVersion() (belief.IndicatorVersion, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return "", core.ErrCalibratorNotReady
	}
	return c.model.IndicatorVersion, nil
}

// PredictConfidence maps a belief state to a calibrated probability of
// correctness in [0,1].
func (c *Calibrator) PredictConfidence(state belief.State) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return 0, core.ErrCalibratorNotReady
	}
	m := c.model

	if state.IndicatorVersion != "" && state.IndicatorVersion != m.IndicatorVersion {
		return 0, fmt.Errorf("%w: belief uses %s but model was fit on %s",
			core.ErrCalibratorNotReady, state.IndicatorVersion, m.IndicatorVersion)
	}

	z := m.Intercept +
		m.WTopProbability*state.TopProbability +
		m.WMargin*state.Margin +
		m.WEntropy*state.Entropy +
		m.WNuisance*state.NuisanceIndicator
	if state.Context != nil {
		z += m.WElapsedHours*state.Context.ElapsedHours +
			m.WRelativeDose*state.Context.RelativeDose +
			m.WViability*state.Context.Viability
	}

	return logistic(z), nil
}

func logistic(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// DefaultModel is a conservative identity-leaning fit used by the CLI and
// tests when no artifact is supplied: confidence tracks posterior top
// probability and margin, discounted by entropy and nuisance.
func DefaultModel() Model {
	return Model{
		Version:          "dev-default",
		IndicatorVersion: belief.IndicatorPosterior,
		Intercept:        -2.1,
		WTopProbability:  4.2,
		WMargin:          1.1,
		WEntropy:         -0.6,
		WNuisance:        -1.8,
		WViability:       0.4,
	}
}
