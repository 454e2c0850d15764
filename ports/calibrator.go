package ports

import (
	"goassay/domain/belief"
)

// CalibratorPort maps belief features to an empirically grounded probability
// of correctness in [0,1]. Implementations are frozen at fit time and loaded
// once per search session; prediction before load must fail loudly rather
// than fabricate confidence.
type CalibratorPort interface {
	PredictConfidence(state belief.State) (float64, error)
}
