package mechanism

import "fmt"

// NuisanceModel is a structured account of non-mechanistic variation:
// mean shifts from context, pipeline, and contact/density sources, plus
// variance inflation from temporal artifacts, biological heterogeneity,
// context, pipeline, and contact effects.
type NuisanceModel struct {
	ContextShift  [NumChannels]float64 `json:"context_shift"`
	PipelineShift [NumChannels]float64 `json:"pipeline_shift"`
	ContactShift  [NumChannels]float64 `json:"contact_shift"`

	ArtifactVar      float64 `json:"artifact_var"`
	HeterogeneityVar float64 `json:"heterogeneity_var"`
	ContextVar       float64 `json:"context_var"`
	PipelineVar      float64 `json:"pipeline_var"`
	ContactVar       float64 `json:"contact_var"`
}

// Validate checks the variance components are non-negative.
func (n NuisanceModel) Validate() error {
	for name, v := range map[string]float64{
		"artifact_var":      n.ArtifactVar,
		"heterogeneity_var": n.HeterogeneityVar,
		"context_var":       n.ContextVar,
		"pipeline_var":      n.PipelineVar,
		"contact_var":       n.ContactVar,
	} {
		if v < 0 {
			return fmt.Errorf("nuisance model %s must be >= 0, got %f", name, v)
		}
	}
	return nil
}

// TotalMeanShift returns the vector sum of all shift sources.
func (n NuisanceModel) TotalMeanShift() [NumChannels]float64 {
	var total [NumChannels]float64
	for i := 0; i < NumChannels; i++ {
		total[i] = n.ContextShift[i] + n.PipelineShift[i] + n.ContactShift[i]
	}
	return total
}

// TotalVarInflation returns the scalar sum of all variance components.
func (n NuisanceModel) TotalVarInflation() float64 {
	return n.ArtifactVar + n.HeterogeneityVar + n.ContextVar + n.PipelineVar + n.ContactVar
}

// NuisanceFraction returns the share of variance inflation attributable to
// removable nuisance sources. Biological heterogeneity is excluded: it is
// real subject-to-subject variation, not an artifact a wash step can fix.
func (n NuisanceModel) NuisanceFraction() float64 {
	total := n.TotalVarInflation()
	if total <= 0 {
		return 0
	}
	return (total - n.HeterogeneityVar) / total
}
