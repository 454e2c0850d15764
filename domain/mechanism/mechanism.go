package mechanism

// Mechanism is one of a closed set of causal hypotheses for an observed
// perturbation, plus a distinguished Unknown member meaning "no detectable
// mechanistic effect" (the nuisance explanation).
type Mechanism string

const (
	DNADamage             Mechanism = "dna_damage"
	MicrotubuleDisruption Mechanism = "microtubule_disruption"
	ERStress              Mechanism = "er_stress"
	OxidativeStress       Mechanism = "oxidative_stress"
	Unknown               Mechanism = "unknown"
)

// NumChannels is the number of morphology observation channels
// (nuclear area, cytoskeletal texture, mitochondrial intensity).
const NumChannels = 3

// Signature holds the per-mechanism mean fold-change vector and diagonal
// covariance over the observation channels. Signatures are immutable
// constants fit offline against reference compound panels.
type Signature struct {
	Mean [NumChannels]float64
	Var  [NumChannels]float64
}

// signatures is the frozen signature table. Unknown carries a zero mean:
// under that hypothesis any observed shift must be explained by nuisance.
var signatures = map[Mechanism]Signature{
	DNADamage: {
		Mean: [NumChannels]float64{1.20, 0.15, -0.30},
		Var:  [NumChannels]float64{0.18, 0.12, 0.15},
	},
	MicrotubuleDisruption: {
		Mean: [NumChannels]float64{0.10, 1.35, 0.20},
		Var:  [NumChannels]float64{0.12, 0.20, 0.12},
	},
	ERStress: {
		Mean: [NumChannels]float64{-0.40, 0.25, 1.10},
		Var:  [NumChannels]float64{0.15, 0.12, 0.18},
	},
	OxidativeStress: {
		Mean: [NumChannels]float64{0.55, -0.70, 0.65},
		Var:  [NumChannels]float64{0.15, 0.16, 0.15},
	},
	Unknown: {
		Mean: [NumChannels]float64{0, 0, 0},
		Var:  [NumChannels]float64{0.10, 0.10, 0.10},
	},
}

// All returns the full hypothesis set in a stable order, Unknown last.
func All() []Mechanism {
	return []Mechanism{DNADamage, MicrotubuleDisruption, ERStress, OxidativeStress, Unknown}
}

// Candidates returns the real mechanism hypotheses (Unknown excluded).
func Candidates() []Mechanism {
	return []Mechanism{DNADamage, MicrotubuleDisruption, ERStress, OxidativeStress}
}

// SignatureOf returns the frozen signature for a mechanism. The boolean is
// false for mechanisms outside the closed enumeration.
func SignatureOf(m Mechanism) (Signature, bool) {
	sig, ok := signatures[m]
	return sig, ok
}

// String returns the string representation
func (m Mechanism) String() string {
	return string(m)
}

// IsUnknown reports whether this is the no-effect hypothesis.
func (m Mechanism) IsUnknown() bool {
	return m == Unknown
}
