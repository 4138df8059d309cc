package ranking

import "fmt"

// weightEpsilon is the tolerance for the fusion-weight sum check.
const weightEpsilon = 1e-9

// DefaultEvidenceLimit caps the evidence tokens emitted per candidate.
const DefaultEvidenceLimit = 10

// Config holds the funnel parameters. It is an immutable value threaded
// through the orchestrator into each stage call; stages never read ambient
// state.
type Config struct {
	// KA, KB, KC are the stage output caps. KA >= KB >= KC >= 1.
	KA int
	KB int
	KC int

	// LexicalK1 and LexicalB are BM25 term-saturation and length
	// normalization parameters, passed to lexical searchers that honor them.
	LexicalK1 float64
	LexicalB  float64

	// WeightLexical and WeightDense are the fusion weights. They must sum
	// to 1.0 within weightEpsilon.
	WeightLexical float64
	WeightDense   float64

	// Workers is the per-stage scoring pool size. Zero means GOMAXPROCS.
	Workers int

	// EvidenceLimit caps evidence tokens per rescored candidate. Zero
	// disables evidence emission.
	EvidenceLimit int
}

// DefaultConfig returns the reference funnel parameters.
func DefaultConfig() Config {
	return Config{
		KA:            200,
		KB:            50,
		KC:            10,
		LexicalK1:     0.9,
		LexicalB:      0.4,
		WeightLexical: 0.5,
		WeightDense:   0.5,
		EvidenceLimit: DefaultEvidenceLimit,
	}
}

// Validate checks the configuration. Any error here is fatal and must be
// reported before the first stage runs.
func (c Config) Validate() error {
	if c.KA < 1 || c.KB < 1 || c.KC < 1 {
		return fmt.Errorf("stage caps must be positive, got K_A=%d K_B=%d K_C=%d", c.KA, c.KB, c.KC)
	}
	if c.KA < c.KB || c.KB < c.KC {
		return fmt.Errorf("stage caps must narrow monotonically, got K_A=%d K_B=%d K_C=%d", c.KA, c.KB, c.KC)
	}
	if c.WeightLexical < 0 || c.WeightDense < 0 {
		return fmt.Errorf("fusion weights must be non-negative, got lexical=%f dense=%f", c.WeightLexical, c.WeightDense)
	}
	if diff := c.WeightLexical + c.WeightDense - 1.0; diff > weightEpsilon || diff < -weightEpsilon {
		return fmt.Errorf("fusion weights must sum to 1.0, got lexical=%f dense=%f", c.WeightLexical, c.WeightDense)
	}
	if c.LexicalK1 < 0 {
		return fmt.Errorf("lexical k1 must be non-negative, got %f", c.LexicalK1)
	}
	if c.LexicalB < 0 || c.LexicalB > 1 {
		return fmt.Errorf("lexical b must be in [0,1], got %f", c.LexicalB)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if c.EvidenceLimit < 0 {
		return fmt.Errorf("evidence limit must be non-negative, got %d", c.EvidenceLimit)
	}
	return nil
}
