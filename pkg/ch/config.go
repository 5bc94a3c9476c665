package ch

// Config holds the tuning parameters for Contraction Hierarchies
// preprocessing. The zero value is not usable directly; start from
// DefaultConfig and apply Options.
type Config struct {
	// DifferenceFactor weighs (pruned shortcuts - relevant edges) in the
	// priority formula.
	DifferenceFactor float64
	// DepthFactor weighs a vertex's hierarchy depth in the priority formula.
	DepthFactor float64
	// ContractedFactor weighs a vertex's contracted-neighbour count.
	ContractedFactor float64

	// QueueMissWindow is the number of consecutive misses (pops whose
	// recomputed priority differs from the stored one) the lazy priority
	// queue tolerates before it discards itself and recomputes every
	// uncontracted vertex's priority from scratch. Discarded entries for
	// already-contracted vertices are not counted.
	QueueMissWindow int

	// ShortcutEqualityTolerance is the absolute difference below which a
	// shortcut's forward and backward weight are treated as equal and
	// stored as a single bidirectional edge instead of two directional
	// ones. Used for both the meta-graph merge rule and the witness
	// pruning comparison — the source this package is modeled on
	// duplicated the constant across two types, which this package
	// avoids by keeping a single Config field.
	ShortcutEqualityTolerance float64

	// WitnessMaxSettled bounds how many vertices a single neighbour
	// witness search (C3) will settle before giving up.
	WitnessMaxSettled int
	// WitnessMaxHops bounds how many hops a neighbour witness search
	// travels from its source.
	WitnessMaxHops int
}

// DefaultConfig returns the tuning parameters documented for the
// reference preprocessor.
func DefaultConfig() Config {
	return Config{
		DifferenceFactor:          5,
		DepthFactor:               5,
		ContractedFactor:          5,
		QueueMissWindow:           80,
		ShortcutEqualityTolerance: 0.1,
		WitnessMaxSettled:         500,
		WitnessMaxHops:            2,
	}
}

// Option configures a Config in place.
type Option func(*Config)

func WithDifferenceFactor(f float64) Option { return func(c *Config) { c.DifferenceFactor = f } }

func WithDepthFactor(f float64) Option { return func(c *Config) { c.DepthFactor = f } }

func WithContractedFactor(f float64) Option { return func(c *Config) { c.ContractedFactor = f } }

func WithQueueMissWindow(k int) Option { return func(c *Config) { c.QueueMissWindow = k } }

func WithShortcutEqualityTolerance(e float64) Option {
	return func(c *Config) { c.ShortcutEqualityTolerance = e }
}

func WithWitnessMaxSettled(n int) Option { return func(c *Config) { c.WitnessMaxSettled = n } }

func WithWitnessMaxHops(n int) Option { return func(c *Config) { c.WitnessMaxHops = n } }
