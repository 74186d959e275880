package orchestrator

// DefaultMaxIterations bounds the DECIDE→AUTHORIZE→EXECUTE cycle per user
// turn when the config does not say otherwise.
const DefaultMaxIterations = 5

// DefaultIncompleteAnswer is returned when a turn exhausts its iteration
// bound without the reasoner reaching a final answer.
const DefaultIncompleteAnswer = "I seem to be having trouble resolving your request. Please try rephrasing or contact support."

// Config contains orchestrator configuration.
type Config struct {
	// MaxIterations bounds reasoner consultations per user turn,
	// preventing unbounded tool-calling. Exceeding it forces a DONE
	// transition with IncompleteAnswer.
	// Default: 5.
	MaxIterations int

	// IncompleteAnswer is the answer used when MaxIterations is exceeded.
	// Default: DefaultIncompleteAnswer.
	IncompleteAnswer string
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxIterations:    DefaultMaxIterations,
		IncompleteAnswer: DefaultIncompleteAnswer,
	}
}

// applyDefaults fills zero values in place.
func (c *Config) applyDefaults() {
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.IncompleteAnswer == "" {
		c.IncompleteAnswer = DefaultIncompleteAnswer
	}
}
