package batch

// Config holds configuration for artifact processing
type Config struct {
	Model      string // runtime model that generates the issues
	SkipBinary bool   // skip files with binary content in directory mode
}

// DefaultConfig returns a default configuration for artifact processing
func DefaultConfig() Config {
	return Config{
		Model: "Britney",
	}
}
