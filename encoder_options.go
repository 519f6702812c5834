package fleece

// encoderConfig holds Encoder construction-time flags (§4.E "Flags").
type encoderConfig struct {
	uniqueStrings bool
	sortKeys      bool
}

func defaultEncoderConfig() encoderConfig {
	return encoderConfig{uniqueStrings: true, sortKeys: true}
}

// EncoderOption configures a new Encoder. See WithUniqueStrings and
// WithSortKeys.
type EncoderOption func(*encoderConfig)

// WithUniqueStrings toggles string interning (default true). When enabled,
// out-of-line string payloads between kNarrow and kMaxSharedStringSize
// bytes are written once and referenced by pointer on repeat.
func WithUniqueStrings(enabled bool) EncoderOption {
	return func(c *encoderConfig) {
		c.uniqueStrings = enabled
	}
}

// WithSortKeys toggles dict key sorting on close (default true). When
// enabled, a dict's keys are always emitted in ascending byte-lexicographic
// order regardless of write order.
func WithSortKeys(enabled bool) EncoderOption {
	return func(c *encoderConfig) {
		c.sortKeys = enabled
	}
}
