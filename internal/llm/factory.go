package llm

import "log/slog"

// NewThinker returns an OpenAI thinker when an API key is configured and
// the template thinker otherwise.
func NewThinker(cfg OpenAIConfig, logger *slog.Logger) Thinker {
	if cfg.APIKey == "" {
		return StubThinker{}
	}
	return NewOpenAIThinker(cfg, logger)
}
