package llm

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// LLMClientFactory creates clients for pipeline tasks.
// Use this interface for dependency injection and testing.
type LLMClientFactory interface {
	ForTask(task string) (LLMClient, float64, error)
}

// FactoryDefaults applies when a task is missing from the pipelines file.
type FactoryDefaults struct {
	Provider        string
	Endpoint        string
	Model           string
	OpenAIAPIKey    string
	AnthropicAPIKey string
}

// ClientFactory builds one client per task from a TaskConfig.
type ClientFactory struct {
	tasks    *TaskConfig
	defaults FactoryDefaults
	getenv   func(string) string
	logger   *zap.Logger
}

// NewClientFactory creates a new factory. tasks may be nil, in which case
// every task uses defaults.
func NewClientFactory(tasks *TaskConfig, defaults FactoryDefaults, logger *zap.Logger) *ClientFactory {
	return &ClientFactory{
		tasks:    tasks,
		defaults: defaults,
		getenv:   os.Getenv,
		logger:   logger,
	}
}

// ForTask returns a client for task and the temperature to call it with.
func (f *ClientFactory) ForTask(task string) (LLMClient, float64, error) {
	m, ok := f.tasks.ForTask(task)
	if !ok {
		m = ModelConfig{
			Provider:    f.defaults.Provider,
			BaseURL:     f.defaults.Endpoint,
			Model:       f.defaults.Model,
			Temperature: defaultTemperature(task),
		}
	}

	cfg := &Config{
		Endpoint:  m.BaseURL,
		Model:     m.Model,
		MaxTokens: m.MaxTokens,
		Thinking:  m.Thinking,
		APIKey:    f.apiKey(m),
	}

	var (
		client LLMClient
		err    error
	)
	switch m.NormalizedProvider() {
	case ProviderAnthropic:
		client, err = NewAnthropicClient(cfg, f.logger)
	default:
		client, err = NewClient(cfg, f.logger)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("create client for task %s: %w", task, err)
	}
	return client, m.Temperature, nil
}

func (f *ClientFactory) apiKey(m ModelConfig) string {
	if m.APIKeyEnv != "" {
		if v := f.getenv(m.APIKeyEnv); v != "" {
			return v
		}
	}
	if m.NormalizedProvider() == ProviderAnthropic {
		return f.defaults.AnthropicAPIKey
	}
	return f.defaults.OpenAIAPIKey
}

func defaultTemperature(task string) float64 {
	if task == TaskAnswer {
		return DefaultAnswerTemperature
	}
	return DefaultSQLGenerationTemperature
}

var _ LLMClientFactory = (*ClientFactory)(nil)
