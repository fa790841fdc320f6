package llm

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Task names routed through the pipelines file.
const (
	TaskSQLGeneration = "sql_generation"
	TaskAnswer        = "answer"
)

// Default temperatures when a task is not configured.
const (
	DefaultSQLGenerationTemperature = 0.1
	DefaultAnswerTemperature        = 0.3
)

// Providers understood by the factory. Anything else is treated as an
// OpenAI-compatible endpoint.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ModelConfig describes one named model entry under llms:.
type ModelConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	// APIKeyEnv names the environment variable holding this model's key.
	// Keys never live in the file itself.
	APIKeyEnv string `yaml:"api_key_env"`
	Thinking  *bool  `yaml:"thinking"`
}

// PipelineTask routes a task name to a model entry.
type PipelineTask struct {
	Name string `yaml:"name"`
	LLM  string `yaml:"llm"`
}

// TaskConfig is the parsed pipelines file:
//
//	llms:
//	  fast:
//	    provider: openai
//	    base_url: https://api.openai.com/v1
//	    model: gpt-4o-mini
//	    temperature: 0.1
//	pipelines:
//	  - name: sql_generation
//	    llm: fast
type TaskConfig struct {
	LLMs      map[string]ModelConfig `yaml:"llms"`
	Pipelines []PipelineTask         `yaml:"pipelines"`
}

// LoadTaskConfig reads and validates a pipelines file.
func LoadTaskConfig(path string) (*TaskConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read llm task config: %w", err)
	}
	return ParseTaskConfig(data)
}

// ParseTaskConfig parses pipelines YAML. Every task must reference a
// declared model and task names must be unique.
func ParseTaskConfig(data []byte) (*TaskConfig, error) {
	var cfg TaskConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse llm task config: %w", err)
	}

	for name, m := range cfg.LLMs {
		if strings.TrimSpace(m.Model) == "" {
			return nil, fmt.Errorf("llm %q: model is required", name)
		}
	}

	seen := make(map[string]bool, len(cfg.Pipelines))
	for _, task := range cfg.Pipelines {
		if task.Name == "" {
			return nil, fmt.Errorf("pipeline entry without a name")
		}
		if seen[task.Name] {
			return nil, fmt.Errorf("task %q declared twice", task.Name)
		}
		seen[task.Name] = true
		if _, ok := cfg.LLMs[task.LLM]; !ok {
			return nil, fmt.Errorf("llm %q referenced by task %q not found in llms config", task.LLM, task.Name)
		}
	}
	return &cfg, nil
}

// ForTask returns the model entry routed to task.
func (c *TaskConfig) ForTask(task string) (ModelConfig, bool) {
	if c == nil {
		return ModelConfig{}, false
	}
	for _, t := range c.Pipelines {
		if t.Name == task {
			m, ok := c.LLMs[t.LLM]
			return m, ok
		}
	}
	return ModelConfig{}, false
}

// NormalizedProvider returns the lowercase provider, defaulting to openai.
func (m ModelConfig) NormalizedProvider() string {
	p := strings.ToLower(strings.TrimSpace(m.Provider))
	if p == "" {
		return ProviderOpenAI
	}
	return p
}
