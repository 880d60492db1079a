package config

import (
	"bufio"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Model          Model     `yaml:"model"`
	Filter         Filter    `yaml:"filter"`
	Labels         Labels    `yaml:"labels"`
	PraiseKeywords []string  `yaml:"praise_keywords"`
	InputDirs      []string  `yaml:"input_dirs"`
	Inference      Inference `yaml:"inference"`
	Logging        Logging   `yaml:"logging"`
}

type Model struct {
	Name           string `yaml:"name"`
	Device         string `yaml:"device"`
	MaxTokenLength int    `yaml:"max_token_length"`
}

type Filter struct {
	PositiveThreshold float64  `yaml:"positive_threshold"`
	MinCommentLength  int      `yaml:"min_comment_length"`
	ExcludeAuthors    []string `yaml:"exclude_authors"`
}

// Labels describes the ordered label set the model emits. Score vectors
// returned by the oracle are aligned to Order, so the positive label's
// position is looked up here rather than assumed to be a fixed index.
type Labels struct {
	Order    []string `yaml:"order"`
	Positive string   `yaml:"positive"`
	Neutral  string   `yaml:"neutral"`
}

// Index returns the position of label in the configured order, or -1.
func (l Labels) Index(label string) int {
	for i, name := range l.Order {
		if name == label {
			return i
		}
	}
	return -1
}

type Inference struct {
	URL         string `yaml:"url"`
	OllamaURL   string `yaml:"ollama_url"`
	OllamaModel string `yaml:"ollama_model"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ./config.yaml > embedded defaults (empty path).
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml", nil
	}

	return "", nil
}

// Load builds the effective configuration: embedded defaults, overlaid by the
// YAML file at path (if non-empty), then by KEY=value lines from envFile (if
// it exists), then by process environment variables. The result is validated
// and nothing is written back into the environment.
func Load(path, envFile string) (*Config, error) {
	data := DefaultConfigYAML
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		data = fileData
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}

	overrides, err := readEnvFile(envFile)
	if err != nil {
		return nil, err
	}
	lookup := func(key string) (string, bool) {
		// A real environment variable beats the env file.
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := overrides[key]
		return v, ok
	}
	if err := cfg.applyOverrides(lookup); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parse parses YAML bytes into a Config on top of the embedded defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(DefaultConfigYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing built-in config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// readEnvFile parses KEY=value lines. Blank lines, lines starting with '#',
// and lines without '=' are ignored. Values lose surrounding quotes.
func readEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading env file: %w", err)
	}
	defer f.Close()

	vars := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, "=") {
			continue
		}
		key, value, _ := strings.Cut(line, "=")
		vars[strings.TrimSpace(key)] = stripQuotes(strings.TrimSpace(value))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}
	return vars, nil
}

func stripQuotes(s string) string {
	s = strings.Trim(s, `"`)
	return strings.Trim(s, `'`)
}

// applyOverrides overlays the documented override keys onto the config.
func (c *Config) applyOverrides(lookup func(string) (string, bool)) error {
	if v, ok := lookup("MODEL_NAME"); ok {
		c.Model.Name = v
	}
	if v, ok := lookup("DEVICE"); ok {
		c.Model.Device = v
	}
	if v, ok := lookup("POSITIVE_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid POSITIVE_THRESHOLD %q: %w", v, err)
		}
		c.Filter.PositiveThreshold = f
	}
	if v, ok := lookup("MIN_COMMENT_LENGTH"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MIN_COMMENT_LENGTH %q: %w", v, err)
		}
		c.Filter.MinCommentLength = n
	}
	if v, ok := lookup("MAX_TOKEN_LENGTH"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_TOKEN_LENGTH %q: %w", v, err)
		}
		c.Model.MaxTokenLength = n
	}
	if v, ok := lookup("EXCLUDE_AUTHORS"); ok {
		c.Filter.ExcludeAuthors = SplitAuthors(v)
	}
	if v, ok := lookup("INPUT_DIRS"); ok {
		c.InputDirs = splitList(v)
	}
	if v, ok := lookup("INFERENCE_URL"); ok {
		c.Inference.URL = v
	}
	if v, ok := lookup("OLLAMA_URL"); ok {
		c.Inference.OllamaURL = v
	}
	if v, ok := lookup("OLLAMA_MODEL"); ok {
		c.Inference.OllamaModel = v
	}
	return nil
}

// SplitAuthors parses a comma-separated author list. Quotes around the whole
// string are stripped first, then each element is trimmed; empties dropped.
func SplitAuthors(s string) []string {
	return splitList(stripQuotes(strings.TrimSpace(s)))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ExcludedAuthors returns the exclusion list as a set.
func (c *Config) ExcludedAuthors() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Filter.ExcludeAuthors))
	for _, a := range c.Filter.ExcludeAuthors {
		set[a] = struct{}{}
	}
	return set
}

func (c *Config) validate() error {
	if c.Model.Name == "" {
		return fmt.Errorf("model name must not be empty")
	}
	if c.Model.MaxTokenLength <= 0 {
		return fmt.Errorf("max_token_length must be positive, got %d", c.Model.MaxTokenLength)
	}
	if c.Filter.MinCommentLength < 0 {
		return fmt.Errorf("min_comment_length must not be negative, got %d", c.Filter.MinCommentLength)
	}
	if len(c.Labels.Order) == 0 {
		return fmt.Errorf("labels order must not be empty")
	}
	if c.Labels.Index(c.Labels.Positive) < 0 {
		return fmt.Errorf("positive label %q is not in the label order", c.Labels.Positive)
	}
	if c.Labels.Index(c.Labels.Neutral) < 0 {
		return fmt.Errorf("neutral label %q is not in the label order", c.Labels.Neutral)
	}
	if len(c.InputDirs) == 0 {
		return fmt.Errorf("at least one input directory is required")
	}
	return nil
}
