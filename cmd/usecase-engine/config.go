package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/usecase-engine/internal/secrets"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

const envPrefix = "USECASE_ENGINE"

// optionalKeys have no default but must still be known to viper so that
// environment variables can set them.
var optionalKeys = []string{
	"ai.api_key",
	"ai.base_url",
	"search.searxng_url",
	"search.google_api_key",
	"search.google_engine_id",
	"search.redis_addr",
	"publish.bucket",
	"publish.prefix",
	"publish.region",
}

// loadConfig resolves the pipeline configuration from defaults, the config
// file, USECASE_ENGINE_* environment variables and bound flags, in
// increasing precedence.
func loadConfig(v *viper.Viper) (types.PipelineConfig, error) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := setDefaults(v); err != nil {
		return types.PipelineConfig{}, err
	}

	var c types.PipelineConfig
	if err := v.Unmarshal(&c); err != nil {
		return types.PipelineConfig{}, fmt.Errorf("decoding configuration: %w", err)
	}
	switch c.AI.Provider {
	case types.ProviderOpenAI, types.ProviderAnthropic:
	default:
		return types.PipelineConfig{}, fmt.Errorf("unsupported provider %q", c.AI.Provider)
	}
	return c, nil
}

// setDefaults registers every key of DefaultPipelineConfig with v.
func setDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(types.DefaultPipelineConfig())
	if err != nil {
		return fmt.Errorf("encoding defaults: %w", err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("decoding defaults: %w", err)
	}
	for key, val := range flatten("", m) {
		v.SetDefault(key, val)
	}
	for _, key := range optionalKeys {
		v.SetDefault(key, "")
	}
	return nil
}

func flatten(prefix string, m map[string]any) map[string]any {
	out := make(map[string]any)
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			for sk, sv := range flatten(key, sub) {
				out[sk] = sv
			}
			continue
		}
		out[key] = val
	}
	return out
}

// bindFlags maps config keys to persistent flag names.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, name := range keys {
		if f := cmd.PersistentFlags().Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

// applySecrets fills credentials the configuration left empty.
func applySecrets(c *types.PipelineConfig, s secrets.Set) {
	switch c.AI.Provider {
	case types.ProviderAnthropic:
		c.AI.APIKey = s.Default(secrets.AnthropicKey, c.AI.APIKey)
	default:
		c.AI.APIKey = s.Default(secrets.OpenAIKey, c.AI.APIKey)
	}
	c.Search.GoogleAPIKey = s.Default(secrets.GoogleCSEKey, c.Search.GoogleAPIKey)
	c.Search.GoogleEngineID = s.Default(secrets.GoogleCSEID, c.Search.GoogleEngineID)
	c.Search.SearxngURL = s.Default(secrets.SearxngURLKey, c.Search.SearxngURL)
}
