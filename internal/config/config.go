package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultProvider = "openrouter"
	DefaultAPIBase  = "https://openrouter.ai/api/v1"
	DefaultModel    = "gpt-4o-mini"

	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.7

	// DefaultMonitorBaud is the serial console rate the firmware uses.
	DefaultMonitorBaud = 115200
)

// Telegram holds the Telegram channel settings pushed to the board.
type Telegram struct {
	Enabled   bool     `mapstructure:"enabled" json:"enabled"`
	Token     string   `mapstructure:"token" json:"token"`
	AllowFrom []string `mapstructure:"allow_from" json:"allow_from"`
}

// Discord holds the Discord channel settings pushed to the board.
type Discord struct {
	Enabled   bool     `mapstructure:"enabled" json:"enabled"`
	Token     string   `mapstructure:"token" json:"token"`
	ChannelID string   `mapstructure:"channel_id" json:"channel_id"`
	AllowFrom []string `mapstructure:"allow_from" json:"allow_from"`
}

// Channels groups the chat channel settings.
type Channels struct {
	Telegram Telegram `mapstructure:"telegram" json:"telegram"`
	Discord  Discord  `mapstructure:"discord" json:"discord"`
}

// Config is the device configuration staged on the host and pushed to the
// board over the serial console. The on-disk format matches the firmware's
// own femtoclaw.json schema.
type Config struct {
	WiFiSSID    string   `mapstructure:"wifi_ssid" json:"wifi_ssid"`
	WiFiPass    string   `mapstructure:"wifi_pass" json:"wifi_pass"`
	LLMProvider string   `mapstructure:"llm_provider" json:"llm_provider"`
	LLMAPIKey   string   `mapstructure:"llm_api_key" json:"llm_api_key"`
	LLMAPIBase  string   `mapstructure:"llm_api_base" json:"llm_api_base"`
	LLMModel    string   `mapstructure:"llm_model" json:"llm_model"`
	MaxTokens   int      `mapstructure:"max_tokens" json:"max_tokens"`
	Temperature float64  `mapstructure:"temperature" json:"temperature"`
	Channels    Channels `mapstructure:"channels" json:"channels"`
}

// Defaults returns the configuration a fresh board would expect.
func Defaults() Config {
	return Config{
		LLMProvider: DefaultProvider,
		LLMAPIBase:  DefaultAPIBase,
		LLMModel:    DefaultModel,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}
}

// Load reads a config file, layering file values and FEMTOCLAW_* env vars
// over the defaults. A missing file yields the defaults; a malformed one
// is an error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetDefault("llm_provider", DefaultProvider)
	v.SetDefault("llm_api_base", DefaultAPIBase)
	v.SetDefault("llm_model", DefaultModel)
	v.SetDefault("max_tokens", DefaultMaxTokens)
	v.SetDefault("temperature", DefaultTemperature)

	v.SetEnvPrefix("femtoclaw")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as indented JSON, creating parent directories as
// needed. The file carries credentials, so it is not group or world
// readable.
func Save(cfg Config, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// DefaultPath returns ~/.config/femtoclaw/femtoclaw.json.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "femtoclaw.json"
	}
	return filepath.Join(home, ".config", "femtoclaw", "femtoclaw.json")
}

// Provider is an LLM provider preset: selecting one fills the API base and
// a sensible default model.
type Provider struct {
	Name    string
	APIBase string
	Model   string
}

// Providers lists the provider presets in display order.
func Providers() []Provider {
	return []Provider{
		{"openrouter", "https://openrouter.ai/api/v1", "openai/gpt-4o-mini"},
		{"openai", "https://api.openai.com/v1", "gpt-4o-mini"},
		{"anthropic", "https://api.anthropic.com/v1", "claude-haiku-4-5-20251001"},
		{"deepseek", "https://api.deepseek.com/v1", "deepseek-chat"},
		{"groq", "https://api.groq.com/openai/v1", "llama-3.1-70b-versatile"},
		{"zhipu", "https://open.bigmodel.cn/api/paas/v4", "glm-4.7"},
		{"ollama", "http://localhost:11434/v1", "llama3"},
	}
}

// LookupProvider finds a preset by name.
func LookupProvider(name string) (Provider, bool) {
	for _, p := range Providers() {
		if p.Name == name {
			return p, true
		}
	}
	return Provider{}, false
}

// ModelPreset is a one-click model choice spanning provider, model and API
// base.
type ModelPreset struct {
	Label    string
	Provider string
	Model    string
	APIBase  string
}

// ModelPresets lists the quick model presets.
func ModelPresets() []ModelPreset {
	return []ModelPreset{
		{"GPT-4o Mini", "openai", "gpt-4o-mini", "https://api.openai.com/v1"},
		{"GPT-4o", "openai", "gpt-4o", "https://api.openai.com/v1"},
		{"Deepseek V3", "openrouter", "deepseek/deepseek-chat", "https://openrouter.ai/api/v1"},
		{"Llama 3.1 70B", "groq", "llama-3.1-70b-versatile", "https://api.groq.com/openai/v1"},
		{"Gemma 2 9B", "groq", "gemma2-9b-it", "https://api.groq.com/openai/v1"},
		{"GLM-4.7", "zhipu", "glm-4.7", "https://open.bigmodel.cn/api/paas/v4"},
		{"Ollama local", "ollama", "llama3", "http://localhost:11434/v1"},
	}
}

// PushCommands renders the WiFi and LLM settings as firmware console
// commands. Empty values are skipped so a partial config never clears
// values already on the board.
func (c Config) PushCommands() []string {
	var cmds []string
	add := func(key, val string) {
		if strings.TrimSpace(val) != "" {
			cmds = append(cmds, fmt.Sprintf("set %s %s", key, val))
		}
	}
	add("wifi_ssid", c.WiFiSSID)
	add("wifi_pass", c.WiFiPass)
	add("llm_provider", c.LLMProvider)
	add("llm_api_key", c.LLMAPIKey)
	add("llm_api_base", c.LLMAPIBase)
	add("llm_model", c.LLMModel)
	return cmds
}

// TelegramCommands renders the Telegram channel settings as firmware
// console commands, ending with an explicit enable or disable.
func (c Channels) TelegramCommands() []string {
	var cmds []string
	if tok := strings.TrimSpace(c.Telegram.Token); tok != "" {
		cmds = append(cmds, "tg token "+tok)
	}
	for _, uid := range c.Telegram.AllowFrom {
		cmds = append(cmds, "tg allow "+uid)
	}
	if c.Telegram.Enabled {
		cmds = append(cmds, "tg enable")
	} else {
		cmds = append(cmds, "tg disable")
	}
	return cmds
}

// DiscordCommands renders the Discord channel settings as firmware console
// commands, ending with an explicit enable or disable.
func (c Channels) DiscordCommands() []string {
	var cmds []string
	if tok := strings.TrimSpace(c.Discord.Token); tok != "" {
		cmds = append(cmds, "dc token "+tok)
	}
	if cid := strings.TrimSpace(c.Discord.ChannelID); cid != "" {
		cmds = append(cmds, "dc channel "+cid)
	}
	for _, uid := range c.Discord.AllowFrom {
		cmds = append(cmds, "dc allow "+uid)
	}
	if c.Discord.Enabled {
		cmds = append(cmds, "dc enable")
	} else {
		cmds = append(cmds, "dc disable")
	}
	return cmds
}
