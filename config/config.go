package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/maastricht-university/patient-pulse/wheel"
)

type Identity struct {
	URL      string `mapstructure:"url"`
	LoginURL string `mapstructure:"login_url"`
	Token    string `mapstructure:"token"`
}

type Extraction struct {
	URL     string        `mapstructure:"url"`
	Model   string        `mapstructure:"model"`
	App     string        `mapstructure:"app"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Services struct {
	Identity   Identity   `mapstructure:"identity"`
	Extraction Extraction `mapstructure:"extraction"`
}

type Wheel struct {
	wheel.Options `mapstructure:",squash"`
	Transition    time.Duration `mapstructure:"transition"`
}

type Root struct {
	Pipeline struct {
		Name    string `mapstructure:"name"`
		Version string `mapstructure:"version"`
		LogLvl  string `mapstructure:"log_level"`
	} `mapstructure:"pipeline"`
	Services Services `mapstructure:"services"`
	Wheel    Wheel    `mapstructure:"wheel"`
	Paths    struct {
		Catalog string `mapstructure:"catalog"`
		Outputs string `mapstructure:"outputs"`
		Cache   string `mapstructure:"cache"`
	} `mapstructure:"paths"`
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`
	Playback struct {
		Tick time.Duration `mapstructure:"tick"`
		Tail time.Duration `mapstructure:"tail"`
	} `mapstructure:"playback"`

	// Source is the config file that was read, empty when running on defaults.
	Source string `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	w := wheel.DefaultOptions()
	v.SetDefault("pipeline.name", "patient-pulse")
	v.SetDefault("pipeline.version", "dev")
	v.SetDefault("pipeline.log_level", "info")
	v.SetDefault("services.identity.url", "https://llmfoundry.straive.com/token")
	v.SetDefault("services.identity.login_url", "https://llmfoundry.straive.com/login")
	v.SetDefault("services.identity.token", "")
	v.SetDefault("services.extraction.url", "https://llmfoundry.straive.com/openai/v1/chat/completions")
	v.SetDefault("services.extraction.model", "gpt-4o-mini")
	v.SetDefault("services.extraction.app", "patient-pulse")
	v.SetDefault("services.extraction.timeout", 60*time.Second)
	v.SetDefault("wheel.radius", w.Radius)
	v.SetDefault("wheel.pad_angle", w.PadAngle)
	v.SetDefault("wheel.label_margin", w.LabelMargin)
	v.SetDefault("wheel.canvas", w.Canvas)
	v.SetDefault("wheel.font_size", w.FontSize)
	v.SetDefault("wheel.transition", 500*time.Millisecond)
	v.SetDefault("paths.catalog", "config.json")
	v.SetDefault("paths.outputs", "outputs")
	v.SetDefault("paths.cache", "")
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("playback.tick", 250*time.Millisecond)
	v.SetDefault("playback.tail", 5*time.Second)
}

// Load reads the config file at path, or when path is empty the first of
// config/$CONFIG_ENV/config.yaml and config.yaml that exists. Missing files
// fall back to defaults. PULSE_* environment variables override both.
func Load(path string) (*Root, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("PULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		var guess []string = []string{
			filepath.Join("config", env, "config.yaml"),
			"config.yaml",
		}
		for _, p := range guess {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}
	cfg.Source = path
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Root) validate() error {
	if c.Wheel.Radius <= 0 {
		return errors.New("config: wheel.radius must be positive")
	}
	if c.Wheel.Transition < 0 {
		return errors.New("config: wheel.transition must not be negative")
	}
	if c.Playback.Tick <= 0 {
		return errors.New("config: playback.tick must be positive")
	}
	if c.Playback.Tail < 0 {
		return errors.New("config: playback.tail must not be negative")
	}
	return nil
}
