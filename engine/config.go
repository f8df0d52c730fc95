package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/boypt/tracker-dash/chart"
	"github.com/boypt/tracker-dash/stats"
	"github.com/c2h5oh/datasize"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v2"
)

const (
	defaultStatsURL   = "http://127.0.0.1:8080/stats"
	defaultMaxPayload = "4MB"
)

type Config struct {
	StatsURL       string        `yaml:"StatsURL"`
	FixturePath    string        `yaml:"FixturePath"`
	PollInterval   time.Duration `yaml:"PollInterval"`
	RequestTimeout time.Duration `yaml:"RequestTimeout"`
	MaxPayload     string        `yaml:"MaxPayload"`
	FetchRate      time.Duration `yaml:"FetchRate"`
	Location       string        `yaml:"Location"`
	StrictRollover bool          `yaml:"StrictRollover"`
	Windows        []string      `yaml:"Windows"`
	Theme          chart.Theme   `yaml:"Theme"`
}

// DefaultConfig polls a tracker on localhost every 5 seconds.
func DefaultConfig() Config {
	return Config{
		StatsURL:       defaultStatsURL,
		PollInterval:   5 * time.Second,
		RequestTimeout: 10 * time.Second,
		MaxPayload:     defaultMaxPayload,
		FetchRate:      time.Second,
		Windows:        []string{"1h", "5h", "24h", "3d"},
	}
}

func InitConf(specPath string) (*Config, error) {

	viper.SetConfigName("tracker-dash")
	viper.AddConfigPath("/etc/tracker-dash/")
	viper.AddConfigPath("$HOME/.tracker-dash")
	viper.AddConfigPath(".")

	def := DefaultConfig()
	viper.SetDefault("StatsURL", def.StatsURL)
	viper.SetDefault("FixturePath", "")
	viper.SetDefault("PollInterval", def.PollInterval)
	viper.SetDefault("RequestTimeout", def.RequestTimeout)
	viper.SetDefault("MaxPayload", def.MaxPayload)
	viper.SetDefault("FetchRate", def.FetchRate)
	viper.SetDefault("Location", "")
	viper.SetDefault("StrictRollover", false)
	viper.SetDefault("Windows", def.Windows)

	// user specific config path
	if stat, err := os.Stat(specPath); stat != nil && err == nil {
		viper.SetConfigFile(specPath)
	}

	configExists := true
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		configExists = false
		if specPath == "" {
			specPath = "./tracker-dash.yaml"
		}
		viper.SetConfigFile(specPath)
	}

	c := &Config{}
	if err := viper.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	pathChanged, err := c.NormlizeFixturePath()
	if err != nil {
		return nil, err
	}
	if pathChanged {
		viper.Set("FixturePath", c.FixturePath)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cf := viper.ConfigFileUsed()
	log.Println("[config] selected config file: ", cf)
	if !configExists || pathChanged {
		if err := c.WriteYaml(); err != nil {
			return nil, err
		}
		log.Println("[config] config file written: ", cf, "exists:", configExists, "pathchanged", pathChanged)
	}

	return c, nil
}

func (c *Config) NormlizeFixturePath() (bool, error) {
	if c.FixturePath == "" {
		return false, nil
	}
	p, err := filepath.Abs(c.FixturePath)
	if err != nil {
		return false, fmt.Errorf("ERROR: Invalid path %s, %w", c.FixturePath, err)
	}
	if p == c.FixturePath {
		return false, nil
	}
	c.FixturePath = p
	return true, nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.FixturePath == "" && !strings.HasPrefix(c.StatsURL, "http://") && !strings.HasPrefix(c.StatsURL, "https://") {
		return fmt.Errorf("StatsURL must be an http(s) url, got %q", c.StatsURL)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("PollInterval must be positive, got %s", c.PollInterval)
	}
	if _, err := c.PayloadLimit(); err != nil {
		return err
	}
	if _, err := c.Loc(); err != nil {
		return err
	}
	if _, err := c.ParsedWindows(); err != nil {
		return err
	}
	return nil
}

// PayloadLimit is MaxPayload in bytes.
func (c *Config) PayloadLimit() (int64, error) {
	s := strings.TrimSpace(c.MaxPayload)
	if s == "" {
		s = defaultMaxPayload
	}
	var v datasize.ByteSize
	if err := v.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return 0, fmt.Errorf("MaxPayload [%s] unreconized: %w", c.MaxPayload, err)
	}
	if v == 0 {
		return 0, errors.New("MaxPayload must not be zero")
	}
	return int64(v.Bytes()), nil
}

// FetchLimiter spaces refreshes at least FetchRate apart.
func (c *Config) FetchLimiter() *rate.Limiter {
	if c.FetchRate <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(c.FetchRate), 1)
}

// Loc is the location used to read hours and days, local time when unset.
func (c *Config) Loc() (*time.Location, error) {
	if c.Location == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid Location %q: %w", c.Location, err)
	}
	return loc, nil
}

// ParsedWindows returns the dashboard tabs, stats.DefaultWindows when unset.
func (c *Config) ParsedWindows() ([]stats.Window, error) {
	if len(c.Windows) == 0 {
		return stats.DefaultWindows, nil
	}
	ws := make([]stats.Window, 0, len(c.Windows))
	for _, s := range c.Windows {
		w, err := stats.ParseWindow(s)
		if err != nil {
			return nil, err
		}
		ws = append(ws, w)
	}
	return ws, nil
}

// Bucketizer picks the rollover predicate.
func (c *Config) Bucketizer() stats.Bucketizer {
	if c.StrictRollover {
		return stats.Bucketizer{Rollover: stats.CalendarRollover}
	}
	return stats.Bucketizer{}
}

func (c *Config) WriteYaml() error {
	cf := viper.ConfigFileUsed()
	d, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(cf, d, 0666)
}
