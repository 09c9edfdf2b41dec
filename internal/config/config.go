package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Classify ClassifyConfig `yaml:"classify" mapstructure:"classify"`
	Geo      GeoConfig      `yaml:"geo" mapstructure:"geo"`
	Layout   LayoutConfig   `yaml:"layout" mapstructure:"layout"`
	Render   RenderConfig   `yaml:"render" mapstructure:"render"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DataConfig configures table ingestion and field eligibility.
type DataConfig struct {
	KeyColumn       string   `yaml:"key_column" mapstructure:"key_column"`
	ReservedColumns []string `yaml:"reserved_columns" mapstructure:"reserved_columns"`
}

// ClassifyConfig configures break computation and palettes.
type ClassifyConfig struct {
	MaxClasses  int    `yaml:"max_classes" mapstructure:"max_classes"`
	PaletteFile string `yaml:"palette_file" mapstructure:"palette_file"`
}

// GeoConfig configures county geometry acquisition.
type GeoConfig struct {
	ShapefileURL string `yaml:"shapefile_url" mapstructure:"shapefile_url"`
	CacheDir     string `yaml:"cache_dir" mapstructure:"cache_dir"`
	NameField    string `yaml:"name_field" mapstructure:"name_field"`
}

// LayoutConfig configures the label layout engine.
type LayoutConfig struct {
	Iterations      int     `yaml:"iterations" mapstructure:"iterations"`
	CollisionRadius float64 `yaml:"collision_radius" mapstructure:"collision_radius"`
	Attraction      float64 `yaml:"attraction" mapstructure:"attraction"`
}

// RenderConfig configures the SVG renderer viewport.
type RenderConfig struct {
	Width  float64 `yaml:"width" mapstructure:"width"`
	Height float64 `yaml:"height" mapstructure:"height"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port      int     `yaml:"port" mapstructure:"port"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.key_column", "county")
	v.SetDefault("data.reserved_columns", []string{"county", "fips", "geoid", "population"})
	v.SetDefault("classify.max_classes", 9)
	v.SetDefault("geo.shapefile_url", "https://www2.census.gov/geo/tiger/TIGER2024/COUNTY/tl_2024_us_county.zip")
	v.SetDefault("geo.cache_dir", "/tmp/county-atlas")
	v.SetDefault("geo.name_field", "NAME")
	v.SetDefault("layout.iterations", 250)
	v.SetDefault("layout.collision_radius", 60)
	v.SetDefault("layout.attraction", 0.02)
	v.SetDefault("render.width", 960)
	v.SetDefault("render.height", 600)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "county-atlas.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 10)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
