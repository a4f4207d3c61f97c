package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"crime_news/internal/models"
)

// Config хранит всё, что нужно одному рендеру дашборда: ленты, словарь и источники статистики.
type Config struct {
	RSSFeeds           []string          `json:"rss_feeds"`
	Keywords           models.KeywordSet `json:"keywords"`
	Stats              Stats             `json:"stats"`
	Catalog            Catalog           `json:"catalog"`
	HTTPTimeoutSeconds int               `json:"http_timeout_seconds"`
	ListenAddr         string            `json:"listen_addr"`
	DatabaseURL        string            `json:"database_url"`
}

// Stats - удалённый источник оценок и локальный CSV для отката.
type Stats struct {
	RemoteURL string `json:"remote_url"`
	APIKey    string `json:"api_key"`
	Limit     int    `json:"limit"`
	LocalFile string `json:"local_file"`
	DataDir   string `json:"data_dir"`
	FileMatch string `json:"file_match"`
}

// Catalog - каталог открытых данных. Пустой BaseURL отключает источник.
type Catalog struct {
	BaseURL      string `json:"base_url"`
	Rows         int    `json:"rows"`
	RowLimit     int    `json:"row_limit"`
	MaxResources int    `json:"max_resources"`
}

// Default возвращает конфигурацию по умолчанию.
func Default() *Config {
	return &Config{
		RSSFeeds: []string{
			"https://www.latimes.com/california/rss2.0.xml",
			"https://www.crimeinamerica.net/feed/",
			"https://www.themarshallproject.org/rss/recent.rss",
			"https://nypost.com/tag/crime/feed/",
			"https://mylifeofcrime.wordpress.com/feed/",
			"https://cwbchicago.com/feed",
			"https://spdblotter.seattle.gov/feed/",
		},
		Keywords: models.DefaultKeywords(),
		Stats: Stats{
			RemoteURL: "https://api.usa.gov/crime/fbi/sapi/api/estimates/offender/national",
			Limit:     1000,
			LocalFile: "Crime_Data_from_2020_to_Present.csv",
			DataDir:   ".",
			FileMatch: "Crime_Data",
		},
		Catalog: Catalog{
			Rows:         10,
			RowLimit:     1000,
			MaxResources: 5,
		},
		HTTPTimeoutSeconds: 10,
		ListenAddr:         ":8501",
	}
}

// HTTPTimeout - таймаут одного сетевого вызова.
func (cfg *Config) HTTPTimeout() time.Duration {
	return time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
}

// Validate проверяет URL лент, таймаут и лимиты.
func (cfg *Config) Validate() error {
	if cfg.HTTPTimeoutSeconds < 1 {
		return errors.New("http timeout must be ≥ 1 second")
	}
	if len(cfg.RSSFeeds) == 0 {
		return errors.New("at least one RSS feed is required")
	}
	for _, u := range cfg.RSSFeeds {
		if _, err := url.ParseRequestURI(u); err != nil {
			return fmt.Errorf("invalid RSS URL: %s", u)
		}
	}
	for c := range cfg.Keywords {
		if _, ok := models.ParseCategory(string(c)); !ok {
			return fmt.Errorf("unknown keyword category: %s", c)
		}
	}
	if cfg.Stats.Limit < 1 {
		return errors.New("stats limit must be positive")
	}
	if cfg.Stats.RemoteURL != "" {
		if _, err := url.ParseRequestURI(cfg.Stats.RemoteURL); err != nil {
			return fmt.Errorf("invalid stats URL: %s", cfg.Stats.RemoteURL)
		}
	}
	if cfg.Catalog.BaseURL != "" {
		if _, err := url.ParseRequestURI(cfg.Catalog.BaseURL); err != nil {
			return fmt.Errorf("invalid catalog URL: %s", cfg.Catalog.BaseURL)
		}
		if cfg.Catalog.RowLimit < 1 || cfg.Catalog.MaxResources < 1 {
			return errors.New("catalog limits must be positive")
		}
	}
	return nil
}

// LoadConfig читает JSON-файл по пути path поверх значений по умолчанию.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := Default()
	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load читает файл, если он есть, применяет переменные окружения и проверяет результат.
// Отсутствующий файл не ошибка: используются значения по умолчанию.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		loaded, err := LoadConfig(path)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv переопределяет секреты и пути из переменных окружения.
func (cfg *Config) ApplyEnv() {
	setString(&cfg.Stats.APIKey, "API_KEY")
	setString(&cfg.Stats.LocalFile, "CRIME_CSV_FILE")
	setString(&cfg.Stats.DataDir, "CRIME_DATA_DIR")
	setString(&cfg.Catalog.BaseURL, "CATALOG_URL")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.ListenAddr, "LISTEN_ADDR")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}
