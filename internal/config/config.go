package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"foody/indexer/internal/extract"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var ErrInvalid = errors.New("invalid configuration")

// Config holds all configuration for the application
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	Browser BrowserConfig `mapstructure:"browser"`
	Store   StoreConfig   `mapstructure:"store"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Search  SearchConfig  `mapstructure:"search"`
	Server  ServerConfig  `mapstructure:"server"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
}

// CrawlConfig describes the site and how fast to walk it. Durations are in
// seconds unless the name says otherwise.
type CrawlConfig struct {
	BaseURL              string            `mapstructure:"base_url" validate:"required,url"`
	StartURL             string            `mapstructure:"start_url" validate:"required,url"`
	CategoryCount        int               `mapstructure:"category_count" validate:"min=1"`
	MaxPages             int               `mapstructure:"max_pages" validate:"min=1"`
	TabSelector          string            `mapstructure:"tab_selector" validate:"required,contains=%d"`
	ListReady            string            `mapstructure:"list_ready" validate:"required"`
	DetailReady          string            `mapstructure:"detail_ready" validate:"required"`
	PageTimeout          int               `mapstructure:"page_timeout" validate:"min=1"`
	DetailTimeout        int               `mapstructure:"detail_timeout" validate:"min=1"`
	ScrollStep           int               `mapstructure:"scroll_step" validate:"min=1"`
	ScrollPauseMs        int               `mapstructure:"scroll_pause_ms" validate:"min=0"`
	MaxScrollPasses      int               `mapstructure:"max_scroll_passes" validate:"min=1"`
	MaxRequestsPerSecond int               `mapstructure:"max_requests_per_second" validate:"min=0"`
	Selectors            extract.Selectors `mapstructure:"selectors"`
}

type BrowserConfig struct {
	Headless          bool     `mapstructure:"headless"`
	UserAgent         string   `mapstructure:"user_agent"`
	WindowWidth       int      `mapstructure:"window_width"`
	WindowHeight      int      `mapstructure:"window_height"`
	ActionTimeout     int      `mapstructure:"action_timeout" validate:"min=1"`
	Proxies           []string `mapstructure:"proxies"`
	ProxyCheckURL     string   `mapstructure:"proxy_check_url"`
	ProxyCheckTimeout int      `mapstructure:"proxy_check_timeout" validate:"min=1"`
}

type StoreConfig struct {
	Driver     string         `mapstructure:"driver" validate:"oneof=postgres sqlite memory"`
	SQLitePath string         `mapstructure:"sqlite_path" validate:"required_if=Driver sqlite"`
	Postgres   DatabaseConfig `mapstructure:"postgres"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// DSN returns a postgres:// URL with every part escaped.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}

// RedisConfig holds Redis connection details. Redis is optional: without it
// the crawler asks the store for every fingerprint and no sync is queued.
type RedisConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	KeyPrefix     string `mapstructure:"key_prefix"`
	ConsumerGroup string `mapstructure:"consumer_group" validate:"required_if=Enabled true"`
	MinIdleTime   int    `mapstructure:"min_idle_time" validate:"min=1"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type SearchConfig struct {
	URL        string `mapstructure:"url" validate:"required,url"`
	Index      string `mapstructure:"index" validate:"required"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	Timeout    int    `mapstructure:"timeout" validate:"min=1"`
	MaxRetries int    `mapstructure:"max_retries" validate:"min=0"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port int    `mapstructure:"port" validate:"min=1,max=65535"`
	Host string `mapstructure:"host"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Seconds converts a config value in seconds to a duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Load reads path, or config.yaml from the working directory when path is
// empty, applies environment overrides (SEARCH_URL overrides search.url) and
// validates the result. A missing config.yaml is not an error when path is
// empty: defaults and environment are used.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Info("No config.yaml found, using defaults and environment")
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")

	selectors := extract.DefaultSelectors()
	v.SetDefault("crawl.base_url", "https://www.foody.vn")
	v.SetDefault("crawl.start_url", "https://www.foody.vn/ha-noi")
	v.SetDefault("crawl.category_count", 7)
	v.SetDefault("crawl.max_pages", 50)
	v.SetDefault("crawl.tab_selector", "#box-delivery > div.n-header > div.nav-box > ul > li:nth-child(%d)")
	v.SetDefault("crawl.list_ready", "#box-delivery > div:nth-of-type(2) > ul > li a.avatar img")
	v.SetDefault("crawl.detail_ready", "#scroll-spy > div > div:nth-of-type(1)")
	v.SetDefault("crawl.page_timeout", 30)
	v.SetDefault("crawl.detail_timeout", 30)
	v.SetDefault("crawl.scroll_step", 2000)
	v.SetDefault("crawl.scroll_pause_ms", 1500)
	v.SetDefault("crawl.max_scroll_passes", 200)
	v.SetDefault("crawl.max_requests_per_second", 2)
	v.SetDefault("crawl.selectors.list_item", selectors.ListItem)
	v.SetDefault("crawl.selectors.item_link", selectors.ItemLink)
	v.SetDefault("crawl.selectors.item_avatar", selectors.ItemAvatar)
	v.SetDefault("crawl.selectors.item_name", selectors.ItemName)
	v.SetDefault("crawl.selectors.item_address", selectors.ItemAddress)
	v.SetDefault("crawl.selectors.next_page", selectors.NextPage)
	v.SetDefault("crawl.selectors.tag", selectors.Tag)
	v.SetDefault("crawl.selectors.menu_row", selectors.MenuRow)
	v.SetDefault("crawl.selectors.menu_name", selectors.MenuName)
	v.SetDefault("crawl.selectors.menu_price", selectors.MenuPrice)
	v.SetDefault("crawl.selectors.menu_desc", selectors.MenuDesc)
	v.SetDefault("crawl.selectors.menu_image", selectors.MenuImage)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_agent", "")
	v.SetDefault("browser.window_width", 1366)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.action_timeout", 30)
	v.SetDefault("browser.proxies", []string{})
	v.SetDefault("browser.proxy_check_url", "https://www.foody.vn")
	v.SetDefault("browser.proxy_check_timeout", 10)

	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.sqlite_path", "./data/foody.db")
	v.SetDefault("store.postgres.host", "localhost")
	v.SetDefault("store.postgres.port", 5432)
	v.SetDefault("store.postgres.name", "foody")
	v.SetDefault("store.postgres.user", "foody_user")
	v.SetDefault("store.postgres.password", "foody_pass")
	v.SetDefault("store.postgres.ssl_mode", "disable")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.key_prefix", "foody:")
	v.SetDefault("redis.consumer_group", "foody_sync")
	v.SetDefault("redis.min_idle_time", 120)

	v.SetDefault("search.url", "http://localhost:9200")
	v.SetDefault("search.index", "information-retrieve")
	v.SetDefault("search.username", "")
	v.SetDefault("search.password", "")
	v.SetDefault("search.timeout", 10)
	v.SetDefault("search.max_retries", 3)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")
}
