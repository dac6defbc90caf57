package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FacebookAPIVersion is the Graph API version the conversion events are posted to.
const FacebookAPIVersion = "v21.0"

const (
	BackendMongo = "mongo"
	BackendKafka = "kafka"
)

// Config holds shared service configuration sourced from environment variables.
// Optional integrations are nil when their credentials are not set.
type Config struct {
	LeadAPIAddr       string
	LoaderMetricsAddr string
	LogLevel          slog.Level
	CORSAllowOrigins  []string
	HTTPTimeout       time.Duration

	Facebook            FacebookConfig
	CAPILoopback        bool
	CAPILoopbackBaseURL string
	CRM                 *CRMConfig
	Telegram            *TelegramConfig

	Analytics     AnalyticsConfig
	KafkaBrokers  []string
	ClickHouseDSN string
	IPHashSalt    string
	BotUserAgents []string
	BatchSize     int
	BatchInterval time.Duration

	Offers           OfferCatalog
	OffersConfigPath string
}

// FacebookConfig configures the Conversions API forwarder.
type FacebookConfig struct {
	PixelID       string
	AccessToken   string
	TestEventCode string
	GraphURL      string
	APIVersion    string
}

// CRMConfig configures the amoCRM lead stage.
type CRMConfig struct {
	Subdomain string
	APIKey    string
	BaseURL   string
}

// TelegramConfig configures the chat notification stage.
type TelegramConfig struct {
	BotToken string
	ChatID   string
	APIURL   string
}

// AnalyticsConfig selects and configures the analytics event store.
type AnalyticsConfig struct {
	Backend         string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	KafkaTopic      string
	MaxBodyBytes    int64
}

// OfferCatalog describes the content metadata and the value reported to the
// ad platform for each package type.
type OfferCatalog struct {
	ContentName     string             `yaml:"content_name"`
	ContentCategory string             `yaml:"content_category"`
	Currency        string             `yaml:"currency"`
	DefaultValue    float64            `yaml:"default_value"`
	Packages        map[string]float64 `yaml:"packages"`
}

// Value returns the conversion value for a package type.
func (o OfferCatalog) Value(packageType string) float64 {
	if v, ok := o.Packages[packageType]; ok {
		return v
	}
	return o.DefaultValue
}

// DefaultOffers is used when no offers file is configured.
func DefaultOffers() OfferCatalog {
	return OfferCatalog{
		ContentName:     "Driver C+E Application",
		ContentCategory: "Application Form",
		Currency:        "EUR",
		DefaultValue:    300,
		Packages:        map[string]float64{"premium": 500},
	}
}

// Load parses process environment variables into a Config struct, applying defaults when unset.
func Load() (Config, error) {
	offersPath := os.Getenv("OFFERS_CONFIG_PATH")
	offers := DefaultOffers()
	if offersPath != "" {
		var err error
		offers, err = loadOffers(offersPath, offers)
		if err != nil {
			return Config{}, fmt.Errorf("load offers config: %w", err)
		}
	}

	backend := strings.ToLower(getenv("ANALYTICS_BACKEND", BackendMongo))
	if backend != BackendMongo && backend != BackendKafka {
		return Config{}, fmt.Errorf("unknown ANALYTICS_BACKEND %q", backend)
	}

	cfg := Config{
		LeadAPIAddr:       getenv("LEAD_API_ADDR", ":8080"),
		LoaderMetricsAddr: getenv("LOADER_METRICS_ADDR", ":9101"),
		LogLevel:          parseLevel(os.Getenv("LOG_LEVEL")),
		CORSAllowOrigins:  splitAndTrim(getenv("CORS_ALLOW_ORIGINS", "*")),
		HTTPTimeout:       durationDefault("HTTP_TIMEOUT_MS", 10000),
		Facebook: FacebookConfig{
			PixelID:       getenv("FACEBOOK_PIXEL_ID", "3789700971281396"),
			AccessToken:   os.Getenv("FACEBOOK_ACCESS_TOKEN"),
			TestEventCode: os.Getenv("FACEBOOK_TEST_EVENT_CODE"),
			GraphURL:      strings.TrimRight(getenv("FACEBOOK_GRAPH_URL", "https://graph.facebook.com"), "/"),
			APIVersion:    FacebookAPIVersion,
		},
		CAPILoopback:        boolDefault("CAPI_LOOPBACK", false),
		CAPILoopbackBaseURL: strings.TrimRight(os.Getenv("CAPI_LOOPBACK_BASE_URL"), "/"),
		Analytics: AnalyticsConfig{
			Backend:         backend,
			MongoURI:        os.Getenv("MONGODB_URI"),
			MongoDatabase:   getenv("MONGODB_DATABASE", "truck_driver_analytics"),
			MongoCollection: getenv("MONGODB_COLLECTION", "events"),
			KafkaTopic:      getenv("KAFKA_TOPIC_ANALYTICS", "analytics.events"),
			MaxBodyBytes:    int64(atoiDefault("ANALYTICS_MAX_BODY_BYTES", 64<<10)),
		},
		KafkaBrokers:     splitAndTrim(getenv("KAFKA_BROKERS", "localhost:9092")),
		ClickHouseDSN:    getenv("CLICKHOUSE_DSN", "clickhouse://default:@localhost:9000?database=default&dial_timeout=5s&compress=true"),
		IPHashSalt:       getenv("IP_HASH_SALT", "dev-salt"),
		BotUserAgents:    splitAndTrim(getenv("BOT_UA_DENYLIST", "bot,crawler,spider")),
		BatchSize:        atoiDefault("LOADER_BATCH_SIZE", 500),
		BatchInterval:    durationDefault("LOADER_BATCH_INTERVAL_MS", 1000),
		Offers:           offers,
		OffersConfigPath: offersPath,
	}

	if sub, key := os.Getenv("AMOCRM_SUBDOMAIN"), os.Getenv("AMOCRM_API_KEY"); sub != "" && key != "" {
		cfg.CRM = &CRMConfig{
			Subdomain: sub,
			APIKey:    key,
			BaseURL:   strings.TrimRight(getenv("AMOCRM_BASE_URL", "https://"+sub+".amocrm.ru"), "/"),
		}
	}
	if token, chat := os.Getenv("TELEGRAM_BOT_TOKEN"), os.Getenv("TELEGRAM_CHAT_ID"); token != "" && chat != "" {
		cfg.Telegram = &TelegramConfig{
			BotToken: token,
			ChatID:   chat,
			APIURL:   strings.TrimRight(getenv("TELEGRAM_API_URL", "https://api.telegram.org"), "/"),
		}
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return def
}

func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func atoiDefault(key string, def int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func boolDefault(key string, def bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return def
}

func durationDefault(key string, defMS int) time.Duration {
	return time.Duration(atoiDefault(key, defMS)) * time.Millisecond
}

func parseLevel(v string) slog.Level {
	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadOffers overlays the YAML file at path onto base. Fields missing from the
// file keep their base value.
func loadOffers(path string, base OfferCatalog) (OfferCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return OfferCatalog{}, err
	}
	var file OfferCatalog
	if err := yaml.Unmarshal(data, &file); err != nil {
		return OfferCatalog{}, err
	}
	if file.ContentName != "" {
		base.ContentName = file.ContentName
	}
	if file.ContentCategory != "" {
		base.ContentCategory = file.ContentCategory
	}
	if file.Currency != "" {
		base.Currency = file.Currency
	}
	if file.DefaultValue > 0 {
		base.DefaultValue = file.DefaultValue
	}
	if len(file.Packages) > 0 {
		base.Packages = make(map[string]float64, len(file.Packages))
		for name, value := range file.Packages {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if value <= 0 {
				return OfferCatalog{}, fmt.Errorf("package %s has non-positive value in %s", name, path)
			}
			base.Packages[name] = value
		}
	}
	return base, nil
}
