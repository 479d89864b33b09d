package config

import (
	"flag"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Address  string `env:"RUN_ADDRESS" envDefault:"localhost:8080"`
	Database string `env:"DATABASE_URI" envDefault:""`
	LogLvl   string `env:"LOG_LVL"     envDefault:"info"`

	StatePath string `env:"STATE_PATH" envDefault:"orders_state.json"`

	BotToken string `env:"BOT_TOKEN"`
	GroupID  int64  `env:"GROUP_ID"`

	ProductName    string `env:"PRODUCT_NAME"    envDefault:"Private channel"`
	PricePerMonth  int64  `env:"PRICE_PER_MONTH" envDefault:"50000"`
	OrderPrefix    string `env:"ORDER_PREFIX"    envDefault:"ORD"`
	PaymentDetails string `env:"PAYMENT_DETAILS"`

	FeedAddress string `env:"FEED_ADDRESS"`
	FeedToken   string `env:"FEED_TOKEN"`

	PollInterval    time.Duration `env:"POLL_INTERVAL"  envDefault:"30s"`
	MatchWindow     time.Duration `env:"MATCH_WINDOW"   envDefault:"24h"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"10m"`
	InviteTTL       time.Duration `env:"INVITE_TTL"     envDefault:"5m"`
	MalformedLimit  int           `env:"MALFORMED_RECORD_LIMIT" envDefault:"5"`

	AdminPasswordHash string  `env:"ADMIN_PASSWORD_HASH"`
	JWTSecret         string  `env:"JWT_SECRET"`
	AdminChatIDs      []int64 `env:"ADMIN_CHAT_IDS" envSeparator:","`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC"   envDefault:"groupgate.events"`
}

func New() *Config {
	cfg := &Config{}

	env.Parse(cfg)

	flag.StringVar(&cfg.Address, "a", cfg.Address, "address and port for the admin server")
	flag.StringVar(&cfg.Database, "d", cfg.Database, "database DSN (empty = JSON file store)")
	flag.StringVar(&cfg.StatePath, "s", cfg.StatePath, "path to the JSON state file")
	flag.StringVar(&cfg.FeedAddress, "f", cfg.FeedAddress, "transaction feed address")
	flag.StringVar(&cfg.LogLvl, "l", cfg.LogLvl, "log level")
	flag.Parse()

	if cfg.FeedAddress != "" && !strings.HasPrefix(cfg.FeedAddress, "http://") && !strings.HasPrefix(cfg.FeedAddress, "https://") {
		cfg.FeedAddress = "https://" + cfg.FeedAddress
	}

	return cfg
}
