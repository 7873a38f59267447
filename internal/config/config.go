package config

import (
	"github.com/caarlos0/env/v9"
	"github.com/secthall/contribution-backend/internal/rank"
)

type Config struct {
	Port                   string `env:"PORT" envDefault:"8080"`
	DBUser                 string `env:"DB_USER,required"`
	DBPassword             string `env:"DB_PASSWORD,required"`
	DBHost                 string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME,required"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	FirebaseProjectID   string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentials string `env:"FIREBASE_CREDENTIALS_FILE"`

	// Chat-platform gateway: member lookups, role mutations, announcements.
	GatewayBaseURL    string `env:"GATEWAY_BASE_URL,required"`
	GatewayToken      string `env:"GATEWAY_TOKEN"`
	AnnounceChannelID int64  `env:"ANNOUNCE_CHANNEL_ID"`

	// Rank ladder override; empty means the built-in default table.
	RankTiers string `env:"RANK_TIERS"`

	// Protégé privilege: tier keys allowed to grant, tier keys eligible
	// as targets, and the one-time bonus.
	GranterTierKeys   []string `env:"PROTEGE_GRANTER_TIERS" envSeparator:"," envDefault:"elder,peak_master"`
	TargetTierKeys    []string `env:"PROTEGE_TARGET_TIERS" envSeparator:"," envDefault:"inner_disciple,core_disciple"`
	ProtegeBonus      int64    `env:"PROTEGE_BONUS_POINTS" envDefault:"300"`
	FlavorTextEnabled bool     `env:"FLAVOR_TEXT_ENABLED" envDefault:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Tiers materializes the rank ladder, validated. The default table is
// used unless RANK_TIERS overrides it.
func (c *Config) Tiers() (rank.Table, error) {
	if c.RankTiers == "" {
		t := rank.Default()
		if err := t.Validate(); err != nil {
			return nil, err
		}
		return t, nil
	}
	return rank.Parse(c.RankTiers)
}
