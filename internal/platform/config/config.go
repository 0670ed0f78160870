// Package config loads provider configuration with viper: defaults, an
// optional YAML file named by OIDC_CONFIG_FILE, then OIDC_* environment
// variables (nested keys joined by underscores, e.g. OIDC_SERVER_ADDR).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "OIDC"

type Config struct {
	Server    Server              `mapstructure:"server"`
	Log       Log                 `mapstructure:"log"`
	Lifetimes Lifetimes           `mapstructure:"lifetimes"`
	Features  Features            `mapstructure:"features"`
	Claims    map[string][]string `mapstructure:"claims"`
	Keys      Keys                `mapstructure:"keys"`
	Storage   Storage             `mapstructure:"storage"`
	Redis     RedisConfig         `mapstructure:"redis"`
	Postgres  PostgresConfig      `mapstructure:"postgres"`
	Kafka     KafkaConfig         `mapstructure:"kafka"`
	Clients   []ClientConfig      `mapstructure:"clients"`
	Accounts  []AccountConfig     `mapstructure:"accounts"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr   string `mapstructure:"addr"`
	Issuer string `mapstructure:"issuer"`
	// InteractionURL is the path template end-users are sent to; {uuid}
	// is replaced with the interaction id.
	InteractionURL    string        `mapstructure:"interaction_url"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	SecureCookies     bool          `mapstructure:"secure_cookies"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Lifetimes struct {
	IDToken           time.Duration `mapstructure:"id_token"`
	AccessToken       time.Duration `mapstructure:"access_token"`
	RefreshToken      time.Duration `mapstructure:"refresh_token"`
	AuthorizationCode time.Duration `mapstructure:"authorization_code"`
	Interaction       time.Duration `mapstructure:"interaction"`
	Session           time.Duration `mapstructure:"session"`
	Grant             time.Duration `mapstructure:"grant"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval"`
}

// Features toggles optional endpoints. A disabled feature's endpoint
// answers 404 and is left out of discovery.
type Features struct {
	Discovery         bool `mapstructure:"discovery"`
	Introspection     bool `mapstructure:"introspection"`
	Revocation        bool `mapstructure:"revocation"`
	Registration      bool `mapstructure:"registration"`
	ClientCredentials bool `mapstructure:"client_credentials"`
	ClaimsParameter   bool `mapstructure:"claims_parameter"`
	SessionManagement bool `mapstructure:"session_management"`
	DevInteractions   bool `mapstructure:"dev_interactions"`
}

type Keys struct {
	// Algorithm for generated keys: RS256 or ES256.
	Algorithm string `mapstructure:"algorithm"`
	// Files are PEM private keys; the first signs, the rest verify only.
	Files []string `mapstructure:"files"`
}

type Storage struct {
	// Backend is "memory" or "redis" for interactions, grants and the
	// revocation list.
	Backend string `mapstructure:"backend"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// PostgresConfig enables the Postgres client registry and revocation list
// when DSN is set.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type KafkaConfig struct {
	Brokers           []string `mapstructure:"brokers"`
	Topic             string   `mapstructure:"topic"`
	Partitions        int32    `mapstructure:"partitions"`
	ReplicationFactor int16    `mapstructure:"replication_factor"`
}

// ClientConfig is a statically registered client. ClientSecret is the
// clear secret; it is hashed before it reaches the registry.
type ClientConfig struct {
	ClientID                string   `mapstructure:"client_id"`
	ClientSecret            string   `mapstructure:"client_secret"`
	ClientName              string   `mapstructure:"client_name"`
	RedirectURIs            []string `mapstructure:"redirect_uris"`
	PostLogoutRedirectURIs  []string `mapstructure:"post_logout_redirect_uris"`
	ResponseTypes           []string `mapstructure:"response_types"`
	GrantTypes              []string `mapstructure:"grant_types"`
	TokenEndpointAuthMethod string   `mapstructure:"token_endpoint_auth_method"`
	ApplicationType         string   `mapstructure:"application_type"`
	Scope                   string   `mapstructure:"scope"`
}

type AccountConfig struct {
	ID            string `mapstructure:"id"`
	Email         string `mapstructure:"email"`
	EmailVerified bool   `mapstructure:"email_verified"`
	Password      string `mapstructure:"password"`
	Name          string `mapstructure:"name"`
	GivenName     string `mapstructure:"given_name"`
	FamilyName    string `mapstructure:"family_name"`
}

// DefaultClaims maps each scope to the claims it releases.
func DefaultClaims() map[string][]string {
	return map[string][]string{
		"openid": {"sub"},
		"email":  {"email", "email_verified"},
	}
}

// DefaultClients is the client set used when none is configured.
func DefaultClients() []ClientConfig {
	return []ClientConfig{{
		ClientID:                "foo",
		RedirectURIs:            []string{"http://localhost:3002/callback"},
		ResponseTypes:           []string{"id_token token"},
		GrantTypes:              []string{"implicit"},
		TokenEndpointAuthMethod: "none",
		ApplicationType:         "native",
	}}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.issuer", "http://localhost:3000")
	v.SetDefault("server.interaction_url", "/interaction/{uuid}")
	v.SetDefault("server.read_header_timeout", 5*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.secure_cookies", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("lifetimes.id_token", time.Hour)
	v.SetDefault("lifetimes.access_token", time.Hour)
	v.SetDefault("lifetimes.refresh_token", 14*24*time.Hour)
	v.SetDefault("lifetimes.authorization_code", time.Minute)
	v.SetDefault("lifetimes.interaction", 10*time.Minute)
	v.SetDefault("lifetimes.session", 14*24*time.Hour)
	v.SetDefault("lifetimes.grant", 14*24*time.Hour)
	v.SetDefault("lifetimes.sweep_interval", 30*time.Second)

	v.SetDefault("features.discovery", true)
	v.SetDefault("features.introspection", true)
	v.SetDefault("features.revocation", true)
	v.SetDefault("features.registration", true)
	v.SetDefault("features.client_credentials", true)
	v.SetDefault("features.claims_parameter", true)
	v.SetDefault("features.session_management", true)
	v.SetDefault("features.dev_interactions", false)

	v.SetDefault("keys.algorithm", "RS256")
	v.SetDefault("keys.files", []string{})

	v.SetDefault("storage.backend", "memory")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("postgres.dsn", "")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "oidc.audit")
	v.SetDefault("kafka.partitions", 1)
	v.SetDefault("kafka.replication_factor", 1)
}

// Load reads configuration. A non-empty file path overrides
// OIDC_CONFIG_FILE.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file == "" {
		file = v.GetString("config_file")
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if len(cfg.Claims) == 0 {
		cfg.Claims = DefaultClaims()
	}
	if len(cfg.Clients) == 0 {
		cfg.Clients = DefaultClients()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Issuer == "" {
		return fmt.Errorf("server.issuer is required")
	}
	if !strings.Contains(c.Server.InteractionURL, "{uuid}") {
		return fmt.Errorf("server.interaction_url must contain {uuid}")
	}
	if c.Features.DevInteractions {
		return fmt.Errorf("features.dev_interactions is not supported; interactions are served by the interaction routes")
	}
	switch c.Storage.Backend {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("storage.backend redis requires redis.url")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	switch c.Keys.Algorithm {
	case "RS256", "ES256":
	default:
		return fmt.Errorf("unsupported keys.algorithm %q", c.Keys.Algorithm)
	}
	return nil
}
