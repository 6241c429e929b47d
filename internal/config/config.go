package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
		// Migrate aplica las migraciones embebidas al arrancar.
		Migrate  bool `yaml:"migrate"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	// ───────── Identity Provider ─────────
	Provider struct {
		// Nombre lógico del provider, usado como clave en identity_link.
		Name         string        `yaml:"name"`
		BaseURL      string        `yaml:"base_url"`
		ClientID     string        `yaml:"client_id"`
		ClientSecret string        `yaml:"client_secret"`
		Timeout      time.Duration `yaml:"timeout"`
		// Margen restado al expires_in del provider para refrescar antes
		// de que el token expire del lado del provider.
		TokenSkew time.Duration `yaml:"token_skew"`
	} `yaml:"provider"`

	Policy struct {
		// Si es nil en YAML se asume true: los matches por email sin
		// verificar requieren prueba de password.
		StrictEmailVerification *bool `yaml:"strict_email_verification"`
		// login_only | registration
		Product string `yaml:"product"`
	} `yaml:"policy"`

	Session struct {
		TransientTTL string `yaml:"transient_ttl"`
		TokenTTLCap  string `yaml:"token_ttl_cap"`
	} `yaml:"session"`

	Events struct {
		// log | nats
		Sink          string `yaml:"sink"`
		NATSURL       string `yaml:"nats_url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"events"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.Provider.Name == "" {
		c.Provider.Name = "janrain"
	}
	if c.Provider.Timeout <= 0 {
		c.Provider.Timeout = 10 * time.Second
	}
	if c.Provider.TokenSkew <= 0 {
		c.Provider.TokenSkew = 10 * time.Minute
	}
	if c.Policy.Product == "" {
		c.Policy.Product = "login_only"
	}
	if c.Session.TransientTTL == "" {
		c.Session.TransientTTL = "30m"
	}
	if c.Events.Sink == "" {
		c.Events.Sink = "log"
	}
	if c.Events.SubjectPrefix == "" {
		c.Events.SubjectPrefix = "janus"
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("config: storage.dsn is required for postgres driver")
	}
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown cache kind %q", c.Cache.Kind)
	}
	switch c.Policy.Product {
	case "login_only", "registration":
	default:
		return fmt.Errorf("config: unknown policy product %q", c.Policy.Product)
	}
	switch c.Events.Sink {
	case "log", "nats":
	default:
		return fmt.Errorf("config: unknown events sink %q", c.Events.Sink)
	}
	return nil
}

// StrictEmail retorna la política efectiva de verificación de email.
// El default es estricto: si el host no lo configuró, los matches por
// email sin verificar NO loguean al visitante automáticamente.
func (c *Config) StrictEmail() bool {
	if c.Policy.StrictEmailVerification == nil {
		return true
	}
	return *c.Policy.StrictEmailVerification
}

// TransientTTL parsea session.transient_ttl (default 30m).
func (c *Config) TransientTTL() time.Duration {
	d, err := time.ParseDuration(c.Session.TransientTTL)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}
