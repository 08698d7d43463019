package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"gestor/internal/domain"
)

// Config models gestor.yml.
type Config struct {
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Locks struct {
		Backend string `yaml:"backend"`
		TTL     string `yaml:"ttl"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"locks"`
	Catalog Catalog `yaml:"catalog"`
}

// Catalog is the seed data written by `gestor seed`.
type Catalog struct {
	States      []StateDef          `yaml:"states"`
	Transitions []domain.Transition `yaml:"transitions"`
	Templates   []TemplateDef       `yaml:"templates"`
	Users       []UserDef           `yaml:"users"`
}

type StateDef struct {
	ID       int64  `yaml:"id"`
	Name     string `yaml:"nombre"`
	Order    int    `yaml:"orden"`
	Terminal bool   `yaml:"terminal"`
}

// TemplateDef with an empty Type applies to every case type.
type TemplateDef struct {
	State        int64  `yaml:"estado"`
	Type         string `yaml:"tipo"`
	Title        string `yaml:"titulo"`
	Template     string `yaml:"template"`
	Required     bool   `yaml:"required"`
	RolesAllowed string `yaml:"roles_allowed"`
}

type UserDef struct {
	ID    int64  `yaml:"id"`
	Name  string `yaml:"nombre"`
	Email string `yaml:"correo"`
}

const (
	LockBackendNone  = "none"
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with gestor config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json", "logfmt":
	default:
		return fmt.Errorf("config.log.format must be text, json or logfmt")
	}
	switch c.Locks.Backend {
	case "", LockBackendNone, LockBackendLocal:
	case LockBackendRedis:
		if c.Locks.Redis.Addr == "" {
			return fmt.Errorf("config.locks.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("config.locks.backend %q is not one of none, local, redis", c.Locks.Backend)
	}
	if c.Locks.TTL != "" {
		d, err := time.ParseDuration(c.Locks.TTL)
		if err != nil {
			return fmt.Errorf("config.locks.ttl: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("config.locks.ttl must be positive")
		}
	}
	return c.Catalog.Validate()
}

// Validate checks references between catalog entries.
func (c Catalog) Validate() error {
	states := map[int64]bool{}
	for _, s := range c.States {
		if s.ID <= 0 {
			return fmt.Errorf("catalog state %q needs a positive id", s.Name)
		}
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("catalog state %d has empty nombre", s.ID)
		}
		if states[s.ID] {
			return fmt.Errorf("catalog state %d defined twice", s.ID)
		}
		states[s.ID] = true
	}
	for _, t := range c.Transitions {
		if !states[t.FromStateID] || !states[t.ToStateID] {
			return fmt.Errorf("transition %d -> %d references unknown state", t.FromStateID, t.ToStateID)
		}
	}
	seen := map[string]bool{}
	for _, t := range c.Templates {
		if !states[t.State] {
			return fmt.Errorf("template %q references unknown state %d", t.Title, t.State)
		}
		key := fmt.Sprintf("%d|%s", t.State, t.Type)
		if seen[key] {
			if t.Type == "" {
				return fmt.Errorf("state %d has more than one wildcard template", t.State)
			}
			return fmt.Errorf("state %d has more than one template for tipo %s", t.State, t.Type)
		}
		seen[key] = true
	}
	users := map[int64]bool{}
	for _, u := range c.Users {
		if u.ID <= 0 || strings.TrimSpace(u.Name) == "" {
			return fmt.Errorf("catalog user needs a positive id and a nombre")
		}
		if users[u.ID] {
			return fmt.Errorf("catalog user %d defined twice", u.ID)
		}
		users[u.ID] = true
	}
	return nil
}

// LockTTL is the per-case lock lifetime, 10s when unset.
func (c *Config) LockTTL() time.Duration {
	if d, err := time.ParseDuration(c.Locks.TTL); err == nil && d > 0 {
		return d
	}
	return 10 * time.Second
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "gestor.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// LoadOptional returns the default config if the file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `server:
  addr: 127.0.0.1:8080
  base_path: /api

log:
  level: info
  format: text

locks:
  backend: local
  ttl: 10s
  redis:
    addr: ""
    prefix: "gestor:"

catalog:
  states:
    - {id: 1, nombre: Registrada, orden: 1}
    - {id: 2, nombre: En revisión, orden: 2}
    - {id: 3, nombre: Aprobada, orden: 3}
    - {id: 4, nombre: Rechazada, orden: 4}
    - {id: 5, nombre: Cerrada, orden: 5, terminal: true}

  transitions:
    - {from: 1, to: 2}
    - {from: 2, to: 1}
    - {from: 2, to: 3}
    - {from: 2, to: 4}
    - {from: 3, to: 5}
    - {from: 4, to: 5}

  templates:
    - estado: 2
      titulo: Envío a revisión
      template: "Documentación adjunta:"
    - estado: 3
      tipo: reclamo
      titulo: Resolución del reclamo
      template: "Resolución acordada con el cliente:"
      required: true
    - estado: 4
      titulo: Motivo del rechazo
      template: "Se rechaza porque:"
      required: true
    - estado: 5
      titulo: Cierre
      template: "Observaciones de cierre:"
      required: true

  users:
    - {id: 1, nombre: Administrador}
`
