// Copyright (c) 2025 Siteman Authors
// Siteman - site bootstrap and management CLI
// This source code is licensed under the MIT license found in the LICENSE file.

// package config loads the site settings from environment variables.
// Every knob the process reacts to is declared here; nothing else in the
// codebase reads the environment directly (connection pool tuning in the
// db package being the one documented exception).
package config // import "siteman/internal/config"

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// devSecretKey is the fallback signing key used when SECRET_KEY is unset
// in debug mode. Starting without debug and without SECRET_KEY is an error.
const devSecretKey = "insecure-development-secret-key"

// Engine names accepted for the database backend.
const (
	EnginePostgres = "postgres"
	EngineMySQL    = "mysql"
	EngineSQLite   = "sqlite"
)

// Database describes the configured database backend.
type Database struct {
	Engine   string
	Name     string
	User     string
	Password string
	Host     string
	Port     int
}

// DSN renders the driver-specific data source name for the configured engine.
func (d Database) DSN() string {
	switch d.Engine {
	case EnginePostgres:
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			d.Host, d.Port, d.User, d.Password, d.Name)
	case EngineMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			d.User, d.Password, d.Host, d.Port, d.Name)
	default:
		return d.Name
	}
}

// Static holds the static asset settings.
type Static struct {
	URL  string
	Root string
	Dirs []string
}

// Settings is the effective site configuration. A value is immutable after
// Load returns it.
type Settings struct {
	Debug        bool
	SecretKey    string `yaml:"-"`
	AllowedHosts []string
	LogLevel     string
	GitSHA       string
	Addr         string
	WorkerCount  int
	Static       Static
	Database     Database
	NoMigrate    bool
	NoCollect    bool
}

// RequiredVarError reports a required environment variable that was not set.
type RequiredVarError struct {
	Name string
}

func (e *RequiredVarError) Error() string {
	return fmt.Sprintf("settings: error: required environment variable %q is not set", e.Name)
}

// Load reads the settings from the environment. It never mutates the
// environment and returns an error naming the first missing required
// variable.
func Load() (*Settings, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)

	v.SetDefault("SITE_ADDR", "0.0.0.0:8000")
	v.SetDefault("WORKER_COUNT", 4)
	v.SetDefault("STATIC_URL", "/static/")
	v.SetDefault("STATIC_ROOT", "/tmp/www")
	v.SetDefault("STATIC_DIRS", "./static")
	v.SetDefault("DATABASE_NAME", "")

	s := &Settings{
		Debug:       envFlag("DEBUG"),
		GitSHA:      v.GetString("GIT_SHA"),
		Addr:        v.GetString("SITE_ADDR"),
		WorkerCount: v.GetInt("WORKER_COUNT"),
		NoMigrate:   envFlag("NO_MIGRATION"),
		NoCollect:   envFlag("NO_COLLECT"),
	}

	s.LogLevel = v.GetString("LOG_LEVEL")
	if s.LogLevel == "" {
		if s.Debug {
			s.LogLevel = "debug"
		} else {
			s.LogLevel = "info"
		}
	}

	s.SecretKey = v.GetString("SECRET_KEY")
	if s.SecretKey == "" {
		if !s.Debug {
			return nil, &RequiredVarError{Name: "SECRET_KEY"}
		}
		s.SecretKey = devSecretKey
	}

	if s.Debug {
		s.AllowedHosts = []string{"*"}
	} else {
		raw, err := required(v, "ALLOWED_HOSTS")
		if err != nil {
			return nil, err
		}
		s.AllowedHosts = splitList(raw)
		if len(s.AllowedHosts) == 0 {
			return nil, fmt.Errorf("settings: error: ALLOWED_HOSTS contains no usable entries")
		}
	}

	if s.WorkerCount < 1 {
		return nil, fmt.Errorf("settings: error: WORKER_COUNT must be positive, got %d", s.WorkerCount)
	}

	s.Static = Static{
		URL:  v.GetString("STATIC_URL"),
		Root: v.GetString("STATIC_ROOT"),
		Dirs: splitList(v.GetString("STATIC_DIRS")),
	}
	if !strings.HasPrefix(s.Static.URL, "/") {
		return nil, fmt.Errorf("settings: error: STATIC_URL must start with a slash, got %q", s.Static.URL)
	}
	// Serving static files from the site root would shadow every other
	// route.
	if strings.TrimRight(s.Static.URL, "/") == "" {
		return nil, fmt.Errorf("settings: error: STATIC_URL must not be the site root, got %q", s.Static.URL)
	}

	db, err := loadDatabase(v, s.Debug)
	if err != nil {
		return nil, err
	}
	s.Database = db

	return s, nil
}

// loadDatabase resolves the database backend. Setting DATABASE_HOST selects
// a server engine (postgres unless DATABASE_ENGINE says mysql) and makes the
// remaining connection variables mandatory; without it the site falls back
// to a local SQLite file.
func loadDatabase(v *viper.Viper, debug bool) (Database, error) {
	host := v.GetString("DATABASE_HOST")
	if host == "" {
		name := v.GetString("DATABASE_NAME")
		if name == "" {
			name = "./siteman.db"
		}
		return Database{Engine: EngineSQLite, Name: name}, nil
	}

	engine := strings.ToLower(v.GetString("DATABASE_ENGINE"))
	switch engine {
	case "":
		engine = EnginePostgres
	case EnginePostgres, EngineMySQL:
	default:
		return Database{}, fmt.Errorf("settings: error: unsupported DATABASE_ENGINE %q", engine)
	}

	db := Database{Engine: engine, Host: host}
	var err error
	if db.Name, err = required(v, "DATABASE_NAME"); err != nil {
		return Database{}, err
	}
	if db.User, err = required(v, "DATABASE_USER"); err != nil {
		return Database{}, err
	}
	if db.Password, err = required(v, "DATABASE_PASSWORD"); err != nil {
		return Database{}, err
	}
	if _, err = required(v, "DATABASE_PORT"); err != nil {
		return Database{}, err
	}
	db.Port = v.GetInt("DATABASE_PORT")
	if db.Port < 1 || db.Port > 65535 {
		return Database{}, fmt.Errorf("settings: error: DATABASE_PORT must be in 1..65535, got %q", v.GetString("DATABASE_PORT"))
	}
	return db, nil
}

// required fetches a variable or reports it missing by name.
func required(v *viper.Viper, name string) (string, error) {
	if s := v.GetString(name); s != "" {
		return s, nil
	}
	return "", &RequiredVarError{Name: name}
}

// envFlag implements presence-style toggles: the variable being set at all
// turns the flag on, except for explicit negations.
func envFlag(name string) bool {
	val, ok := os.LookupEnv(name)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "0", "false", "no", "off":
		return false
	}
	return true
}

// splitList splits a ";"-separated env value, trimming whitespace and
// dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// HostAllowed reports whether the given request host (without port) matches
// the allowed hosts list. A single "*" entry allows everything.
func (s *Settings) HostAllowed(host string) bool {
	for _, allowed := range s.AllowedHosts {
		if allowed == "*" || strings.EqualFold(allowed, host) {
			return true
		}
	}
	return false
}
