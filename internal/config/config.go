package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

const SupportedVersion = "1"

// Config represents the complete configuration structure
type Config struct {
	Version string        `yaml:"version" default:"1"`
	Site    SiteConfig    `yaml:"site"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Editor  EditorConfig  `yaml:"editor"`
	Auth    AuthConfig    `yaml:"auth"`
	Store   StoreConfig   `yaml:"store"`
	Theme   ThemeConfig   `yaml:"theme"`
	Content ContentConfig `yaml:"content"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
}

type SiteConfig struct {
	Name        string `yaml:"name" default:"Inkwell"`
	Description string `yaml:"description" default:"Write a blog post and keep it"`
}

type ServerConfig struct {
	Host string `yaml:"host" default:"0.0.0.0"`
	Port string `yaml:"port" default:"12600"`
}

type EditorConfig struct {
	Placeholder  string `yaml:"placeholder" default:"Write your content here..."`
	CodeLanguage string `yaml:"code_language" default:"javascript"`
	// SingleFlight rejects a save while another one for the same draft is pending.
	SingleFlight bool `yaml:"single_flight" default:"false"`
	LivePreview  bool `yaml:"live_preview" default:"true"`
}

type AuthConfig struct {
	// Type is one of ed25519, clerk or firebase.
	Type          string      `yaml:"type" default:"ed25519"`
	DefaultAvatar string      `yaml:"default_avatar" default:"/static/img/default-avatar.svg"`
	Owner         OwnerConfig `yaml:"owner"`
}

// OwnerConfig is the identity a verified ed25519 key signs in as.
type OwnerConfig struct {
	UID         string `yaml:"uid" default:"owner"`
	DisplayName string `yaml:"display_name" default:""`
	PhotoURL    string `yaml:"photo_url" default:""`
}

type StoreConfig struct {
	// Backend is one of memory, sqlite, postgres, s3 or firestore.
	Backend          string `yaml:"backend" default:"sqlite"`
	SQLitePath       string `yaml:"sqlite_path" default:"./inkwell.db"`
	S3Bucket         string `yaml:"s3_bucket" default:""`
	S3Endpoint       string `yaml:"s3_endpoint" default:""`
	S3Region         string `yaml:"s3_region" default:"us-east-1"`
	FirestoreProject string `yaml:"firestore_project" default:""`
}

type ThemeConfig struct {
	Default            string       `yaml:"default" default:"dark"`
	AllowSwitching     bool         `yaml:"allow_switching" default:"true"`
	SyntaxHighlighting SyntaxConfig `yaml:"syntax_highlighting"`
}

type SyntaxConfig struct {
	DefaultDark  string `yaml:"default_dark" default:"gruvbox"`
	DefaultLight string `yaml:"default_light" default:"catppuccin-latte"`
}

type ContentConfig struct {
	Renderer string `yaml:"renderer" default:"mmark"`
}

var AppConfig *Config

// Default returns a Config with every default applied.
func Default() *Config {
	c := &Config{}
	applyDefaults(c)
	return c
}

func LoadConfig(path string) error {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, just use defaults
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
		AppConfig = config
		return nil
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return err
	}

	AppConfig = config
	return nil
}

// Validate checks the values that have a closed set of options.
func (c *Config) Validate() error {
	if c.Version != SupportedVersion {
		return fmt.Errorf("unsupported configuration version %q", c.Version)
	}
	switch c.Auth.Type {
	case AuthEd25519, AuthClerk, AuthFirebase:
	default:
		return fmt.Errorf("unknown auth type %q", c.Auth.Type)
	}
	switch c.Store.Backend {
	case StoreMemory, StoreSQLite, StorePostgres, StoreS3, StoreFirestore:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == StoreS3 && c.Store.S3Bucket == "" {
		return fmt.Errorf("store backend %q requires s3_bucket", StoreS3)
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging level %q: %w", c.Logging.Level, err)
	}
	return nil
}

// Addr is the listen address built from the server section.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
