package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type AppConfig struct {
	k *koanf.Koanf
}

func NewAppConfig() *AppConfig {
	c := &AppConfig{k: koanf.New(".")}

	setDefaults(c.k)

	return c
}

func (c *AppConfig) Load(filename ...string) bool {
	loaded := false

	for _, name := range filename {
		if err := c.k.Load(file.Provider(name), yaml.Parser()); err != nil {
			slog.Info(fmt.Sprintf("error loading config: %s", err.Error()))
		} else {
			loaded = true
		}
	}

	return loaded
}

func (c *AppConfig) LoadEnv(prefix string) error {
	return c.k.Load(env.Provider(prefix, ".", func(s string) string {
		s1 := strings.ToLower(strings.TrimPrefix(s, prefix))
		for _, pr := range []string{"jwt_", "fees_"} {
			if strings.HasPrefix(s1, pr) {
				slog.Info("ENV param: " + strings.Replace(s1, "_", ".", 1))
				return strings.Replace(s1, "_", ".", 1)
			}
		}
		slog.Info("ENV param: " + s1)

		return s1
	}), nil)
}

func (c *AppConfig) Bool(key string) bool {
	return c.k.Bool(key)
}

func (c *AppConfig) String(key string) string {
	return c.k.String(key)
}

func (c *AppConfig) Int(key string) int {
	return c.k.Int(key)
}

func (c *AppConfig) Set(key string, v any) error {
	return c.k.Set(key, v)
}

func (c *AppConfig) ApiAddr() string {
	return c.k.String("api_addr")
}

func (c *AppConfig) AdminAddr() string {
	return c.k.String("admin_addr")
}

func (c *AppConfig) DB() string {
	return c.k.String("db")
}

func (c *AppConfig) DataDir() string {
	return c.k.String("data_dir")
}

func (c *AppConfig) UsersFile() string {
	return c.k.String("users_file")
}

func (c *AppConfig) WelcomeMsg() string {
	return c.k.String("welcome_msg")
}

func (c *AppConfig) LogAll() bool {
	return c.k.Bool("log")
}

func (c *AppConfig) JwtKey() string {
	return c.k.String("jwt.key")
}

func (c *AppConfig) JwtTTLHours() int {
	return c.k.Int("jwt.ttl_hours")
}

func setDefaults(k *koanf.Koanf) {
	k.Set("api_addr", ":8080")
	k.Set("admin_addr", "localhost:8088")
	k.Set("data_dir", "data")

	k.Set("db", "db.sqlite")
	k.Set("users_file", "users.yml")

	k.Set("jwt.ttl_hours", 24)
}
