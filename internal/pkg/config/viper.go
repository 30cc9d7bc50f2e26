package config

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Viper implements Config on top of spf13/viper.
type Viper struct {
	v    *viper.Viper
	file string
}

// NewViperFromBytes reads an in-memory document of configType ("yaml",
// "json", "toml") over the usual defaults.
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config type is required")
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	applyLegacyKeys(v)

	return &Viper{v: v}, nil
}

// File is the config file Load read, "" if none.
func (vc *Viper) File() string { return vc.file }

func (vc *Viper) Require(keys ...string) error {
	blank, found := lo.Find(keys, func(key string) bool {
		return strings.TrimSpace(vc.v.GetString(key)) == ""
	})
	if found {
		return fmt.Errorf("%s must be set in environment variables or config file", blank)
	}
	return nil
}

func (vc *Viper) GetString(key string) string   { return vc.v.GetString(key) }
func (vc *Viper) GetBool(key string) bool       { return vc.v.GetBool(key) }
func (vc *Viper) GetInt(key string) int         { return vc.v.GetInt(key) }
func (vc *Viper) GetFloat64(key string) float64 { return vc.v.GetFloat64(key) }

func (vc *Viper) GetSecond(key string) time.Duration { return vc.scaled(key, time.Second) }
func (vc *Viper) GetMinute(key string) time.Duration { return vc.scaled(key, time.Minute) }

func (vc *Viper) scaled(key string, unit time.Duration) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * unit
}

// GetArray keeps native lists and splits strings on commas, which is how
// list values arrive from the environment. Blank entries are dropped.
func (vc *Viper) GetArray(key string) []string {
	var items []string
	switch raw := vc.v.Get(key).(type) {
	case nil:
		return nil
	case []any:
		items = lo.Map(raw, func(item any, _ int) string { return fmt.Sprint(item) })
	case []string:
		items = raw
	default:
		items = strings.Split(vc.v.GetString(key), ",")
	}

	out := lo.Compact(lo.Map(items, func(item string, _ int) string { return strings.TrimSpace(item) }))
	if len(out) == 0 {
		return nil
	}
	return out
}

// Close is a no-op: viper has no way to stop its file watcher.
func (vc *Viper) Close() error { return nil }
