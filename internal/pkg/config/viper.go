package config

import (
	"bytes"
	"errors"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. OTPAUTH_JWT_SECRET
// overrides jwt.secret.
const EnvPrefix = "OTPAUTH"

// Viper is a Config implementation backed by github.com/spf13/viper.
type Viper struct {
	v *viper.Viper
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// NewViper loads configuration from the given file path, watches it for
// changes, and applies OTPAUTH_* environment overrides on every read.
func NewViper(pathFile string) (*Viper, error) {
	v := newViper()

	filename := path.Base(pathFile)
	v.AddConfigPath(path.Dir(pathFile))
	v.SetConfigName(strings.TrimSuffix(filename, path.Ext(filename)))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("config reloaded", "path", pathFile, "op", e.Op.String())
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes loads configuration from memory.
// configType should be a format supported by Viper (e.g. "yaml", "json").
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config type is required")
	}

	v := newViper()
	v.SetConfigType(configType)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

// GetBool returns the value for key as bool.
func (vc *Viper) GetBool(key string) bool { return vc.v.GetBool(key) }

// GetInt returns the value for key as int.
func (vc *Viper) GetInt(key string) int { return vc.v.GetInt(key) }

// GetInt32 returns the value for key as int32.
func (vc *Viper) GetInt32(key string) int32 { return vc.v.GetInt32(key) }

// GetInt64 returns the value for key as int64.
func (vc *Viper) GetInt64(key string) int64 { return vc.v.GetInt64(key) }

// GetUint returns the value for key as uint.
func (vc *Viper) GetUint(key string) uint { return vc.v.GetUint(key) }

// GetFloat64 returns the value for key as float64.
func (vc *Viper) GetFloat64(key string) float64 { return vc.v.GetFloat64(key) }

// GetString returns the value for key as string.
func (vc *Viper) GetString(key string) string { return vc.v.GetString(key) }

// GetSecond returns the value for key as seconds.
func (vc *Viper) GetSecond(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Second
}

// GetMinute returns the value for key as minutes.
func (vc *Viper) GetMinute(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Minute
}

// GetDay returns the value for key as days (24h).
func (vc *Viper) GetDay(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * 24 * time.Hour
}

// GetArray returns the value for key as a list.
func (vc *Viper) GetArray(key string) []string {
	var raw []string
	if list, ok := vc.v.Get(key).([]any); ok {
		raw = lo.Map(list, func(item any, _ int) string {
			s, _ := item.(string)
			return s
		})
	} else {
		raw = strings.Split(vc.v.GetString(key), ",")
	}

	return lo.Compact(lo.Map(raw, func(item string, _ int) string {
		return strings.TrimSpace(item)
	}))
}

// Close implements io.Closer for interface compatibility.
func (vc *Viper) Close() error {
	return nil
}
