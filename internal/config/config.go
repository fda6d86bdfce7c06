package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	KeyImageMount  = "image-mount"
	KeyDeviceMount = "device-mount"
	KeySilent      = "silent"
	KeyLogLevel    = "log-level"

	DefaultImageMount  = "/mnt/iso/"
	DefaultDeviceMount = "/mnt/target/"
	DefaultLogLevel    = "warn"

	envPrefix = "ISOBURN"
)

// Config holds the settings that are not positional arguments.
type Config struct {
	ImageMount  string
	DeviceMount string
	Silent      bool
	LogLevel    string
}

// BindFlags registers the configurable flags on fs.
func BindFlags(fs *pflag.FlagSet) {
	fs.String(KeyImageMount, DefaultImageMount, "mount point for ISO image")
	fs.String(KeyDeviceMount, DefaultDeviceMount, "mount point for block device")
	fs.Bool(KeySilent, false, "suppress log output")
	fs.String(KeyLogLevel, DefaultLogLevel, "diagnostic log level (trace, debug, info, warn, error)")
}

// Load resolves the configuration. Precedence: flags set on the command line,
// ISOBURN_* environment variables, isoburn.yaml, defaults.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetDefault(KeyImageMount, DefaultImageMount)
	v.SetDefault(KeyDeviceMount, DefaultDeviceMount)
	v.SetDefault(KeySilent, false)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("isoburn")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/isoburn")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "isoburn"))
	}
	if path := os.Getenv(envPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, errors.Wrap(err, "failed to read config file")
		}
	}

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return Config{}, errors.Wrap(err, "failed to bind flags")
		}
	}

	return Config{
		ImageMount:  v.GetString(KeyImageMount),
		DeviceMount: v.GetString(KeyDeviceMount),
		Silent:      v.GetBool(KeySilent),
		LogLevel:    v.GetString(KeyLogLevel),
	}, nil
}
