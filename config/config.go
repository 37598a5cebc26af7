package config

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/iot-lab/iotlab-cli/pkg/auth"
	"github.com/iot-lab/iotlab-cli/pkg/models"
	"github.com/iot-lab/iotlab-cli/pkg/rest"
	"github.com/iot-lab/iotlab-cli/pkg/utils"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	EnvPrefix       = "IOTLAB"
	RCFileEnv       = "IOTLABRC"
	DefaultLogLevel = "warning"

	configDir  = ".iotlab"
	configName = "config"
)

// DefaultConfigFile returns '~/.iotlab/config.yaml'.
func DefaultConfigFile() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDir, configName+".yaml"), nil
}

// Load reads settings from, by increasing priority: defaults, the config
// file, IOTLAB_* environment variables and overrides. Empty overrides are
// ignored. An explicit cfgFile must exist; the default one is optional.
func Load(cfgFile string, overrides map[string]string) (models.Settings, error) {
	v := viper.New()

	rcFile, err := auth.DefaultRCFile()
	if err != nil {
		return models.Settings{}, err
	}
	v.SetDefault("api-url", models.DefaultAPIURL)
	v.SetDefault("rcfile", rcFile)
	v.SetDefault("loglevel", DefaultLogLevel)
	v.SetDefault("proxy", "")

	if cfgFile != "" {
		cfgFile = utils.ExpandPath(cfgFile)
		if !utils.FileExists(cfgFile) {
			return models.Settings{}, models.Argumentf("Invalid config file path %q", cfgFile)
		}
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return models.Settings{}, err
		}
		v.AddConfigPath(filepath.Join(home, configDir))
		v.SetConfigName(configName)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("rcfile", RCFileEnv); err != nil {
		return models.Settings{}, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return models.Settings{}, err
		}
		utils.Log.Debug("no config file found")
	} else {
		utils.Log.Debugf("Using config file %s", v.ConfigFileUsed())
	}

	for key, value := range overrides {
		if value != "" {
			v.Set(key, value)
		}
	}

	var settings models.Settings
	if err := v.Unmarshal(&settings); err != nil {
		return models.Settings{}, err
	}
	settings.RCFile = utils.ExpandPath(settings.RCFile)
	return settings, nil
}

// NewClient builds the REST client described by settings.
func NewClient(settings models.Settings, creds models.Credentials) *rest.Client {
	client := rest.NewClient(settings.APIURL, creds)
	client.SetProxy(settings.Proxy)
	return client
}
