package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/skillmerge/skillmerge/internal/utils"
)

var (
	vCfg   = viper.New()
	cfgDir string
)

const (
	gitBinaryKey      = "git_binary"
	commandTimeoutKey = "command_timeout"
	backendKey        = "backend"
	enableRerereKey   = "enable_rerere"
	logLevelKey       = "log_level"
	maxParallelKey    = "max_parallel_merges"

	BackendExec   = "exec"
	BackendNative = "native"
)

var Backends = []string{BackendExec, BackendNative}

func init() {
	setDefaults(vCfg)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(gitBinaryKey, "git")
	v.SetDefault(commandTimeoutKey, 30*time.Second)
	v.SetDefault(backendKey, BackendExec)
	v.SetDefault(enableRerereKey, true)
	v.SetDefault(maxParallelKey, 10)
	v.SetDefault(logLevelKey, "info")

	v.SetEnvPrefix("skillmerge")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load reads ~/.skillmerge/config.yaml if present. A missing file is not an error.
func Load() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	return LoadFrom(filepath.Join(home, ".skillmerge"))
}

// LoadFrom reads config.yaml from dir, replacing any previously loaded values.
func LoadFrom(dir string) error {
	cfgDir = dir

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(cfgDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	if backend := v.GetString(backendKey); !slices.Contains(Backends, backend) {
		return fmt.Errorf("invalid %s %q (available options: [%s])", backendKey, backend, strings.Join(Backends, ", "))
	}

	vCfg = v
	return nil
}

func GetGitBinary() string {
	return vCfg.GetString(gitBinaryKey)
}

func GetCommandTimeout() time.Duration {
	return vCfg.GetDuration(commandTimeoutKey)
}

func GetBackend() string {
	return vCfg.GetString(backendKey)
}

func ResolutionMemoryEnabled() bool {
	return vCfg.GetBool(enableRerereKey)
}

func GetMaxParallelMerges() int {
	if n := vCfg.GetInt(maxParallelKey); n > 0 {
		return n
	}
	return 1
}

func GetLogLevel() string {
	return vCfg.GetString(logLevelKey)
}

func SetBackend(backend string) error {
	if !slices.Contains(Backends, backend) {
		return fmt.Errorf("invalid %s %q (available options: [%s])", backendKey, backend, strings.Join(Backends, ", "))
	}
	vCfg.Set(backendKey, backend)
	return save()
}

func save() error {
	if cfgDir == "" {
		return fmt.Errorf("config has not been loaded")
	}
	if err := utils.CreateDirectory(filepath.Join(cfgDir, "config.yaml")); err != nil {
		return err
	}

	if err := vCfg.WriteConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}

		if err := vCfg.SafeWriteConfig(); err != nil {
			return err
		}
	}

	return nil
}
