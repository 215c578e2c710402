package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	"github.com/spf13/viper"
)

// DefaultEnvFile is looked up in the working directory.
const DefaultEnvFile = ".env"

// Env resolves secrets and endpoints from the process environment, falling
// back to a dotenv file. The environment always wins over the file.
type Env struct {
	v *viper.Viper
}

// LoadEnv reads envFile if it exists. A missing file is not an error, since
// everything may as well be exported in the shell.
func LoadEnv(envFile string) (*Env, error) {
	v := viper.New()
	v.AutomaticEnv()
	if envFile == "" {
		return &Env{v: v}, nil
	}
	if _, err := os.Stat(envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if misc.Truthy(os.Getenv("DEBUG")) {
				ancli.PrintOK(fmt.Sprintf("no env file found at: '%v', using environment only\n", envFile))
			}
			return &Env{v: v}, nil
		}
		return nil, fmt.Errorf("failed to stat env file: %w", err)
	}
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read env file '%v': %w", envFile, err)
	}
	return &Env{v: v}, nil
}

// Get the value of key, or "" if unset.
func (e *Env) Get(key string) string {
	if e == nil || e.v == nil {
		return os.Getenv(key)
	}
	return e.v.GetString(key)
}

// Require the value of key, erroring if it's unset.
func (e *Env) Require(key string) (string, error) {
	val := e.Get(key)
	if val == "" {
		return "", fmt.Errorf("environment variable '%v' not set", key)
	}
	return val, nil
}

// GetOr returns the value of key, or fallback if unset.
func (e *Env) GetOr(key, fallback string) string {
	if val := e.Get(key); val != "" {
		return val
	}
	return fallback
}
