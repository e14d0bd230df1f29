package scraper

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Credentials are the portal login of one server.
type Credentials struct {
	Login    string `env:"LOGIN,required,notEmpty"`
	Password string `env:"PASSWORD,required,notEmpty"`
}

// CredentialsFunc resolves the credentials of a server code.
type CredentialsFunc func(code string) (Credentials, error)

// LoadDotenv loads KEY=VALUE pairs from path into the process environment
// without overriding variables already set. A missing file is not an error.
func LoadDotenv(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// EnvPrefix returns the variable prefix of a server code: BW_R1_ for R1.
func EnvPrefix(code string) string {
	return "BW_" + strings.ToUpper(code) + "_"
}

// CredentialsFromEnv reads BW_<CODE>_LOGIN and BW_<CODE>_PASSWORD from the
// process environment.
func CredentialsFromEnv(code string) (Credentials, error) {
	return parseCredentials(code, env.Options{Prefix: EnvPrefix(code)})
}

// CredentialsFromMap is CredentialsFromEnv over an explicit environment.
func CredentialsFromMap(environ map[string]string) CredentialsFunc {
	return func(code string) (Credentials, error) {
		return parseCredentials(code, env.Options{Prefix: EnvPrefix(code), Environment: environ})
	}
}

func parseCredentials(code string, opts env.Options) (Credentials, error) {
	var c Credentials
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return Credentials{}, fmt.Errorf("%w for %s: %v", ErrMissingCredentials, code, err)
	}
	return c, nil
}
