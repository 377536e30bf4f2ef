package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFileVar names a .env file that takes precedence over the path given
// to LoadEnvFile.
const EnvFileVar = "TRIPGLOT_ENV_FILE"

// LoadEnvFile loads variables from a .env file without overriding values
// already present in the environment. A missing default file is not an
// error; a missing explicitly requested file is. It returns the path that
// was loaded, or "" when nothing was.
func LoadEnvFile(path string) (string, error) {
	explicit := true
	if custom := strings.TrimSpace(os.Getenv(EnvFileVar)); custom != "" {
		path = custom
	} else if strings.TrimSpace(path) == "" {
		path = ".env"
		explicit = false
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("load env file %s: %w", path, err)
	}
	return path, nil
}
