package adapters

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/joho/godotenv"

	"poetry-migrate/internal/ports"
)

const defaultEnvFile = ".env"

// EnvFileAdapter reads dotenv files, typically holding private repository
// credentials for the package manager.
type EnvFileAdapter struct{}

func NewEnvFileAdapter() EnvFileAdapter {
	return EnvFileAdapter{}
}

// Load reads file relative to dir. A missing default file yields no
// variables; a missing explicitly named file is an error.
func (a EnvFileAdapter) Load(dir string, file string) (map[string]string, error) {
	explicit := strings.TrimSpace(file) != ""
	if !explicit {
		file = defaultEnvFile
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(dir, file)
	}
	if _, err := os.Stat(file); err != nil {
		if os.IsNotExist(err) && !explicit {
			return map[string]string{}, nil
		}
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("env file not found: " + file).
			WithCause(err)
	}
	values, err := godotenv.Read(file)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse env file " + file).
			WithCause(err)
	}
	return values, nil
}

var _ ports.EnvPort = EnvFileAdapter{}
