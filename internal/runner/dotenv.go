package runner

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// LoadDotenv reads a dotenv file into a map for the test subprocess
// environment. A missing file is not an error: the downloaded workspace may
// legitimately ship without one.
func LoadDotenv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			zap.S().Debugw("no dotenv file", "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat dotenv file %s: %w", path, err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dotenv file %s: %w", path, err)
	}
	zap.S().Infow("loaded dotenv", "path", path, "vars", len(env))
	return env, nil
}
