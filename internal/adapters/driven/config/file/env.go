package file

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix marks generic overrides: INTELLIDOCS_QA_TOP_K sets qa.top_k.
const EnvPrefix = "INTELLIDOCS_"

// envAliases maps well-known variables onto config keys.
//
//nolint:gosec // G101: variable names, not credentials.
var envAliases = map[string]string{
	"OPENAI_API_KEY":           "openai.api_key",
	"ANTHROPIC_API_KEY":        "anthropic.api_key",
	"INTELLIDOCS_DATABASE_URL": "vector.database_url",
	"INTELLIDOCS_DATA_DIR":     "storage.data_dir",
}

// LoadDotEnv loads KEY=VALUE files into the process environment. Variables
// already set are kept and missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// envOverrides turns KEY=VALUE pairs into config keys. The first underscore
// after the prefix separates the section from the field.
func envOverrides(environ []string) map[string]string {
	out := make(map[string]string)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" {
			continue
		}
		if key, ok := envAliases[name]; ok {
			out[key] = value
			continue
		}
		rest, ok := strings.CutPrefix(name, EnvPrefix)
		if !ok {
			continue
		}
		section, field, ok := strings.Cut(strings.ToLower(rest), "_")
		if !ok || section == "" || field == "" {
			continue
		}
		out[section+"."+field] = value
	}
	return out
}
