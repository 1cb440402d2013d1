package config

import (
	"os"

	yamlv2 "gopkg.in/yaml.v2"

	serrors "github.com/conneroisu/stylesync/internal/errors"
)

// CheckFile decodes the configuration file at path strictly: unknown keys,
// duplicate keys and type mismatches are all errors. Unlike Load it does
// not apply defaults, so it reports exactly what the file says.
func CheckFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, serrors.WrapIO(err, serrors.ErrCodeFileNotFound, "cannot read configuration file")
	}

	var config Config
	if err := yamlv2.UnmarshalStrict(data, &config); err != nil {
		return nil, serrors.WrapConfig(err, serrors.ErrCodeConfigInvalid, "configuration file is not valid").
			WithLocation(path, 0)
	}
	return &config, nil
}
