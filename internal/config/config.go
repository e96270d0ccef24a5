// Package config loads mcmpi config files. A config file holds defaults for command line flags.
package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/alecthomas/kong"
	invopop "github.com/invopop/jsonschema"
	"github.com/qri-io/jsonschema"
	"gopkg.in/yaml.v3"
)

// DefaultPaths are the config files read when they exist.
var DefaultPaths = []string{
	"mcmpi.yaml",
	"~/.config/mcmpi/config.yaml",
}

// File is the content of a config file. Keys match the long flag names with dashes replaced by underscores.
type File struct {
	Redownload bool   `yaml:"redownload,omitempty" json:"redownload,omitempty" jsonschema:"description=download the archive even if it already exists"`
	Reinstall  bool   `yaml:"reinstall,omitempty" json:"reinstall,omitempty" jsonschema:"description=extract the archive even if the target directory exists"`
	KeepZip    bool   `yaml:"keep_zip,omitempty" json:"keep_zip,omitempty" jsonschema:"description=keep the archive after extracting it"`
	Eula       bool   `yaml:"eula,omitempty" json:"eula,omitempty" jsonschema:"description=accept the server license"`
	Start      bool   `yaml:"start,omitempty" json:"start,omitempty" jsonschema:"description=start the server in a screen session"`
	Java       string `yaml:"java,omitempty" json:"java,omitempty" jsonschema:"description=path to the java executable used by start scripts"`
	Workdir    string `yaml:"workdir,omitempty" json:"workdir,omitempty" jsonschema:"description=directory archives and servers are written to"`
	LogLevel   string `yaml:"log_level,omitempty" json:"log_level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	LogFile    string `yaml:"log_file,omitempty" json:"log_file,omitempty" jsonschema:"description=file logs are appended to"`
}

var (
	_schema     *invopop.Schema
	_schemaText []byte
)

// Schema returns the json schema config files are validated against.
func Schema() *invopop.Schema {
	if _schema == nil {
		r := &invopop.Reflector{
			ExpandedStruct: true,
		}
		_schema = r.Reflect(&File{})
		_schema.ID = "https://mcmpi.github.io/mcmpi/config.schema.json"
	}
	return _schema
}

func schemaText() ([]byte, error) {
	if _schemaText != nil {
		return _schemaText, nil
	}
	s := *Schema()
	// the validator only knows draft 2019-09
	s.Version = ""
	s.ID = ""
	text, err := json.Marshal(&s)
	if err != nil {
		return nil, err
	}
	_schemaText = text
	return text, nil
}

// Validate checks that content is yaml (or json) meeting the config schema and returns it as json.
func Validate(ctx context.Context, content []byte) ([]byte, error) {
	var val any
	err := yaml.Unmarshal(content, &val)
	if err != nil {
		return nil, fmt.Errorf("config is not valid yaml (or json)")
	}
	if val == nil {
		val = map[string]any{}
	}
	cfgJSON, err := json.Marshal(val)
	if err != nil {
		return nil, fmt.Errorf("config is not valid yaml (or json)")
	}
	text, err := schemaText()
	if err != nil {
		return nil, err
	}
	rs := &jsonschema.Schema{}
	err = json.Unmarshal(text, rs)
	if err != nil {
		return nil, err
	}
	validationErrs, err := rs.ValidateBytes(ctx, cfgJSON)
	if err != nil {
		return nil, fmt.Errorf("unexpected error validating config: %v", err)
	}
	if len(validationErrs) == 0 {
		return cfgJSON, nil
	}
	msgs := make([]string, len(validationErrs))
	for i, validationErr := range validationErrs {
		msgs[i] = validationErr.Error()
	}
	sort.Strings(msgs)
	return nil, fmt.Errorf("invalid config:\n%s", strings.Join(msgs, "\n"))
}

// Parse validates content and decodes it.
func Parse(ctx context.Context, content []byte) (*File, error) {
	cfgJSON, err := Validate(ctx, content)
	if err != nil {
		return nil, err
	}
	var file File
	err = json.Unmarshal(cfgJSON, &file)
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// Loader is a kong.ConfigurationLoader for config files.
func Loader(r io.Reader) (kong.Resolver, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cfgJSON, err := Validate(context.Background(), content)
	if err != nil {
		return nil, err
	}
	return kong.JSON(bytes.NewReader(cfgJSON))
}
