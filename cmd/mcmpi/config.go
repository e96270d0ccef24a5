package main

import (
	"encoding/json"
	"os"

	"github.com/mcmpi/mcmpi/internal/config"
)

type configCmd struct {
	Schema   configSchemaCmd   `kong:"cmd,help=${config_schema_help}"`
	Validate configValidateCmd `kong:"cmd,help=${config_validate_help}"`
}

type configSchemaCmd struct{}

func (c *configSchemaCmd) Run(ctx *runContext) error {
	encoder := json.NewEncoder(ctx.stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(config.Schema())
}

type configValidateCmd struct {
	File string `kong:"arg,required,type=existingfile,help='config file to validate',predictor=file"`
}

func (c *configValidateCmd) Run(ctx *runContext) error {
	content, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	_, err = config.Validate(ctx, content)
	return err
}
