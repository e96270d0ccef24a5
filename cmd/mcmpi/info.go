package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/mcmpi/mcmpi/internal/mcmpi"
)

type infoCmd struct {
	Dir string `kong:"arg,required,name=dir,help=${dir_help},predictor=server"`
}

func (c *infoCmd) Run(ctx *runContext) error {
	meta, err := (&mcmpi.StateStore{}).ReadMetadata(ctx.path(c.Dir))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s was not installed by mcmpi", c.Dir)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.stdout, meta.String())
	return nil
}
