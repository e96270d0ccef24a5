package main

import (
	"github.com/mcmpi/mcmpi/internal/mcmpi"
)

type installCmd struct {
	URL        string `kong:"arg,required,name=url,help=${url_help}"`
	Redownload bool   `kong:"help=${redownload_help}"`
	Reinstall  bool   `kong:"help=${reinstall_help}"`
	KeepZip    bool   `kong:"name=keep-zip,help=${keep_zip_help}"`
	Eula       bool   `kong:"help=${eula_help}"`
	Start      bool   `kong:"help=${start_help}"`
	Java       string `kong:"help=${java_help},predictor=file"`
	Output     string `kong:"name=out,short='o',help=${output_help},predictor=dir"`
}

func (c *installCmd) Run(ctx *runContext) error {
	_, err := ctx.installer().Run(ctx, &mcmpi.InstallRequest{
		URL:           c.URL,
		Redownload:    c.Redownload,
		Reinstall:     c.Reinstall,
		KeepArchive:   c.KeepZip,
		AcceptLicense: c.Eula,
		Start:         c.Start,
		OutputDir:     c.Output,
		JavaPath:      c.Java,
	})
	return err
}

type startCmd struct {
	Dir  string `kong:"arg,required,name=dir,help=${dir_help},predictor=server"`
	Java string `kong:"help=${java_help},predictor=file"`
}

func (c *startCmd) Run(ctx *runContext) error {
	session, err := ctx.launcher(c.Java).Launch(ctx, ctx.path(c.Dir))
	if err != nil {
		return err
	}
	ctx.logger.Infof("Server started in screen %s.", session.Name)
	ctx.logger.Infof("Attach with: screen -r %s", session.Name)
	return nil
}
