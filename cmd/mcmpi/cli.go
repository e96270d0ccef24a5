package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/mcmpi/mcmpi/internal/config"
	"github.com/mcmpi/mcmpi/internal/logging"
	"github.com/mcmpi/mcmpi/internal/mcmpi"
	"github.com/posener/complete"
	"github.com/sirupsen/logrus"
	"github.com/willabides/kongplete"
	"golang.org/x/term"
)

var kongVars = kong.Vars{
	"config_help":                     `config file with flag defaults. mcmpi.yaml and ~/.config/mcmpi/config.yaml are read when they exist`,
	"workdir_help":                    `directory archives are downloaded to and servers are installed in`,
	"quiet_help":                      `suppress output to stdout`,
	"log_level_help":                  `minimum level of log messages`,
	"log_file_help":                   `also write log messages to this file`,
	"install_help":                    `download and install a modpack server. this is the default command`,
	"url_help":                        `url of the modpack server archive`,
	"redownload_help":                 `download the archive even if it already exists`,
	"reinstall_help":                  `extract the archive even if the server directory already exists`,
	"keep_zip_help":                   `keep the archive after extracting it`,
	"eula_help":                       `accept the minecraft eula`,
	"start_help":                      `start the server in a detached screen session`,
	"java_help":                       `java executable for the start script to use`,
	"output_help":                     `server directory. defaults to the archive name without its extension`,
	"info_help":                       `show where an installed server came from`,
	"start_cmd_help":                  `start an installed server in a detached screen session`,
	"dir_help":                        `server directory`,
	"config_cmd_help":                 `inspect config files`,
	"config_schema_help":              `print the json schema of config files`,
	"config_validate_help":            `check a config file against the schema`,
	"config_install_completions_help": `install shell completions`,
}

type rootCmd struct {
	ConfigFile kong.ConfigFlag `kong:"name=config,help=${config_help},predictor=file,env='MCMPI_CONFIG'"`
	Workdir    string          `kong:"short='C',type=path,help=${workdir_help},predictor=dir,env='MCMPI_WORKDIR'"`
	Quiet      bool            `kong:"short='q',help=${quiet_help}"`
	LogLevel   string          `kong:"name=log-level,enum='debug,info,warn,error',default=info,help=${log_level_help},env='MCMPI_LOG_LEVEL'"`
	LogFile    string          `kong:"name=log-file,type=path,help=${log_file_help},predictor=file,env='MCMPI_LOG_FILE'"`

	Install installCmd `kong:"cmd,default='withargs',help=${install_help}"`
	Info    infoCmd    `kong:"cmd,help=${info_help}"`
	Start   startCmd   `kong:"cmd,help=${start_cmd_help}"`
	Config  configCmd  `kong:"cmd,help=${config_cmd_help}"`

	Version            versionCmd                   `kong:"cmd,help='show mcmpi version'"`
	InstallCompletions kongplete.InstallCompletions `kong:"cmd,help=${config_install_completions_help}"`
}

type runContext struct {
	parent  context.Context
	stdout  io.Writer
	stderr  io.Writer
	rootCmd *rootCmd
	logger  *logrus.Logger
	spawner mcmpi.Spawner
}

func newRunContext(ctx context.Context) *runContext {
	return &runContext{
		parent: ctx,
	}
}

func (r *runContext) Deadline() (deadline time.Time, ok bool) {
	return r.parent.Deadline()
}

func (r *runContext) Done() <-chan struct{} {
	return r.parent.Done()
}

func (r *runContext) Err() error {
	return r.parent.Err()
}

func (r *runContext) Value(key any) any {
	return r.parent.Value(key)
}

// path resolves name against the work directory.
func (r *runContext) path(name string) string {
	if r.rootCmd.Workdir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(r.rootCmd.Workdir, name)
}

// progress is where download progress is rendered. Progress bars only make sense on a terminal.
func (r *runContext) progress() io.Writer {
	if r.rootCmd.Quiet {
		return nil
	}
	f, ok := r.stderr.(interface{ Fd() uintptr })
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return r.stderr
}

func (r *runContext) installer() *mcmpi.Installer {
	return &mcmpi.Installer{
		WorkDir:  r.rootCmd.Workdir,
		Fetcher:  &mcmpi.HTTPFetcher{UserAgent: mcmpi.UserAgent(version)},
		Store:    &mcmpi.StateStore{},
		Spawner:  r.spawner,
		Logger:   r.logger,
		Progress: r.progress(),
	}
}

func (r *runContext) launcher(javaPath string) *mcmpi.Launcher {
	return &mcmpi.Launcher{
		Spawner:  r.spawner,
		Logger:   r.logger,
		JavaPath: javaPath,
	}
}

type runOpts struct {
	stdout      io.Writer
	stderr      io.Writer
	cmdName     string
	exitHandler func(int)

	// configPaths replaces config.DefaultPaths when not nil
	configPaths []string
	spawner     mcmpi.Spawner
}

// Run let's light this candle
func Run(ctx context.Context, args []string, opts *runOpts) {
	if opts == nil {
		opts = &runOpts{}
	}
	var root rootCmd
	runCtx := newRunContext(ctx)
	runCtx.rootCmd = &root
	runCtx.spawner = opts.spawner
	runCtx.stdout = opts.stdout
	if runCtx.stdout == nil {
		runCtx.stdout = os.Stdout
	}
	runCtx.stderr = opts.stderr
	if runCtx.stderr == nil {
		runCtx.stderr = os.Stderr
	}
	exit := opts.exitHandler
	if exit == nil {
		exit = os.Exit
	}
	configPaths := config.DefaultPaths
	if opts.configPaths != nil {
		configPaths = opts.configPaths
	}

	kongOptions := []kong.Option{
		kong.HelpOptions{Compact: true},
		kong.BindTo(runCtx, &runCtx),
		kongVars,
		kong.UsageOnError(),
		kong.Writers(runCtx.stdout, runCtx.stderr),
		kong.Exit(exit),
		kong.Configuration(config.Loader, configPaths...),
	}
	if opts.cmdName != "" {
		kongOptions = append(kongOptions, kong.Name(opts.cmdName))
	}

	parser, err := kong.New(&root, kongOptions...)
	if err != nil {
		name := opts.cmdName
		if name == "" {
			name = filepath.Base(os.Args[0])
		}
		fmt.Fprintf(runCtx.stderr, "%s: error: %v\n", name, err)
		exit(1)
		return
	}
	runCompletion(parser)

	kongCtx, err := parser.Parse(args)
	if err != nil {
		parser.FatalIfErrorf(err)
		return
	}
	console := runCtx.stdout
	if root.Quiet {
		runCtx.stdout = io.Discard
		kongCtx.Stdout = io.Discard
		console = nil
	}
	logger, closeLog, err := logging.New(logging.Options{
		Level:   root.LogLevel,
		Console: console,
		File:    root.LogFile,
	})
	if err != nil {
		kongCtx.FatalIfErrorf(err)
		return
	}
	runCtx.logger = logger
	err = kongCtx.Run()
	if closeErr := closeLog(); err == nil {
		err = closeErr
	}
	if err != nil {
		kongCtx.Errorf("%s", err)
		kongCtx.Exit(mcmpi.ExitCode(err))
	}
}

func runCompletion(parser *kong.Kong) {
	kongplete.Complete(parser,
		kongplete.WithPredictor("file", complete.PredictFiles("*")),
		kongplete.WithPredictor("dir", complete.PredictDirs("*")),
		kongplete.WithPredictor("server", serverCompleter),
	)
}
