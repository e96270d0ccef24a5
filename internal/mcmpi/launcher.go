package mcmpi

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// SessionTool is the terminal multiplexer servers are launched in.
const SessionTool = "screen"

// LaunchScripts are the start scripts looked for in an installed directory, in priority order.
var LaunchScripts = []string{"start.sh", "launch.sh"}

// ServerSession describes a server started in a detached session. Nothing owns the session once it is
// started; it outlives the installer and is never waited on.
type ServerSession struct {
	Name   string
	Script string
	Dir    string
}

// Spawner runs external commands.
type Spawner interface {
	// Probe reports whether the named tool is installed and can be run.
	Probe(ctx context.Context, name string, args ...string) error

	// Detach runs a control command that starts or drives a detached session. It returns as soon as
	// the control command does. Whatever the session goes on to run is abandoned.
	Detach(ctx context.Context, name string, args ...string) error
}

// ExecSpawner is a Spawner backed by os/exec.
type ExecSpawner struct {
	Logger logrus.FieldLogger
}

func (s *ExecSpawner) Probe(ctx context.Context, name string, args ...string) error {
	bin, err := exec.LookPath(name)
	if err != nil {
		return err
	}
	err = exec.CommandContext(ctx, bin, args...).Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// some screen versions exit non-zero after printing their version
		s.logger().WithField("exit_code", exitErr.ExitCode()).Debugf("%s probe exited non-zero", name)
		return nil
	}
	return err
}

func (s *ExecSpawner) Detach(ctx context.Context, name string, args ...string) error {
	err := exec.CommandContext(ctx, name, args...).Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		s.logger().WithFields(logrus.Fields{
			"command":   shellquote.Join(append([]string{name}, args...)...),
			"exit_code": exitErr.ExitCode(),
		}).Warn("session command exited non-zero")
		return nil
	}
	return err
}

func (s *ExecSpawner) logger() logrus.FieldLogger {
	if s == nil || s.Logger == nil {
		return discardLogger
	}
	return s.Logger
}

// Launcher starts servers in detached screen sessions.
type Launcher struct {
	// Spawner runs screen. Defaults to an ExecSpawner.
	Spawner Spawner
	Logger  logrus.FieldLogger

	// JavaPath, when set, is exported as JAVA and its directory is put first on PATH before the start
	// script runs.
	JavaPath string
}

// Launch starts the start script of targetDir in a new detached screen session and returns without
// waiting for it.
func (l *Launcher) Launch(ctx context.Context, targetDir string) (*ServerSession, error) {
	logger := l.logger()
	spawner := l.spawner()
	err := spawner.Probe(ctx, SessionTool, "-v")
	if err != nil {
		return nil, newError(ErrToolMissing, SessionTool, err)
	}
	absDir, err := filepath.Abs(targetDir)
	if err != nil {
		return nil, newError(ErrLaunch, targetDir, err)
	}
	script, err := findLaunchScript(absDir)
	if err != nil {
		return nil, err
	}
	session := &ServerSession{
		Name:   SessionName(absDir),
		Script: script,
		Dir:    absDir,
	}
	command := LaunchCommand(absDir, script, l.JavaPath)
	logger.WithFields(logrus.Fields{
		"session": session.Name,
		"command": command,
	}).Debug("starting session")

	err = spawner.Detach(ctx, SessionTool, "-dmS", session.Name)
	if err != nil {
		return nil, newError(ErrLaunch, session.Name, err)
	}
	err = spawner.Detach(ctx, SessionTool, "-S", session.Name, "-X", "stuff", screenEscape(command)+`\n`)
	if err != nil {
		return nil, newError(ErrLaunch, session.Name, err)
	}
	return session, nil
}

func (l *Launcher) spawner() Spawner {
	if l.Spawner == nil {
		return &ExecSpawner{Logger: l.Logger}
	}
	return l.Spawner
}

func (l *Launcher) logger() logrus.FieldLogger {
	if l.Logger == nil {
		return discardLogger
	}
	return l.Logger
}

func findLaunchScript(dir string) (string, error) {
	for _, script := range LaunchScripts {
		if fileExists(filepath.Join(dir, script)) {
			return script, nil
		}
	}
	return "", newError(ErrLaunchScriptMissing, dir, fmt.Errorf("none of %s found", strings.Join(LaunchScripts, ", ")))
}

// SessionName returns a new session name for dir. Every call returns a different name so that
// launches never attach to an existing session.
func SessionName(dir string) string {
	name := "mcmpi-"
	if slug := slugify(filepath.Base(dir)); slug != "" {
		name += slug + "-"
	}
	return name + xid.New().String()
}

func slugify(s string) string {
	const maxLen = 24
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := b.String()
	if len(slug) > maxLen {
		slug = slug[:maxLen]
	}
	return strings.Trim(slug, "-")
}

// LaunchCommand is the shell command typed into the session to start the server.
func LaunchCommand(dir, script, javaPath string) string {
	scriptPath := "./" + script
	command := fmt.Sprintf("cd %s && chmod +x %s && ", shellquote.Join(dir), shellquote.Join(scriptPath))
	if javaPath != "" {
		command += fmt.Sprintf(`JAVA=%s PATH=%s:"$PATH" `, shellquote.Join(javaPath), shellquote.Join(filepath.Dir(javaPath)))
	}
	return command + shellquote.Join(scriptPath)
}

var screenEscaper = strings.NewReplacer(
	`\`, `\\`,
	`^`, `\^`,
	`$`, `\$`,
	`"`, `\"`,
	`'`, `\'`,
)

// screenEscape protects s from screen's own processing of the stuff argument.
func screenEscape(s string) string {
	return screenEscaper.Replace(s)
}
