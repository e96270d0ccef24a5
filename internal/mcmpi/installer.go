package mcmpi

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// InstallRequest fully describes one installation run.
type InstallRequest struct {
	URL           string
	Redownload    bool
	Reinstall     bool
	KeepArchive   bool
	AcceptLicense bool
	Start         bool

	// OutputDir overrides the target directory name derived from URL.
	OutputDir string

	// JavaPath is passed to the launcher when Start is set.
	JavaPath string
}

// Report is what a Run did.
type Report struct {
	Paths           ResolvedPaths
	Downloaded      bool
	Extracted       bool
	ArchiveDeleted  bool
	LicenseAccepted bool
	MetadataWritten bool
	Session         *ServerSession

	// LaunchSkipped explains why the server was not started although Start was requested.
	LaunchSkipped string
}

// Installer downloads, extracts and launches modpacks.
type Installer struct {
	// WorkDir is the directory relative archive and target paths are resolved against.
	// Defaults to the current directory.
	WorkDir string

	Fetcher Fetcher
	Store   *StateStore
	Spawner Spawner
	Logger  logrus.FieldLogger

	// Progress receives a download progress bar when not nil.
	Progress io.Writer

	// remove deletes the archive after extraction. Defaults to os.Remove.
	remove func(name string) error
}

// Run performs req. Steps are run in order and the first failure stops the run. Nothing done by
// earlier steps is rolled back.
func (in *Installer) Run(ctx context.Context, req *InstallRequest) (*Report, error) {
	logger := in.logger()
	paths, err := ResolvePaths(req)
	if err != nil {
		return nil, err
	}
	report := &Report{Paths: paths}
	archivePath := in.path(paths.ArchiveFile)
	targetDir := in.path(paths.TargetDir)
	logger = logger.WithField("target", paths.TargetDir)

	logger.Infof("Downloading %s...", paths.ArchiveFile)
	if fileExists(archivePath) && !req.Redownload {
		logger.Infof("File %s already exists, skipping download.", paths.ArchiveFile)
	} else {
		err = downloadFile(ctx, in.fetcher(), req.URL, archivePath, in.Progress)
		if err != nil {
			return report, err
		}
		report.Downloaded = true
		logger.Info("Downloaded files.")
	}

	logger.Info("Unzipping files...")
	if fileExists(targetDir) && !req.Reinstall {
		logger.Infof("Directory %s already exists, skipping unzip.", paths.TargetDir)
	} else {
		extractor := &Extractor{Logger: logger}
		err = extractor.Extract(archivePath, targetDir)
		if err != nil {
			return report, err
		}
		report.Extracted = true
		logger.Infof("Unzipped files to %s.", paths.TargetDir)
		if !req.KeepArchive {
			err = in.removeFile(archivePath)
			if err != nil {
				return report, newError(ErrArchiveDelete, archivePath, err)
			}
			report.ArchiveDeleted = true
			logger.Info("Deleted zip file.")
		}
	}

	if req.AcceptLicense {
		err = AcceptLicense(targetDir)
		if err != nil {
			return report, err
		}
		report.LicenseAccepted = true
		logger.Info("Agreed to eula.")
	}

	report.MetadataWritten, err = in.Store.WriteMetadataIfAbsent(targetDir, paths.ArchiveFile, paths.DecodedURL)
	if err != nil {
		return report, err
	}
	if report.MetadataWritten {
		logger.Debugf("Wrote %s.", MetadataFile)
	}

	if !req.Start {
		return report, nil
	}
	launcher := &Launcher{
		Spawner:  in.spawner(),
		Logger:   logger,
		JavaPath: req.JavaPath,
	}
	report.Session, err = launcher.Launch(ctx, targetDir)
	if errors.Is(err, ErrToolMissing) {
		report.LaunchSkipped = err.Error()
		logger.Warn("Screen is not installed. Please install it first.")
		return report, nil
	}
	if err != nil {
		return report, err
	}
	logger.Infof("Server started in screen %s.", report.Session.Name)
	return report, nil
}

func (in *Installer) path(name string) string {
	if in.WorkDir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(in.WorkDir, name)
}

func (in *Installer) fetcher() Fetcher {
	if in.Fetcher == nil {
		return &HTTPFetcher{}
	}
	return in.Fetcher
}

func (in *Installer) spawner() Spawner {
	if in.Spawner == nil {
		return &ExecSpawner{Logger: in.Logger}
	}
	return in.Spawner
}

func (in *Installer) removeFile(name string) error {
	if in.remove == nil {
		return os.Remove(name)
	}
	return in.remove(name)
}

func (in *Installer) logger() logrus.FieldLogger {
	if in.Logger == nil {
		return discardLogger
	}
	return in.Logger
}
