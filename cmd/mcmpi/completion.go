package main

import (
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/mcmpi/mcmpi/internal/mcmpi"
	"github.com/posener/complete"
)

// findWorkdirForCompletion returns the work directory selected by args or the environment.
func findWorkdirForCompletion(args []string) string {
	for i, arg := range args {
		if len(args) == i+1 {
			continue
		}
		if arg != "-C" && arg != "--workdir" {
			continue
		}
		return kong.ExpandPath(args[i+1])
	}
	if wd, ok := os.LookupEnv("MCMPI_WORKDIR"); ok {
		return kong.ExpandPath(wd)
	}
	return "."
}

// installedServers lists the directories in workdir that have install metadata.
func installedServers(workdir string) []string {
	entries, err := os.ReadDir(workdir)
	if err != nil {
		return []string{}
	}
	store := &mcmpi.StateStore{}
	servers := []string{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if store.HasMetadata(filepath.Join(workdir, entry.Name())) {
			servers = append(servers, entry.Name())
		}
	}
	return servers
}

var serverCompleter = complete.PredictFunc(func(a complete.Args) []string {
	servers := installedServers(findWorkdirForCompletion(a.Completed))
	return complete.PredictSet(servers...).Predict(a)
})
