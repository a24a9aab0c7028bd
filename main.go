package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/karasolutions/mediascan-go/cmd"
	"github.com/karasolutions/mediascan-go/internal/conf"
	"github.com/karasolutions/mediascan-go/internal/logging"
)

func main() {
	settings, err := conf.Load(configPathFromArgs(os.Args[1:]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(settings.Debug)

	if err := cmd.RootCommand(settings).Execute(); err != nil {
		os.Exit(1)
	}
}

// configPathFromArgs scans the raw arguments for the --config flag. The
// configuration has to be loaded before the command tree is built, so the
// flag is resolved ahead of cobra's own parsing.
func configPathFromArgs(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "--config" || arg == "-c":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(arg, "--config="):
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}
