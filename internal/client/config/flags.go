package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/linkstash/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   base URL of the backend server
//	-d string   path of the local cache database
//	-s int      post-sign-in sync delay in seconds
//
// Arguments are filtered with flagx.FilterArgs so this parser does not
// interfere with flags owned by other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "base URL of the backend server")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "path of the local cache database")
	syncDelay := fs.Int("s", int(cfg.SyncDelay.Seconds()), "post-sign-in sync delay (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SyncDelay = time.Duration(*syncDelay) * time.Second
}
