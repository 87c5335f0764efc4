package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/wheelvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   path of the local cache database
//	-r string   Postgres DSN of the backend
//	-b string   photo bucket
//	-u string   S3 endpoint URL
//	-g string   S3 region
//	-p int      page size
//	-i int      online check interval (in seconds)
//	-l string   log level: debug, info, warn, error
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-r", "-b", "-u", "-g", "-p", "-i", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local cache database")
	fs.StringVar(&cfg.RemoteDSN, "r", cfg.RemoteDSN, "backend Postgres DSN")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "photo bucket")
	fs.StringVar(&cfg.S3Endpoint, "u", cfg.S3Endpoint, "S3 endpoint URL")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.IntVar(&cfg.PageSize, "p", cfg.PageSize, "page size")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
