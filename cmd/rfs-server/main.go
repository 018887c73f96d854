package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/jabolina/go-rfs/pkg/rfs"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	app        = kingpin.New("rfs-server", "Replica server of the replicated file store.")
	configPath = app.Arg("config", "Configuration file, asked interactively when absent.").String()
	logLevel   = app.Flag("log-level", "Log level.").Default("INFO").Enum("TRACE", "DEBUG", "INFO", "WARN", "ERROR")
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	var conf *rfs.ServerConfiguration
	var err error
	if *configPath != "" {
		conf, err = rfs.LoadServerConfiguration(*configPath)
	} else {
		conf, err = rfs.PromptServerConfiguration(rfs.NewPrompt(os.Stdin, os.Stdout))
	}
	app.FatalIfError(err, "failed reading configuration")
	if conf == nil {
		return
	}

	config := rfs.Default()
	config.LogLevel = *logLevel
	config.Logger = hclog.New(&hclog.LoggerOptions{
		Name:   "rfs",
		Level:  hclog.LevelFromString(*logLevel),
		Output: os.Stdout,
	})

	server, err := rfs.NewServer(conf, config)
	app.FatalIfError(err, "failed starting server %s", conf.Self.Name)
	fmt.Printf("%s listening on %s\n", server.Name(), server.Addr())

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals

	if err := server.Close(); err != nil {
		config.Logger.Warn("failed closing server", "error", err)
	}
}
