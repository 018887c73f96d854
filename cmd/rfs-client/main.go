package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/jabolina/go-rfs/pkg/rfs"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	app        = kingpin.New("rfs-client", "Client of the replicated file store, runs a random read and write workload.")
	configPath = app.Arg("config", "Configuration file, asked interactively when absent.").String()
	logLevel   = app.Flag("log-level", "Log level.").Default("WARN").Enum("TRACE", "DEBUG", "INFO", "WARN", "ERROR")
	operations = app.Flag("operations", "How many operations to execute.").Default("20").Int()
	files      = app.Flag("files", "How many distinct files the operations choose from.").Default("20").Int()
	maxPause   = app.Flag("max-pause", "Longest random pause before each operation.").Default("500ms").Duration()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))
	if *operations < 0 || *files < 1 {
		app.Fatalf("operations must not be negative and files must be at least 1")
	}

	var conf *rfs.ClientConfiguration
	var err error
	if *configPath != "" {
		conf, err = rfs.LoadClientConfiguration(*configPath)
	} else {
		conf, err = rfs.PromptClientConfiguration(rfs.NewPrompt(os.Stdin, os.Stdout))
	}
	app.FatalIfError(err, "failed reading configuration")
	if conf == nil {
		return
	}

	config := rfs.Default()
	config.LogLevel = *logLevel
	config.Protocol = rfs.DefaultClientProtocol()
	config.Logger = hclog.New(&hclog.LoggerOptions{
		Name:   "rfs",
		Level:  hclog.LevelFromString(*logLevel),
		Output: os.Stderr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	client, err := rfs.NewClient(ctx, conf, config)
	app.FatalIfError(err, "failed starting client %s", conf.Name)
	defer client.Close()

	w := newWorkload(*operations, *files, *maxPause, os.Stdout)
	w.run(ctx, client)
}
