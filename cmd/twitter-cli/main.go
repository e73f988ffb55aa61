package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	twitter "github.com/jamesprial/go-twitter-api-wrapper"
	"github.com/jamesprial/go-twitter-api-wrapper/internal/config"
	twerrors "github.com/jamesprial/go-twitter-api-wrapper/pkg/errors"
)

const appName = "twitter-cli"

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, app *app, args []string) error
}

var commands = []command{
	{"authorize", "authorize [-listen 127.0.0.1:8765]   obtain and save an access token", runAuthorize},
	{"verify", "verify                                 show the authenticated user", runVerify},
	{"timeline", "timeline [-count 20] [-user name]      print the home or a user timeline", runTimeline},
	{"tweet", "tweet [-media file] text...            post a status update", runTweet},
	{"stream", "stream -track words | -follow ids      print matching tweets until interrupted", runStream},
}

// app carries what every command needs.
type app struct {
	cfg    config.Config
	client *twitter.Client
	log    zerolog.Logger
}

func main() {
	configPath := flag.String("config", "", "config file (default "+config.DefaultConfigPath+")")
	debug := flag.Bool("debug", false, "log every request")
	flag.Usage = usage
	flag.Parse()

	logger := newLogger(*debug)

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *debug, flag.Args()); err != nil {
		logger.Error().Err(err).Msg(describe(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger zerolog.Logger, configPath string, debug bool, args []string) error {
	var cmd *command
	for i := range commands {
		if commands[i].name == args[0] {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Debug().Str("path", cfg.Path).Bool("authorized", cfg.HasAccessToken()).Msg("loaded config")

	client, err := newClient(cfg, debug)
	if err != nil {
		return err
	}

	return cmd.run(ctx, &app{cfg: cfg, client: client, log: logger}, args[1:])
}

func newClient(cfg config.Config, debug bool) (*twitter.Client, error) {
	clientCfg := &twitter.Config{
		ConsumerKey:    cfg.ConsumerKey,
		ConsumerSecret: cfg.ConsumerSecret,
		UserAgent:      cfg.UserAgent,
		BaseURLs:       twitter.BaseURLs{API: cfg.APIURL},
	}
	if cfg.HasAccessToken() {
		clientCfg.AccessToken = cfg.AccessToken
		clientCfg.AccessTokenSecret = cfg.AccessTokenSecret
	}
	if cfg.RequestsPerMinute > 0 {
		clientCfg.RateLimit = &twitter.RateLimitConfig{RequestsPerMinute: cfg.RequestsPerMinute, Burst: 1}
	}
	if debug {
		clientCfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return twitter.NewClient(clientCfg)
}

func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// describe turns the wrapper's error types into a one-line summary.
func describe(err error) string {
	var (
		statusErr *twerrors.HTTPStatusError
		netErr    *twerrors.NetworkError
		protoErr  *twerrors.ProtocolError
		configErr *twerrors.ConfigError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return "interrupted"
	case errors.As(err, &statusErr) && statusErr.StatusCode == 401:
		return "not authorized; run '" + appName + " authorize'"
	case errors.As(err, &statusErr) && (statusErr.StatusCode == 420 || statusErr.StatusCode == 429):
		return "rate limited; try again later"
	case errors.As(err, &statusErr):
		return "request rejected"
	case errors.As(err, &netErr):
		return "network failure"
	case errors.As(err, &protoErr):
		return "authorization failed"
	case errors.As(err, &configErr):
		return "invalid arguments"
	default:
		return "command failed"
	}
}

func usage() {
	figure.NewFigure(appName, "cybermedium", true).Print()
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "usage: %s [-config file] [-debug] <command> [flags]\n\ncommands:\n", appName)
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %s\n", c.usage)
	}
	fmt.Fprintln(os.Stderr, "\nflags:")
	flag.PrintDefaults()
}
