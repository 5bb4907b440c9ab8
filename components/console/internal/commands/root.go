// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

// Package commands implements reportctl, the command line front end of the report pipeline.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/client"
	"github.com/navimedi/reporter/pkg/log"
	"github.com/navimedi/reporter/pkg/redis"

	"github.com/spf13/cobra"
)

// Config is read from the environment; persistent flags override it.
type Config struct {
	client.Config

	Token  string `env:"REPORTER_TOKEN"`
	UserID string `env:"REPORTER_USER_ID"`
	// Shared list cache, optional.
	RedisHost     string `env:"REDIS_HOST"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`
	// Development token minting.
	JWTSecret string `env:"JWT_SECRET"`
	JWTIssuer string `env:"JWT_ISSUER"`
}

// defaultUserID identifies the CLI when no user is configured.
const defaultUserID = "reportctl"

// app carries what every subcommand shares.
type app struct {
	cfg     *Config
	verbose bool
	out     io.Writer
	errOut  io.Writer
	now     func() time.Time
}

// NewRootCommand builds the reportctl command tree over cfg.
func NewRootCommand(cfg *Config, out, errOut io.Writer) *cobra.Command {
	a := &app{cfg: cfg, out: out, errOut: errOut, now: time.Now}

	rootCmd := &cobra.Command{
		Use:           "reportctl",
		Short:         "Request, track and download clinical reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.BaseURL, "api-url", cfg.BaseURL, "Report service base URL, e.g. http://localhost:4005/v1")
	flags.StringVar(&cfg.Token, "token", cfg.Token, "Bearer token sent with every request")
	flags.StringVar(&cfg.UserID, "user", cfg.UserID, "User identity of the session")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per request timeout")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Write structured logs to stderr")

	rootCmd.AddCommand(a.submitCmd())
	rootCmd.AddCommand(a.listCmd())
	rootCmd.AddCommand(a.downloadCmd())
	rootCmd.AddCommand(a.tokenCmd())

	return rootCmd
}

// Execute runs reportctl with args and returns the process exit code.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) int {
	cfg := &Config{}
	if err := pkg.SetConfigFromEnvVars(cfg); err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}

	rootCmd := NewRootCommand(cfg, out, errOut)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "Error: %s\n", message(err))
		return 1
	}

	return 0
}

// message prefers the user facing text of client errors.
func message(err error) string {
	var userErr client.UserFacingError
	if errors.As(err, &userErr) {
		return userErr.UserMessage()
	}

	return err.Error()
}

// withLogger attaches the logger used by the client components.
func (a *app) withLogger(ctx context.Context) context.Context {
	var logger log.Logger = &log.NoneLogger{}
	if a.verbose {
		logger = log.InitializeLogger()
	}

	return pkg.ContextWithLogger(ctx, logger)
}

// newClient builds the report client. The list cache is shared through Redis when configured.
func (a *app) newClient(ctx context.Context) (*client.Client, func(), error) {
	userID := a.cfg.UserID
	if userID == "" {
		userID = defaultUserID
	}

	cfg := a.cfg.Config
	cfg.ListScope = userID
	cfg.Sessions = client.StaticSession{UserID: userID, Token: a.cfg.Token}
	cfg.Notifier = &client.WriterNotifier{W: a.errOut}

	cleanup := func() {}

	if a.cfg.RedisHost != "" {
		conn := &redis.RedisConnection{
			Address:  a.cfg.RedisHost,
			Password: a.cfg.RedisPassword,
			DB:       a.cfg.RedisDB,
			Logger:   pkg.NewLoggerFromContext(ctx),
		}

		repo, err := redis.NewConsumerRedis(conn)
		if err != nil {
			pkg.NewLoggerFromContext(ctx).Warnf("Shared report list cache unavailable, using memory: %v", err)
		} else {
			cfg.Cache = client.NewRedisCache[[]client.GeneratedReport](repo, a.cfg.StaleTime)
			cleanup = func() { _ = conn.Close() }
		}
	}

	c, err := client.New(cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return c, cleanup, nil
}
