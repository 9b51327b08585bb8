// Package main provides the gaianet-bot CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aritlhq/gaianet-chat-bot/pkg/dispatcher"
	loggerpkg "github.com/aritlhq/gaianet-chat-bot/pkg/logger"
	"github.com/spf13/cobra"
)

// main is the program entry point.
func main() {
	if err := newRootCmd(os.LookupEnv, os.Stdout, os.Stderr).Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Initialization error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(env lookupEnv, stdout, stderr io.Writer) *cobra.Command {
	var flags cliFlags

	root := &cobra.Command{
		Use:           "gaianet-bot",
		Short:         "Send prompts from a file to a chat-completion endpoint, forever",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := newDispatcher(cmd, flags, env, stderr)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = d.Run(ctx)
			if errors.Is(err, context.Canceled) {
				_, _ = fmt.Fprintln(stdout, "\nGracefully shutting down...")
				return nil
			}
			return err
		},
	}
	flags.bind(root.PersistentFlags())

	root.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Load configuration and prompts, then exit without sending anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := newDispatcher(cmd, flags, env, stderr)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "%d messages ready\n", len(d.Prompts()))
			return nil
		},
	})
	return root
}

func newDispatcher(cmd *cobra.Command, flags cliFlags, env lookupEnv, stderr io.Writer) (*dispatcher.Dispatcher, error) {
	cfg, err := resolveConfig(cmd, flags, env)
	if err != nil {
		return nil, err
	}
	appLogger := loggerpkg.New(stderr, loggerpkg.Options{
		Verbose: cfg.Verbose,
		Format:  cfg.LogFormat,
	})
	return dispatcher.New(cfg, dispatcher.WithLogger(appLogger))
}
