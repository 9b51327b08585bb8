package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	configpkg "github.com/aritlhq/gaianet-chat-bot/pkg/config"
	loggerpkg "github.com/aritlhq/gaianet-chat-bot/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const defaultEnvFile = ".env"

// lookupEnv matches os.LookupEnv.
type lookupEnv func(key string) (string, bool)

// cliFlags holds the persistent flags shared by every command.
type cliFlags struct {
	messagesFile string
	configFile   string
	envFile      string
	model        string
	logFormat    string
	verbose      bool
}

func (f *cliFlags) bind(set *pflag.FlagSet) {
	set.StringVarP(&f.messagesFile, "messages", "m", configpkg.DefaultMessagesFile, "Prompt file, one message per line")
	set.StringVarP(&f.configFile, "config", "c", "", "Optional YAML config file")
	set.StringVar(&f.envFile, "env-file", defaultEnvFile, "Dotenv file with "+configpkg.EnvAPIKey+" and "+configpkg.EnvBaseURL)
	set.StringVar(&f.model, "model", "", "Model name sent with each request (omitted when empty)")
	set.StringVar(&f.logFormat, "log-format", "text", "Log format: text, json or logfmt")
	set.BoolVarP(&f.verbose, "verbose", "v", false, "Verbose logging")
}

// resolveConfig builds the runtime config. Precedence, lowest first:
// defaults, YAML file, dotenv file, process environment, explicit flags.
func resolveConfig(cmd *cobra.Command, flags cliFlags, env lookupEnv) (configpkg.Config, error) {
	cfg := configpkg.DefaultConfig()

	if path := strings.TrimSpace(flags.configFile); path != "" {
		loaded, err := configpkg.LoadFile(path, cfg)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	dotenv, err := readEnvFile(flags.envFile, cmd.Flags().Changed("env-file"))
	if err != nil {
		return cfg, err
	}
	get := func(key string) (string, bool) {
		if v, ok := env(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	if v, ok := get(configpkg.EnvAPIKey); ok {
		cfg.APIKey = v
	}
	if v, ok := get(configpkg.EnvBaseURL); ok {
		cfg.BaseURL = v
	}
	if v, ok := get(configpkg.EnvModel); ok {
		cfg.Model = v
	}

	changed := cmd.Flags().Changed
	if changed("messages") {
		cfg.MessagesFile = flags.messagesFile
	}
	if changed("model") {
		cfg.Model = flags.model
	}
	if changed("log-format") {
		cfg.LogFormat = flags.logFormat
	}
	if changed("verbose") {
		cfg.Verbose = flags.verbose
	}

	cfg = configpkg.Normalize(cfg)
	if !loggerpkg.ValidFormat(cfg.LogFormat) {
		return cfg, fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}
	return cfg, nil
}

// readEnvFile parses a dotenv file without touching the process environment.
// A missing default file is not an error.
func readEnvFile(path string, explicit bool) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return values, nil
}
