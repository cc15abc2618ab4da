// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nnsi/hono-practice-sub008/internal/config"
	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/models"
)

// annotationSession marks commands that need a stored session.
const annotationSession = "session"

// flags are the persistent command-line overrides of the client config.
type flags struct {
	configPath string
	serverURL  string
	dbPath     string
	hashKey    string
	logFile    string
	logLevel   string
	pushMode   string
	cookieAuth bool
}

// apply copies the flags that were set onto cfg.
func (f flags) apply(cmd *cobra.Command, cfg *config.ClientConfig) {
	set := cmd.Flags().Changed
	if set("server") {
		cfg.Adapter.ServerURL = f.serverURL
	}
	if set("db") {
		cfg.Storage.Path = f.dbPath
	}
	if set("hash-key") {
		cfg.App.HashKey = f.hashKey
	}
	if set("log-file") {
		cfg.App.LogFile = f.logFile
	}
	if set("log-level") {
		cfg.App.LogLevel = f.logLevel
	}
	if set("push-mode") {
		cfg.Sync.PushMode = f.pushMode
	}
	if set("cookie-auth") {
		cfg.Adapter.CookieAuth = f.cookieAuth
	}
}

// appLoader builds the App for a command.
type appLoader func(cmd *cobra.Command, f flags) (*App, error)

// loadApp reads the config, applies the flags and wires a real App.
func loadApp(cmd *cobra.Command, f flags) (*App, error) {
	cfg, err := config.GetClientConfig(f.configPath)
	if err != nil {
		return nil, err
	}
	f.apply(cmd, cfg)
	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.NewClientLogger("sync-client", cfg.App.LogFile)
	logger.SetLevel(cfg.App.LogLevel)

	return NewApp(cmd.Context(), cfg, cmd.OutOrStdout(), log)
}

// runtime holds the state shared by the commands of one execution.
type runtime struct {
	flags flags
	load  appLoader
	app   *App
}

func (rt *runtime) current() *App {
	return rt.app
}

func (rt *runtime) close() error {
	if rt.app == nil {
		return nil
	}
	err := rt.app.Close()
	rt.app = nil
	return err
}

type cli struct {
	root *cobra.Command
	rt   *runtime
}

// NewCLI returns the sync client command tree.
func NewCLI(info models.AppBuildInfo) Client {
	rt := &runtime{load: loadApp}
	return &cli{root: newRootCommand(info, rt), rt: rt}
}

// Run executes the command named by os.Args and releases the local store.
func (c *cli) Run() error {
	err := c.root.Execute()
	if closeErr := c.rt.close(); err == nil {
		err = closeErr
	}
	return err
}

func newRootCommand(info models.AppBuildInfo, rt *runtime) *cobra.Command {
	f := &rt.flags

	root := &cobra.Command{
		Use:          "sync-client",
		Short:        "Offline-first sync client",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}

			app, err := rt.load(cmd, *f)
			if err != nil {
				return err
			}
			rt.app = app
			if cmd.Annotations[annotationSession] != "" {
				return app.restoreSession(cmd.Context())
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "path to the JSON config file")
	pf.StringVar(&f.serverURL, "server", "", "sync server URL")
	pf.StringVar(&f.dbPath, "db", "", "local SQLite database file")
	pf.StringVar(&f.hashKey, "hash-key", "", "key signing pushed batches")
	pf.StringVar(&f.logFile, "log-file", "", "rotated log file")
	pf.StringVar(&f.logLevel, "log-level", "", "log level")
	pf.StringVar(&f.pushMode, "push-mode", "", "direct or buffered")
	pf.BoolVar(&f.cookieAuth, "cookie-auth", false, "refresh the session with the cookie")

	current := rt.current

	root.AddCommand(
		newVersionCommand(info),
		newCredentialsCommand("register", "Create an account and store the session", func(cmd *cobra.Command, login, password string) error {
			return current().Register(cmd.Context(), login, password)
		}),
		newCredentialsCommand("login", "Log in and store the session", func(cmd *cobra.Command, login, password string) error {
			return current().Login(cmd.Context(), login, password)
		}),
		&cobra.Command{
			Use:   "logout",
			Short: "Forget the stored session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return current().Logout(cmd.Context())
			},
		},
		newCreateCommand(current),
		withSession(&cobra.Command{
			Use:   "update <type> <id> <payload>",
			Short: "Replace the payload of a local entity",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				key, err := entityKey(args[0], args[1])
				if err != nil {
					return err
				}
				return current().Update(cmd.Context(), key, args[2])
			},
		}),
		withSession(&cobra.Command{
			Use:   "delete <type> <id>",
			Short: "Archive a local entity",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				key, err := entityKey(args[0], args[1])
				if err != nil {
					return err
				}
				return current().Delete(cmd.Context(), key)
			},
		}),
		withSession(&cobra.Command{
			Use:   "get <type> <id>",
			Short: "Show one local entity",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				key, err := entityKey(args[0], args[1])
				if err != nil {
					return err
				}
				return current().Get(cmd.Context(), key)
			},
		}),
		withSession(&cobra.Command{
			Use:   "list <type>",
			Short: "List local entities of a type",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				entityType, err := parseEntityType(args[0])
				if err != nil {
					return err
				}
				return current().List(cmd.Context(), entityType)
			},
		}),
		withSession(&cobra.Command{
			Use:   "sync",
			Short: "Run one sync cycle now",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return current().Sync(cmd.Context())
			},
		}),
		&cobra.Command{
			Use:   "status",
			Short: "Show the local sync status",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return current().Status(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "conflicts",
			Short: "List unresolved conflicts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return current().Conflicts(cmd.Context())
			},
		},
		withSession(&cobra.Command{
			Use:       "resolve <client-id> keep_local|accept_server",
			Short:     "Resolve a conflict",
			Args:      cobra.ExactArgs(2),
			ValidArgs: []string{string(models.KeepLocal), string(models.AcceptServer)},
			RunE: func(cmd *cobra.Command, args []string) error {
				resolution := models.ConflictResolution(args[1])
				if !resolution.Valid() {
					return fmt.Errorf("unknown resolution %q, want %s or %s", args[1], models.KeepLocal, models.AcceptServer)
				}
				return current().Resolve(cmd.Context(), args[0], resolution)
			},
		}),
		withSession(&cobra.Command{
			Use:   "run",
			Short: "Keep syncing in the background until interrupted",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return current().Run(cmd.Context())
			},
		}),
	)

	return root
}

func withSession(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = make(map[string]string)
	}
	cmd.Annotations[annotationSession] = "required"
	return cmd
}

func newVersionCommand(info models.AppBuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), renderBuildInfo(info))
		},
	}
}

func newCredentialsCommand(use, short string, run func(cmd *cobra.Command, login, password string) error) *cobra.Command {
	var login, password string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "-" {
				p, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = p
			}
			return run(cmd, login, password)
		},
	}
	cmd.Flags().StringVarP(&login, "login", "l", "", "account login")
	cmd.Flags().StringVarP(&password, "password", "p", "", `account password, "-" reads it from stdin`)
	cmd.MarkFlagRequired("login")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newCreateCommand(current func() *App) *cobra.Command {
	var entityID string

	cmd := withSession(&cobra.Command{
		Use:   "create <type> <payload>",
		Short: "Create a local entity and queue it for sync",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, err := parseEntityType(args[0])
			if err != nil {
				return err
			}
			return current().Create(cmd.Context(), entityType, entityID, args[1])
		},
	})
	cmd.Flags().StringVar(&entityID, "id", "", "entity id, generated when empty")
	return cmd
}

func parseEntityType(s string) (models.EntityType, error) {
	t := models.EntityType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown entity type %q", s)
	}
	return t, nil
}

func entityKey(entityType, entityID string) (models.EntityKey, error) {
	t, err := parseEntityType(entityType)
	if err != nil {
		return models.EntityKey{}, err
	}
	return models.EntityKey{EntityType: t, EntityID: entityID}, nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
