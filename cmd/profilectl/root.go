package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alem-hub/reboot-profile/config"
	"github.com/alem-hub/reboot-profile/internal/app"
	"github.com/alem-hub/reboot-profile/internal/domain/session"
	"github.com/alem-hub/reboot-profile/internal/infrastructure/persistence/file"
	"github.com/alem-hub/reboot-profile/internal/infrastructure/security"
	"github.com/alem-hub/reboot-profile/internal/interface/cli"
)

// errSilent marks failures already reported to the user.
var errSilent = errors.New("silent")

// options holds the persistent flags.
type options struct {
	configPath  string
	sessionFile string
	noColor     bool
	verbose     bool
}

// env is what every subcommand works with.
type env struct {
	app     *app.App
	files   *file.SessionStore
	present *cli.Presenter
	in      io.Reader
	out     io.Writer
}

// current returns the session id stored by the last login.
func (e *env) current(ctx context.Context) (string, error) {
	id, err := e.files.Current(ctx)
	if errors.Is(err, session.ErrSessionNotFound) {
		e.present.Error("Not logged in. Run `profilectl login` first.")
		return "", errSilent
	}
	return id, err
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	opts := &options{}
	var e env

	root := &cobra.Command{
		Use:           "profilectl",
		Short:         "reboot01 profile in the terminal",
		Long:          "profilectl signs in to learn.reboot01.com and prints your XP, audits, projects and skills.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			built, err := setup(cmd.Context(), opts, in, out)
			if err != nil {
				return err
			}
			e = *built
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if e.app != nil {
				e.app.Close()
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file (overrides CONFIG_PATH)")
	root.PersistentFlags().StringVar(&opts.sessionFile, "session-file", "", "Session file (overrides SESSION_FILE)")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colour output")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log platform calls to stderr")

	root.AddCommand(
		newLoginCmd(&e),
		newLogoutCmd(&e),
		newWhoamiCmd(&e),
		newSummaryCmd(&e),
	)
	root.SetIn(in)
	root.SetOut(out)
	return root
}

// setup loads configuration and opens the file-backed session store.
func setup(ctx context.Context, opts *options, in io.Reader, out io.Writer) (*env, error) {
	if opts.configPath != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, opts.configPath); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	cfg.Observability.LogFormat = "console"
	cfg.Observability.LogLevel = "error"
	if opts.verbose {
		cfg.Observability.LogLevel = "debug"
	}
	log := app.NewLogger(cfg)

	path := opts.sessionFile
	if path == "" {
		path = cfg.Session.FilePath
	}
	if path == "" {
		if path, err = file.DefaultPath(); err != nil {
			return nil, err
		}
	}
	files := file.NewSessionStore(path)

	cipher, err := security.NewTokenCipher(cfg.Security.TokenSecret)
	if err != nil {
		return nil, fmt.Errorf("token cipher: %w", err)
	}
	store := &app.Store{Store: security.NewSealedStore(files, cipher)}

	present := cli.NewPresenter(out, cfg.App.Location)
	if opts.noColor {
		present = cli.NewPresenterWithColor(out, cfg.App.Location, false)
	}

	return &env{
		app:     app.New(cfg, store, log),
		files:   files,
		present: present,
		in:      in,
		out:     out,
	}, nil
}
