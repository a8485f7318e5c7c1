package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/folioscan/folio/pkg/app"
	"github.com/folioscan/folio/pkg/appctx"
	"github.com/folioscan/folio/pkg/cli"
	"github.com/folioscan/folio/pkg/config"
	"github.com/folioscan/folio/pkg/workspace"
)

const cliExecutable = "folio"

// NewCommand constructs the top-level folio CLI command, wiring global
// flags, app manager lifecycle, and the shared workspace.
func NewCommand() *cobra.Command {
	var (
		configFile     string
		workspaceDir   string
		appManager     app.Manager
		verbosityCount int
		verbose        bool
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "Folio inventories a folder tree into a spreadsheet, resumable across runs",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			factory := &app.DefaultAppManagerFactory{}

			mgr, err := factory.Create(cmd.Flags(), configFile)
			if err != nil {
				return fmt.Errorf("initialize app manager: %w", err)
			}
			appManager = mgr

			ctx := context.WithValue(cmd.Context(), app.ManagerKey, appManager)
			ctx = appctx.WithConfig(ctx, appManager.Config())

			wsConfig, err := workspace.DefaultConfig()
			if err != nil {
				return fmt.Errorf("resolve workspace: %w", err)
			}
			if cfgRoot := appManager.Config().Get().Workspace; cfgRoot != "" {
				wsConfig.Root = cfgRoot
			}
			if workspaceDir != "" {
				wsConfig.Root = workspaceDir
			}
			if err := wsConfig.EnsureLayout(); err != nil {
				return fmt.Errorf("prepare workspace: %w", err)
			}
			ctx = workspace.WithConfig(ctx, wsConfig)
			log.Info().Str("workspace", wsConfig.Root).Msg("workspace ready")

			// Configure global log level based on verbosity flags
			// If explicit --verbose or --debug is set, show debug and above
			// Else use -v count: 0=>Error, 1=>Info, 2+=>Debug
			debugFlag, _ := cmd.Flags().GetBool("debug")
			if verbose || debugFlag {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				switch {
				case verbosityCount <= 0:
					zerolog.SetGlobalLevel(zerolog.ErrorLevel)
				case verbosityCount == 1:
					zerolog.SetGlobalLevel(zerolog.InfoLevel)
				default:
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
			}

			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if appManager != nil {
				appManager.Shutdown()
			}
			return nil
		},
	}

	cmd.SilenceUsage = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().StringVar(&workspaceDir, "workspace", "", "Workspace directory for checkpoints and the default sheet (default ~/.folio)")
	cmd.PersistentFlags().CountVarP(&verbosityCount, "verbosity", "v", "Increase logging verbosity (repeatable)")
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging (shows service layer logs)")

	config.BindFlags(cmd.PersistentFlags())

	cmd.AddGroup(&cobra.Group{ID: "scan", Title: "Scan Commands"})
	cmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands"})

	cmd.AddCommand(ScanCmd)
	cmd.AddCommand(NewResetCommand())
	cmd.AddCommand(NewStatusCommand())
	cmd.AddCommand(NewEmptyCommand())
	cmd.AddCommand(NewSweepCommand())
	cmd.AddCommand(NewWatchCommand())
	cmd.AddCommand(cli.NewVersionCommand(cliExecutable))

	return cmd
}
