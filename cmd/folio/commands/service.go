package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/folioscan/folio/pkg/app"
	"github.com/folioscan/folio/pkg/config"
	"github.com/folioscan/folio/pkg/drive"
	"github.com/folioscan/folio/pkg/output"
	"github.com/folioscan/folio/pkg/scan"
	"github.com/folioscan/folio/pkg/sheet"
	"github.com/folioscan/folio/pkg/state"
	"github.com/folioscan/folio/pkg/stringutil"
	"github.com/folioscan/folio/pkg/workspace"
)

// commandDeps carries what a command resolved from context: the merged
// configuration and the prepared workspace layout.
type commandDeps struct {
	cfg config.Config
	ws  *workspace.Config
}

// resolveDeps pulls the app manager and workspace that the root command's
// PersistentPreRunE attached to the context.
func resolveDeps(cmd *cobra.Command) (*commandDeps, error) {
	mgr, ok := app.FromContext(cmd.Context())
	if !ok {
		return nil, errors.New("app manager missing from context")
	}
	ws, ok := workspace.FromContext(cmd.Context())
	if !ok {
		return nil, errors.New("workspace missing from context")
	}
	return &commandDeps{cfg: mgr.Config().Get(), ws: ws}, nil
}

// provider builds the drive backend from configuration.
func (d *commandDeps) provider(cmd *cobra.Command) (drive.Provider, error) {
	root := d.cfg.Drive.Root
	if root == "" {
		return nil, scan.NewValidationError("drive root", "not configured (set drive.root or FOLIO_DRIVE_ROOT)")
	}
	return drive.NewProvider(cmd.Context(), &drive.Config{Root: root})
}

// sink opens the output sheet. Precedence: --sheet flag, then sheet.path
// from configuration, then folders.csv in the workspace.
func (d *commandDeps) sink(cmd *cobra.Command) (*sheet.CSVSink, error) {
	flagPath := ""
	if f := cmd.Flags().Lookup("sheet"); f != nil {
		flagPath = f.Value.String()
	}
	path := stringutil.FirstNonEmpty(flagPath, d.cfg.Sheet.Path, d.ws.DefaultSheetPath())
	sink, err := sheet.NewCSVSink(path)
	if err != nil {
		return nil, fmt.Errorf("open sheet: %w", err)
	}
	return sink, nil
}

// store opens the checkpoint store inside the workspace.
func (d *commandDeps) store() (*state.FileStore, error) {
	st, err := state.NewFileStore(d.ws.StateDir())
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	return st, nil
}

// scanService assembles a fully wired scan service for commands that run
// the scan loop.
func (d *commandDeps) scanService(cmd *cobra.Command, out output.Output) (*scan.Service, error) {
	provider, err := d.provider(cmd)
	if err != nil {
		return nil, err
	}
	sink, err := d.sink(cmd)
	if err != nil {
		return nil, err
	}
	store, err := d.store()
	if err != nil {
		return nil, err
	}
	return scan.NewService().
		WithProvider(provider).
		WithSheet(sink).
		WithStore(store).
		WithOutput(out), nil
}
