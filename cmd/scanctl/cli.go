package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"modelscan/internal/common/fsutil"
	"modelscan/internal/manager"
	"modelscan/internal/scan"
	"modelscan/internal/store"
	"modelscan/internal/vram"
	"modelscan/pkg/types"
)

type cliConfig struct {
	localRoots     []string
	warehouseRoots []string
	workers        int
	fullDigest     bool
	gpuClassGB     float64
	logLevel       string
}

// buildRootCmd constructs the Cobra command tree. Every subcommand scans the
// configured roots into an in-memory inventory first; there is no daemon
// involved.
func buildRootCmd() *cobra.Command {
	cfg := &cliConfig{logLevel: "warn"}

	root := &cobra.Command{
		Use:           "scanctl",
		Short:         "Inspect model files and resolve workflow dependencies from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&cfg.localRoots, "local", nil, "Fast-storage directories to scan")
	root.PersistentFlags().StringSliceVar(&cfg.warehouseRoots, "warehouse", nil, "Bulk-storage directories to scan")
	root.PersistentFlags().IntVar(&cfg.workers, "workers", 0, "Concurrent scan workers (0=default)")
	root.PersistentFlags().BoolVar(&cfg.fullDigest, "full-digest", false, "Compute full SHA-256 digests")
	root.PersistentFlags().Float64Var(&cfg.gpuClassGB, "gpu", 0, "Target GPU memory in GB for fit warnings (0=report all common classes)")
	root.PersistentFlags().StringVar(&cfg.logLevel, "log-level", cfg.logLevel, "Log level: debug|info|warn|error")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		vram.SetTargetClassGB(cfg.gpuClassGB)
	}

	scanCmd := &cobra.Command{
		Use:     "scan",
		Short:   "Scan the roots and print the inventory",
		Example: "  scanctl scan --local ~/ComfyUI/models",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, resp, err := scanInventory(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scanned %d files, indexed %d, invalid %d, missing %d in %dms\n",
				resp.Scanned, resp.Indexed, resp.Invalid, resp.Missing, resp.DurationMS)
			return printJSON(cmd, types.ModelsResponse{Models: mgr.ListModels()})
		},
	}

	inspectCmd := &cobra.Command{
		Use:     "inspect <file>",
		Short:   "Classify one weight file and print its record",
		Example: "  scanctl inspect ~/ComfyUI/models/checkpoints/sd_xl_base_1.0.safetensors",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := fsutil.ExpandHome(args[0])
			if err != nil {
				return err
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			// Scan just the file's directory so classification runs the
			// same pipeline the daemon uses.
			one := *cfg
			one.localRoots = []string{filepath.Dir(abs)}
			one.warehouseRoots = nil
			mgr, _, err := scanInventory(cmd.Context(), &one)
			if err != nil {
				return err
			}
			for _, rec := range mgr.ListModels() {
				if rec.Path == abs {
					return printJSON(cmd, rec)
				}
			}
			return fmt.Errorf("%s was not indexed (unsupported extension or unreadable)", abs)
		},
	}

	resolveCmd := &cobra.Command{
		Use:     "resolve <workflow.json>",
		Short:   "Resolve a workflow's model references against the inventory",
		Example: "  scanctl resolve --local ~/ComfyUI/models flux-portrait.json",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := resolveWorkflow(cmd.Context(), cfg, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}

	estimateCmd := &cobra.Command{
		Use:     "estimate <workflow.json>",
		Short:   "Print the workflow's peak VRAM estimate",
		Example: "  scanctl estimate --local ~/ComfyUI/models flux-portrait.json",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := resolveWorkflow(cmd.Context(), cfg, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "peak VRAM: %s", resp.Estimate.PeakDisplay)
			if resp.Estimate.Architecture != types.ArchUnknown {
				fmt.Fprintf(out, " (%s)", resp.Estimate.Architecture)
			}
			fmt.Fprintln(out)
			var missingBytes int64
			for _, d := range resp.Dependencies {
				if d.Status == types.ResolutionMissing {
					missingBytes += d.EstimatedSizeBytes
				}
			}
			if missingBytes > 0 {
				fmt.Fprintf(out, "missing downloads: ~%s\n", vram.FormatBytes(missingBytes))
			}
			for _, w := range resp.Estimate.Warnings {
				fmt.Fprintln(out, "warning:", w)
			}
			return nil
		},
	}

	searchCmd := &cobra.Command{
		Use:     "search <term>",
		Short:   "Search the inventory by name, display name or trigger word",
		Example: "  scanctl search --local ~/ComfyUI/models ghibli",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := scanInventory(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return printJSON(cmd, types.ModelsResponse{Models: mgr.Search(args[0])})
		},
	}

	root.AddCommand(scanCmd, inspectCmd, resolveCmd, estimateCmd, searchCmd)
	return root
}

// scanInventory builds a manager over a fresh in-memory store and runs one
// scan pass.
func scanInventory(ctx context.Context, cfg *cliConfig) (*manager.Manager, types.ScanResponse, error) {
	local, err := fsutil.ExpandHomeAll(cfg.localRoots)
	if err != nil {
		return nil, types.ScanResponse{}, err
	}
	warehouse, err := fsutil.ExpandHomeAll(cfg.warehouseRoots)
	if err != nil {
		return nil, types.ScanResponse{}, err
	}
	if len(local) == 0 && len(warehouse) == 0 {
		return nil, types.ScanResponse{}, fmt.Errorf("no roots given; use --local and/or --warehouse")
	}

	lvl, err := zerolog.ParseLevel(cfg.logLevel)
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(lvl)

	st := store.NewMemory()
	scanner := scan.New(st,
		scan.WithWorkers(cfg.workers),
		scan.WithFullDigest(cfg.fullDigest),
		scan.WithLogger(log),
	)
	roots := []scan.Roots{
		{Tier: types.TierLocal, Paths: local},
		{Tier: types.TierWarehouse, Paths: warehouse},
	}
	mgr := manager.New(st, scanner, roots, log)
	resp, err := mgr.Scan(ctx)
	if err != nil {
		return nil, types.ScanResponse{}, err
	}
	return mgr, resp, nil
}

// resolveWorkflow runs the full register-and-resolve pipeline against a
// freshly scanned inventory.
func resolveWorkflow(ctx context.Context, cfg *cliConfig, path string) (types.ResolveResponse, error) {
	mgr, _, err := scanInventory(ctx, cfg)
	if err != nil {
		return types.ResolveResponse{}, err
	}
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return types.ResolveResponse{}, err
	}
	wf, err := mgr.RegisterWorkflow(p, "")
	if err != nil {
		return types.ResolveResponse{}, err
	}
	return mgr.ResolveWorkflow(wf.ID)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
