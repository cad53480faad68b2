// Command dnacore drives a DNA design document from the command line: it
// seeds a demo design, prints statistics, dumps the interchange JSON and
// moves designs between the document store and the archive.
package main

import (
	"context"
	"dnacore/internal/config"
	"dnacore/internal/core"
	"dnacore/pkg/domain"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
)

var exitFunc = os.Exit

const usage = `usage: dnacore <command> [flags]

commands:
  demo             seed a sample design into the document store
  stats            print entity counts and counters
  dump             write the design as interchange JSON to stdout
  export -key KEY  save the design into the archive
  import -key KEY  replace the design with one from the archive
`

// main runs the command-line interface and exits with its status code.
func main() {
	exitFunc(cli(os.Args[1:], os.Stdout, os.Stderr))
}

func cli(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		_, _ = fmt.Fprint(stderr, usage)
		return 2
	}
	cmd, rest := args[0], args[1:]
	fs := flag.NewFlagSet("dnacore "+cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var key string
	switch cmd {
	case "export", "import":
		fs.StringVar(&key, "key", "", "archive key of the design")
	case "demo", "stats", "dump":
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n%s", cmd, usage)
		return 2
	}
	if err := fs.Parse(rest); err != nil {
		return 2
	}
	if (cmd == "export" || cmd == "import") && key == "" {
		_, _ = fmt.Fprintln(stderr, "-key is required")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, cmd, key, stdout, stderr); err != nil {
		_, _ = fmt.Fprintf(stderr, "dnacore %s: %v\n", cmd, err)
		return 1
	}
	return 0
}

func run(ctx context.Context, cmd, key string, stdout, stderr io.Writer) (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	store, err := core.OpenPersistentStore(cfg.Storage, nil)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if closer, ok := store.(io.Closer); ok {
		defer func() {
			if cerr := closer.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close store: %w", cerr)
			}
		}()
	}
	obs, err := core.OpenObservability(cfg.Observability, stderr)
	if err != nil {
		return fmt.Errorf("open observability: %w", err)
	}
	defer reportMetrics(logger, obs)
	opts := append([]core.Option{core.WithLogger(logger), core.WithUndoDepth(cfg.UndoDepth)}, obs.Options()...)
	svc := core.NewService(store, opts...)

	switch cmd {
	case "demo":
		if err := seedDemo(ctx, svc); err != nil {
			return err
		}
		return printStats(stdout, svc)
	case "stats":
		return printStats(stdout, svc)
	case "dump":
		return svc.ExportDesign(stdout)
	case "export":
		arc, err := core.OpenArchive(ctx, cfg.Archive)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		info, err := svc.SaveDesign(ctx, arc, key)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(stdout, "saved %s (%d bytes, etag %s)\n", info.Key, info.Size, info.ETag)
		return err
	case "import":
		arc, err := core.OpenArchive(ctx, cfg.Archive)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		if err := svc.LoadDesign(ctx, arc, key); err != nil {
			return err
		}
		return printStats(stdout, svc)
	}
	return errors.New("unreachable")
}

func reportMetrics(logger *slog.Logger, obs *core.Observability) {
	if obs.Metrics == nil {
		return
	}
	n, err := obs.PhaseCount()
	if err != nil {
		logger.Warn("command metrics unavailable", "err", err)
		return
	}
	logger.Info("command metrics", "phases", n)
}

func printStats(w io.Writer, svc *core.Service) error {
	snap := svc.Snapshot()
	crossovers := 0
	for _, st := range snap.Strands {
		crossovers += len(st.Crossovers)
	}
	c := snap.Counters
	_, err := fmt.Fprintf(w, "grids=%d helices=%d strands=%d crossovers=%d next=%d/%d/%d\n",
		len(snap.Grids), len(snap.Helices), len(snap.Strands), crossovers, c.Grids, c.Helices, c.Strands)
	return err
}

// seedDemo builds a small square-lattice design: four 32-base helices with a
// scaffold-like forward strand on each, one staple crossing between the first
// two helices, and a pasted copy of that staple further along.
func seedDemo(ctx context.Context, svc *core.Service) error {
	g, _, err := svc.CreateGrid(ctx, domain.PlaneXY, domain.Vec3{}, domain.GridSquare)
	if err != nil {
		return err
	}
	var helices []domain.Helix
	for _, p := range []domain.GridPoint{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}} {
		h, _, err := svc.AddHelix(ctx, g.ID, p, 32)
		if err != nil {
			return err
		}
		helices = append(helices, h)
	}
	for _, h := range helices {
		refs, err := svc.GetHelixSub(ctx, h.ID, 0, 31, domain.Forward)
		if err != nil {
			return err
		}
		if _, _, err := svc.CreateStrand(ctx, refs, "", ""); err != nil {
			return err
		}
	}
	var path []domain.NucleotideRef
	for _, h := range helices[:2] {
		refs, err := svc.GetHelixSub(ctx, h.ID, 0, 7, domain.Reverse)
		if err != nil {
			return err
		}
		for i := len(refs) - 1; i >= 0; i-- {
			path = append(path, refs[i])
		}
	}
	staple, _, err := svc.CreateStrand(ctx, path, "", "")
	if err != nil {
		return err
	}
	target := staple.Head()
	target.Index += 16
	_, _, err = svc.PasteStrands(ctx, []domain.StrandID{staple.ID}, staple.Head(), target)
	return err
}
