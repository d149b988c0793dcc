// Command poolstat is a thin external consumer of the balloc public API:
// it opens a pool, runs a small synthetic allocate/free workload against
// it, and prints the resulting segment layout, exercising
// Init/Open/Allocate/Deallocate/Inspect/Close/Shutdown exactly as an
// external caller would.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alexlewtschuk/poolmgr/src/balloc"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "poolstat",
		Usage: "open a pool, run a synthetic workload, print its segment layout",
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:    "size",
				Aliases: []string{"s"},
				Usage:   "backing buffer size in bytes",
				Value:   4096,
			},
			&cli.StringFlag{
				Name:    "policy",
				Aliases: []string{"p"},
				Usage:   "allocation policy: first-fit or best-fit",
				Value:   "first-fit",
			},
			&cli.StringFlag{
				Name:  "workload",
				Usage: "comma-separated sizes to allocate, e.g. 64,128,32",
				Value: "64,128,32,256",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable structured debug logging",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "poolstat:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool("verbose") {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck
		balloc.SetLogger(logger.Sugar())
	}

	policy, err := parsePolicy(c.String("policy"))
	if err != nil {
		return err
	}

	sizes, err := parseWorkload(c.String("workload"))
	if err != nil {
		return err
	}

	if err := balloc.Init(); err != nil {
		return err
	}
	defer func() {
		if err := balloc.Shutdown(); err != nil {
			fmt.Fprintln(os.Stderr, "poolstat: shutdown:", err)
		}
	}()

	pm, err := balloc.Open(c.Uint64("size"), policy)
	if err != nil {
		return err
	}

	handles := make([]balloc.Handle, 0, len(sizes))
	for _, s := range sizes {
		h, err := pm.Allocate(s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "poolstat: allocate(%d): %v\n", s, err)
			continue
		}
		handles = append(handles, h)
	}

	// Free every other allocation so the printed layout shows a
	// realistic mix of gaps and live allocations.
	for i := 0; i < len(handles); i += 2 {
		if err := pm.Deallocate(handles[i]); err != nil {
			fmt.Fprintf(os.Stderr, "poolstat: deallocate: %v\n", err)
		}
	}

	printLayout(pm)

	// Drain remaining allocations so the pool can close cleanly.
	for i := 1; i < len(handles); i += 2 {
		_ = pm.Deallocate(handles[i])
	}
	return balloc.Close(pm)
}

func printLayout(pm *balloc.PoolManager) {
	st := pm.Stats()
	fmt.Printf("total=%d alloc_bytes=%d alloc_count=%d gap_count=%d policy=%s\n",
		st.TotalSize, st.AllocBytes, st.AllocCount, st.GapCount, st.Policy)

	for i, seg := range pm.Inspect() {
		fmt.Printf("  [%d] %-9s size=%d\n", i, seg.State, seg.Size)
	}
}

func parsePolicy(s string) (balloc.Policy, error) {
	switch strings.ToLower(s) {
	case "first-fit", "firstfit", "first":
		return balloc.FirstFit, nil
	case "best-fit", "bestfit", "best":
		return balloc.BestFit, nil
	default:
		return 0, fmt.Errorf("poolstat: unknown policy %q", s)
	}
}

func parseWorkload(s string) ([]uint64, error) {
	parts := strings.Split(s, ",")
	sizes := make([]uint64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("poolstat: invalid workload size %q: %w", p, err)
		}
		sizes = append(sizes, n)
	}
	return sizes, nil
}
