// Command btreeidx builds, scans, and reports on a disk-resident
// B+-tree secondary index, per spec.md. It is a thin driver over the
// internal/btreeidx engine. build opens the relation heap file and the
// index file through buffer managers and bulk-builds the index; scan,
// and stats with --dump-tree, open only the index file (their
// relation-file argument only supplies the relation name checked
// against the index metadata). Each flushes on exit.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"btreeidx/internal/bufmgr"
	"btreeidx/internal/btreeidx"
	"btreeidx/internal/idxconfig"
	"btreeidx/internal/idxlog"
	"btreeidx/internal/pagestore"
	"btreeidx/internal/relation"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "btreeidx",
	Short: "Build and query a B+-tree secondary index over one integer attribute",
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a YAML config file (optional)")
	rootCmd.AddCommand(buildCmd, scanCmd, statsCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*idxconfig.Config, error) {
	if cfgPath == "" {
		return idxconfig.Default(), nil
	}
	return idxconfig.Load(cfgPath)
}

// relationNameFor derives the relation identity Open/bulkBuild compares
// against from a relation file's path. build, scan, and stats must all
// derive it the same way from the same relation-file argument, or a
// freshly built index can never be reopened (cfg.IndexFileName is a
// different thing entirely — it names an *index* file, not a relation).
func relationNameFor(relationFilePath string) string {
	return filepath.Base(relationFilePath)
}

var buildCmd = &cobra.Command{
	Use:   "build <relation-file> <index-file> <attr-byte-offset>",
	Short: "Bulk-build an index over every record in a relation file",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		offset, err := parseOffset(args[2])
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		runID := uuid.New()
		log := idxlog.Get().With().Str("build_run", runID.String()).Logger()

		relStore, err := pagestore.Open(args[0])
		if err != nil {
			return err
		}
		relMgr := bufmgr.New(relStore, cfg.BufferPool.Capacity)
		heap := relation.NewHeap(relMgr)

		idxStore, err := pagestore.Open(args[1])
		if err != nil {
			_ = relMgr.Close()
			return err
		}
		idxMgr := bufmgr.New(idxStore, cfg.BufferPool.Capacity)

		relationName := relationNameFor(args[0])
		log.Info().Str("relation", args[0]).Str("index", args[1]).Int("offset", offset).Msg("build starting")
		idx, err := btreeidx.Open(idxMgr, relationName, offset, btreeidx.Integer,
			relation.Int32Codec{}, relation.NewScanner(heap))
		if err != nil {
			_ = idxMgr.Close()
			_ = relMgr.Close()
			return err
		}

		log.Info().Str("relation", args[0]).Str("index", args[1]).Int("offset", offset).Msg("index built")
		if err := idx.Close(); err != nil {
			_ = idxMgr.Close()
			_ = relMgr.Close()
			return err
		}
		if err := idxMgr.Close(); err != nil {
			_ = relMgr.Close()
			return err
		}
		return relMgr.Close()
	},
}

var (
	scanLo   int32
	scanHi   int32
	scanLoOp string
	scanHiOp string
)

var scanCmd = &cobra.Command{
	Use:   "scan <relation-file> <index-file> <attr-byte-offset>",
	Short: "Run a bounded range scan and print matching (key, rid) pairs",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		offset, err := parseOffset(args[2])
		if err != nil {
			return err
		}
		loOp, err := parseOp(scanLoOp, true)
		if err != nil {
			return err
		}
		hiOp, err := parseOp(scanHiOp, false)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		idxStore, err := pagestore.Open(args[1])
		if err != nil {
			return err
		}
		idxMgr := bufmgr.New(idxStore, cfg.BufferPool.Capacity)
		defer func() { _ = idxMgr.Close() }()

		idx, err := btreeidx.Open(idxMgr, relationNameFor(args[0]), offset, btreeidx.Integer, nil, nil)
		if err != nil {
			return err
		}
		defer func() { _ = idx.Close() }()

		if err := idx.StartScan(loOp, scanLo, hiOp, scanHi); err != nil {
			return err
		}
		defer func() { _ = idx.EndScan() }()

		for {
			key, rid, err := idx.ScanNext()
			if err != nil {
				if errors.Is(err, btreeidx.ErrIndexScanCompleted) {
					return nil
				}
				return err
			}
			fmt.Printf("%d\t(%d,%d)\n", key, rid.PageNo, rid.SlotNo)
		}
	},
}

var statsDumpTree bool

var statsCmd = &cobra.Command{
	Use:   "stats <relation-file> <index-file> <attr-byte-offset>",
	Short: "Print the index's leaf and non-leaf page capacities, and optionally its tree shape",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		offset, err := parseOffset(args[2])
		if err != nil {
			return err
		}
		fmt.Printf("page size:      %d\n", pagestore.PageSize)
		fmt.Printf("leaf capacity:  %d\n", btreeidx.LeafCapacity(pagestore.PageSize))
		fmt.Printf("node capacity:  %d\n", btreeidx.NodeCapacity(pagestore.PageSize))
		if !statsDumpTree {
			return nil
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		idxStore, err := pagestore.Open(args[1])
		if err != nil {
			return err
		}
		idxMgr := bufmgr.New(idxStore, cfg.BufferPool.Capacity)
		defer func() { _ = idxMgr.Close() }()

		idx, err := btreeidx.Open(idxMgr, relationNameFor(args[0]), offset, btreeidx.Integer, nil, nil)
		if err != nil {
			return err
		}
		defer func() { _ = idx.Close() }()

		return idx.DebugDump(os.Stdout)
	},
}

func init() {
	scanCmd.Flags().Int32Var(&scanLo, "lo", 0, "lower bound key")
	scanCmd.Flags().Int32Var(&scanHi, "hi", 0, "upper bound key")
	scanCmd.Flags().StringVar(&scanLoOp, "lo-op", "gte", "lower bound operator: gt or gte")
	scanCmd.Flags().StringVar(&scanHiOp, "hi-op", "lte", "upper bound operator: lt or lte")
	statsCmd.Flags().BoolVar(&statsDumpTree, "dump-tree", false, "also print the tree shape page by page")
}

func parseOffset(s string) (int, error) {
	var offset int
	if _, err := fmt.Sscanf(s, "%d", &offset); err != nil {
		return 0, fmt.Errorf("invalid attribute byte offset %q: %w", s, err)
	}
	return offset, nil
}

func parseOp(s string, lower bool) (btreeidx.Op, error) {
	switch s {
	case "gt":
		if lower {
			return btreeidx.GT, nil
		}
	case "gte":
		if lower {
			return btreeidx.GTE, nil
		}
	case "lt":
		if !lower {
			return btreeidx.LT, nil
		}
	case "lte":
		if !lower {
			return btreeidx.LTE, nil
		}
	}
	return 0, fmt.Errorf("invalid operator %q", s)
}
