package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/FishAndRips/ringhopper-sub000/cachemap"
	"github.com/FishAndRips/ringhopper-sub000/engines"
	"github.com/FishAndRips/ringhopper-sub000/errs"
	"github.com/FishAndRips/ringhopper-sub000/logger"
	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/tagtree"
	"github.com/FishAndRips/ringhopper-sub000/threading"
)

func listEnginesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-engines",
		Short: "List all known engine targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, engine := range engines.All() {
				target := ""
				if engine.BuildTarget {
					target = " [build target]"
				}
				build := ""
				if engine.Build != nil {
					build = " build " + engine.Build.String
				}
				fmt.Printf("%-18s %s (cache version %d%s)%s\n", engine.Name, engine.DisplayName, engine.CacheFileVersion, build, target)
			}
			return nil
		},
	}
}

// loadMap reads a map and any companion resource maps sitting next to it.
func loadMap(path string) (*cachemap.CacheFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var opts []cachemap.LoadOption
	dir := filepath.Dir(path)
	if bitmaps, err := os.ReadFile(filepath.Join(dir, "bitmaps.map")); err == nil {
		opts = append(opts, cachemap.WithBitmaps(bitmaps))
	}
	if sounds, err := os.ReadFile(filepath.Join(dir, "sounds.map")); err == nil {
		opts = append(opts, cachemap.WithSounds(sounds))
	}
	if loc, err := os.ReadFile(filepath.Join(dir, "loc.map")); err == nil {
		opts = append(opts, cachemap.WithLoc(loc))
	}

	return cachemap.Load(data, opts...)
}

func infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <map>",
		Short: "Print a cache file's header facts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadMap(args[0])
			if err != nil {
				return err
			}

			header := m.Header()
			calculated := m.CalculateCRC32()
			match := "matches"
			if calculated != header.CRC32 {
				match = "MISMATCH"
			}

			fmt.Printf("Scenario name:  %s\n", m.Name())
			fmt.Printf("Engine:         %s\n", m.Engine().DisplayName)
			fmt.Printf("Scenario type:  %v\n", m.ScenarioType())
			fmt.Printf("Build:          %s\n", header.Build.String())
			fmt.Printf("CRC32:          stored 0x%08X, calculated 0x%08X (%s)\n", header.CRC32, calculated, match)
			fmt.Printf("Tags:           %d\n", len(m.AllTags()))
			fmt.Printf("BSPs:           %d\n", m.BSPCount())
			return nil
		},
	}
}

func extractCommand() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "extract <map> <tags-dir>",
		Short: "Extract tags from a cache file into a tags directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadMap(args[0])
			if err != nil {
				return err
			}
			if err := os.MkdirAll(args[1], 0o755); err != nil {
				return err
			}
			output, err := tagtree.NewVirtualTagsDirectory([]string{args[1]})
			if err != nil {
				return err
			}

			summary, err := threading.Run(&threading.Options[struct{}]{
				Tree:        m.Tree(),
				Filter:      filter,
				DisplayMode: threading.ShowAll,
				Logger:      logger.NewTerminal(),
				Verb:        "extract",
				Function: func(ctx *threading.Context[struct{}], path primitive.TagPath, _ logger.Logger) (threading.Status, error) {
					tag, err := ctx.Tree.GetTag(path)
					if err != nil {
						if errors.Is(err, errs.ErrTagGroupUnimplemented) {
							return threading.Ignore(), nil
						}
						return threading.Status{}, err
					}
					return threading.WrapWriteResult(output.WriteTag(path, tag))
				},
			})
			if err != nil {
				return err
			}
			if summary.Failed() {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "*", "tag path filter")
	return cmd
}
