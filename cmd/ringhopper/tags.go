package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/refgraph"
	"github.com/FishAndRips/ringhopper-sub000/tagtree"
	"github.com/FishAndRips/ringhopper-sub000/verify"
)

func openTagsDirectories(dirs []string) (*tagtree.VirtualTagsDirectory, error) {
	return tagtree.NewVirtualTagsDirectory(dirs)
}

func verifyCommand() *cobra.Command {
	var tags []string
	var workers int

	cmd := &cobra.Command{
		Use:   "verify [filter]",
		Short: "Verify tags and their dependencies",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := openTagsDirectories(tags)
			if err != nil {
				return err
			}

			var filter *tagtree.TagFilter
			if len(args) == 1 {
				filter = tagtree.NewTagFilter(args[0], nil)
			}

			verifier := verify.NewVerifier(tree, workers)
			results := verifier.VerifyAll(filter)

			paths := make([]primitive.TagPath, 0, len(results))
			for path := range results {
				paths = append(paths, path)
			}
			sort.Slice(paths, func(i, j int) bool {
				return paths[i].ToInternalPath() < paths[j].ToInternalPath()
			})

			failures := 0
			for _, path := range paths {
				result := results[path]
				if result.OpenError != nil {
					fmt.Fprintf(os.Stderr, "Failed to verify %v: %v\n", path, result.OpenError)
					failures++
					continue
				}
				for _, issue := range result.Issues {
					fmt.Printf("%v: %v: %s\n", path, issue.Severity, issue.Detail)
				}
				if !result.Ok() {
					failures++
				}
			}

			fmt.Printf("Verified %d tags, %d with errors\n", len(paths), failures)
			if failures > 0 {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&tags, "tags", []string{"tags"}, "tags directory (repeatable; first takes priority)")
	cmd.Flags().IntVar(&workers, "jobs", 0, "worker count (0 = all cores)")
	return cmd
}

func dependenciesCommand() *cobra.Command {
	var tags []string
	var recursive bool
	var reverse bool

	cmd := &cobra.Command{
		Use:   "dependencies <tag>",
		Short: "List a tag's dependencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := openTagsDirectories(tags)
			if err != nil {
				return err
			}
			path, err := primitive.TagPathFromPath(args[0])
			if err != nil {
				return err
			}

			switch {
			case reverse:
				closure, failures := refgraph.ReverseClosure(tree)
				for _, source := range closure[path] {
					fmt.Println(source)
				}
				reportFailures(failures)
			case recursive:
				closure, failures := refgraph.ForwardClosure(tree, path)
				paths := make([]primitive.TagPath, 0, len(closure))
				for visited := range closure {
					if visited != path {
						paths = append(paths, visited)
					}
				}
				sort.Slice(paths, func(i, j int) bool {
					return paths[i].ToInternalPath() < paths[j].ToInternalPath()
				})
				for _, dependency := range paths {
					fmt.Println(dependency)
				}
				reportFailures(failures)
			default:
				tag, err := tree.GetTag(path)
				if err != nil {
					return err
				}
				for _, dependency := range refgraph.DirectDependencies(tag) {
					fmt.Println(dependency)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&tags, "tags", []string{"tags"}, "tags directory (repeatable)")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "list the full closure")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "list tags depending on this tag")
	return cmd
}

func reportFailures(failures map[primitive.TagPath]error) {
	for path, err := range failures {
		fmt.Fprintf(os.Stderr, "Failed to open %v: %v\n", path, err)
	}
}

func refactorPathsCommand() *cobra.Command {
	var tags []string
	var noMove bool
	var replaceType string

	cmd := &cobra.Command{
		Use:   "refactor-paths <from> <to>",
		Short: "Rename tags and rewrite every reference to them",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := openTagsDirectories(tags)
			if err != nil {
				return err
			}

			mode := refgraph.ReplaceStartOnly
			switch replaceType {
			case "start":
			case "all":
				mode = refgraph.ReplaceAll
			default:
				return fmt.Errorf("invalid --replace-type %q (want start or all)", replaceType)
			}

			result, err := refgraph.RefactorPaths(tree, &refgraph.RefactorPathsOptions{
				Find:    args[0],
				Replace: args[1],
				Mode:    mode,
				NoMove:  noMove,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Renamed %d tags, updated references in %d tags\n", len(result.Renames), len(result.TagsChanged))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&tags, "tags", []string{"tags"}, "tags directory (repeatable)")
	cmd.Flags().BoolVar(&noMove, "no-move", false, "rewrite references only; tags must already exist at the destination")
	cmd.Flags().StringVar(&replaceType, "replace-type", "start", "where to replace: start or all")
	return cmd
}

func refactorGroupsCommand() *cobra.Command {
	var tags []string
	var filterExpr string

	cmd := &cobra.Command{
		Use:   "refactor-groups <from-group> <to-group>",
		Short: "Rewrite references from one tag group to another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := openTagsDirectories(tags)
			if err != nil {
				return err
			}
			from, err := primitive.TagGroupFromName(args[0])
			if err != nil {
				return fmt.Errorf("unknown group %q", args[0])
			}
			to, err := primitive.TagGroupFromName(args[1])
			if err != nil {
				return fmt.Errorf("unknown group %q", args[1])
			}

			var filter *tagtree.TagFilter
			if filterExpr != "" {
				filter = tagtree.NewTagFilter(filterExpr, nil)
			}

			result, err := refgraph.RefactorGroups(tree, from, to, filter)
			if err != nil {
				return err
			}
			fmt.Printf("Updated references in %d tags\n", len(result.TagsChanged))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&tags, "tags", []string{"tags"}, "tags directory (repeatable)")
	cmd.Flags().StringVar(&filterExpr, "filter", "", "limit which tags are scanned")
	return cmd
}
