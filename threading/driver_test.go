package threading

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FishAndRips/ringhopper-sub000/errs"
	"github.com/FishAndRips/ringhopper-sub000/logger"
	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/tagfile"
	"github.com/FishAndRips/ringhopper-sub000/tagtree"
)

func buildTree(t *testing.T, count int) tagtree.TagTree {
	t.Helper()
	root := t.TempDir()
	for i := 0; i < count; i++ {
		tag, err := tagfile.NewTag(primitive.TagGroupWind)
		require.NoError(t, err)
		data, err := tagfile.Write(tag)
		require.NoError(t, err)
		location := filepath.Join(root, "env", fmt.Sprintf("wind%d.wind", i))
		require.NoError(t, os.MkdirAll(filepath.Dir(location), 0o755))
		require.NoError(t, os.WriteFile(location, data, 0o644))
	}
	tree, err := tagtree.NewVirtualTagsDirectory([]string{root})
	require.NoError(t, err)
	return tree
}

func TestDriverAggregation(t *testing.T) {
	const total = 8
	tree := buildTree(t, total)

	var out, errOut bytes.Buffer
	log := logger.NewWriterLogger(&out, &errOut)

	failing, err := primitive.NewTagPath(`env\wind0`, primitive.TagGroupWind)
	require.NoError(t, err)

	summary, runErr := Run(&Options[struct{}]{
		Tree:        tree,
		Filter:      "*",
		DisplayMode: ShowAll,
		Logger:      log,
		Verb:        "process",
		Function: func(ctx *Context[struct{}], path primitive.TagPath, _ logger.Logger) (Status, error) {
			if path == failing {
				return Status{}, errs.Otherf("intentional failure")
			}
			return Ok(), nil
		},
	})
	require.NoError(t, runErr)
	log.Flush()

	require.Equal(t, uint64(total), summary.Total)
	require.Equal(t, uint64(total-1), summary.Success)
	require.Equal(t, uint64(1), summary.Failures)
	require.True(t, summary.Failed())

	stdout := out.String()
	require.Equal(t, total-1, strings.Count(stdout, "Saved env"), "one Saved line per success")
	require.Equal(t, 1, strings.Count(errOut.String(), "Failed to process"))
	require.Contains(t, errOut.String(), fmt.Sprintf("Saved %d / %d tags in", total-1, total))
	require.Contains(t, errOut.String(), "with 1 error")
}

func TestDriverSinglePath(t *testing.T) {
	tree := buildTree(t, 2)
	var out, errOut bytes.Buffer
	log := logger.NewWriterLogger(&out, &errOut)

	visited := 0
	summary, err := Run(&Options[struct{}]{
		Tree:        tree,
		Filter:      `env\wind1.wind`,
		DisplayMode: Silent,
		Logger:      log,
		Verb:        "touch",
		Function: func(ctx *Context[struct{}], path primitive.TagPath, _ logger.Logger) (Status, error) {
			visited++
			return Ok(), nil
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, visited)
	require.Equal(t, uint64(1), summary.Total)
}

func TestDriverIgnoredDoNotCount(t *testing.T) {
	tree := buildTree(t, 3)
	var out, errOut bytes.Buffer
	log := logger.NewWriterLogger(&out, &errOut)

	summary, err := Run(&Options[struct{}]{
		Tree:        tree,
		Filter:      "*",
		DisplayMode: Silent,
		Logger:      log,
		Verb:        "noop",
		Workers:     2,
		Function: func(ctx *Context[struct{}], path primitive.TagPath, _ logger.Logger) (Status, error) {
			if strings.Contains(path.Path(), "wind2") {
				return Ignore(), nil
			}
			return Skip("nothing to do"), nil
		},
	})
	require.NoError(t, err)
	require.Equal(t, uint64(2), summary.Total)
	require.Equal(t, uint64(1), summary.Ignored)
	require.Equal(t, uint64(0), summary.Failures)
}

func TestDriverNoMatches(t *testing.T) {
	tree := buildTree(t, 1)
	var out, errOut bytes.Buffer
	log := logger.NewWriterLogger(&out, &errOut)

	_, err := Run(&Options[struct{}]{
		Tree:        tree,
		Filter:      `missing\*`,
		DisplayMode: Silent,
		Logger:      log,
		Verb:        "noop",
		Function: func(ctx *Context[struct{}], path primitive.TagPath, _ logger.Logger) (Status, error) {
			return Ok(), nil
		},
	})
	require.Error(t, err)
}
