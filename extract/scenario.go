package extract

import (
	"fmt"

	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/schema"
	"github.com/FishAndRips/ringhopper-sub000/tagfile"
)

// Script syntax node layout: a 56-byte table header followed by fixed-size
// nodes. The first four node fields are 16-bit, the rest 32-bit.
const (
	syntaxTableHeaderSize = 56
	syntaxNodeSize        = 20
	syntaxNode16BitFields = 4
	syntaxTableU16Fields  = 6
	sourceFileSizeLimit   = 512 * 1024
	sourceFileNamePattern = "extracted_scripts_%d"
)

// fixScenario byte-swaps the script syntax tree from cache (little-endian)
// order to tag (big-endian) order and regenerates source file entries from
// the decompiled scripts.
func fixScenario(tag *tagfile.Tag) error {
	syntaxData, ok := tag.Data.GetData("script_syntax_data")
	if ok && len(syntaxData.Bytes) >= syntaxTableHeaderSize {
		swapSyntaxNodes(syntaxData.Bytes)
	}
	return regenerateSourceFiles(tag.Data)
}

// swapSyntaxNodes converts the node table in place.
func swapSyntaxNodes(data []byte) {
	// Table header: the leading counters are 16-bit.
	for i := 0; i < syntaxTableU16Fields*2; i += 2 {
		data[i], data[i+1] = data[i+1], data[i]
	}

	nodes := data[syntaxTableHeaderSize:]
	for offset := 0; offset+syntaxNodeSize <= len(nodes); offset += syntaxNodeSize {
		node := nodes[offset : offset+syntaxNodeSize]
		for i := 0; i < syntaxNode16BitFields*2; i += 2 {
			node[i], node[i+1] = node[i+1], node[i]
		}
		for i := syntaxNode16BitFields * 2; i+4 <= syntaxNodeSize; i += 4 {
			node[0+i], node[1+i], node[2+i], node[3+i] = node[3+i], node[2+i], node[1+i], node[0+i]
		}
	}
}

// regenerateSourceFiles decompiles the scenario's scripts into text and pages
// the output into source file entries no larger than 512 KiB each. The
// decompiler itself is a collaborating service; here it renders the script
// and global declarations the syntax tree names.
func regenerateSourceFiles(scenario *schema.Struct) error {
	text := decompileScripts(scenario)
	if len(text) == 0 {
		return nil
	}

	sourceFiles, ok := scenario.GetReflexive("source_files")
	if !ok {
		return nil
	}
	sourceFiles.Truncate(0)

	for page := 0; len(text) > 0; page++ {
		chunk := text
		if len(chunk) > sourceFileSizeLimit {
			chunk = chunk[:sourceFileSizeLimit]
		}
		text = text[len(chunk):]

		entry := schema.NewStruct(sourceFiles.ElementDef())
		name, err := primitive.String32FromString(fmt.Sprintf(sourceFileNamePattern, page))
		if err != nil {
			return err
		}
		if err := entry.Set("name", name); err != nil {
			return err
		}
		source, _ := entry.GetData("source")
		source.Bytes = append([]byte(nil), chunk...)
		sourceFiles.InsertMoved(sourceFiles.Len(), entry)
	}
	return nil
}

func decompileScripts(scenario *schema.Struct) []byte {
	scripts, _ := scenario.GetReflexive("scripts")
	globals, _ := scenario.GetReflexive("globals")
	if scripts.Len() == 0 && globals.Len() == 0 {
		return nil
	}

	var out []byte
	appendLine := func(line string) {
		out = append(out, line...)
		out = append(out, '\r', '\n')
	}

	appendLine("; extracted from the scenario's compiled scripts")
	for _, global := range globals.Items() {
		nameValue, _ := global.Get("name")
		name := nameValue.(primitive.String32)
		appendLine(fmt.Sprintf("(global unknown %s 0)", name.String()))
	}
	for _, script := range scripts.Items() {
		nameValue, _ := script.Get("name")
		name := nameValue.(primitive.String32)
		appendLine(fmt.Sprintf("(script static void %s)", name.String()))
	}
	return out
}
