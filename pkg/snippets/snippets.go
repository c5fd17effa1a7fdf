package snippets

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Snippet is one fenced code block
type Snippet struct {
	// Lang is the first word of the fence info string, lower-cased
	Lang string
	Code string
	// Line is the 1-based line of the opening fence
	Line int
}

var extensions = map[string]string{
	"sql":        "sql",
	"plpgsql":    "sql",
	"typescript": "ts",
	"ts":         "ts",
	"javascript": "js",
	"js":         "js",
	"go":         "go",
	"bash":       "sh",
	"sh":         "sh",
	"yaml":       "yml",
	"json":       "json",
}

// Extract returns the fenced code blocks of a Markdown document in order.
// A non-empty lang keeps only blocks whose info string starts with it.
func Extract(source []byte, lang string) ([]Snippet, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var out []Snippet
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		blockLang := strings.ToLower(string(block.Language(source)))
		if lang != "" && blockLang != lang {
			return ast.WalkSkipChildren, nil
		}

		var code bytes.Buffer
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			code.Write(seg.Value(source))
		}

		out = append(out, Snippet{
			Lang: blockLang,
			Code: code.String(),
			Line: fenceLine(source, block),
		})
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk markdown: %w", err)
	}
	return out, nil
}

func fenceLine(source []byte, block *ast.FencedCodeBlock) int {
	if block.Info != nil {
		return lineOf(source, block.Info.Segment.Start)
	}
	if block.Lines().Len() > 0 {
		return lineOf(source, block.Lines().At(0).Start) - 1
	}
	return 0
}

func lineOf(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	return bytes.Count(source[:offset], []byte("\n")) + 1
}

// FileName names the i-th snippet (0-based) after its language
func FileName(i int, s Snippet) string {
	ext, ok := extensions[s.Lang]
	if !ok {
		ext = "txt"
	}
	return fmt.Sprintf("snippet-%03d.%s", i+1, ext)
}

// WriteFiles writes each snippet to dir and returns the paths written
func WriteFiles(dir string, snippets []Snippet) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	paths := make([]string, 0, len(snippets))
	for i, s := range snippets {
		path := filepath.Join(dir, FileName(i, s))
		if err := os.WriteFile(path, []byte(s.Code), 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
