package codec

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/meridian-lang/meridian/internal/term"
)

// ParseTermFixture parses a human-authored term fixture. Fixtures are
// JSON with comments and trailing commas allowed (JSONC); the layout
// mirrors the wire form. The tree is rebuilt bottom-up through
// term.FromContent, so an inconsistent fixture fails with the same
// *term.ScopeError construction would raise.
func ParseTermFixture(data []byte) (term.Expr[string], error) {
	var w wireTerm
	if err := json.Unmarshal(jsonc.ToJSON(data), &w); err != nil {
		return term.Expr[string]{}, fmt.Errorf("codec: parse fixture: %w", err)
	}

	return buildTerm(&w)
}

// ReadTermFixture reads and parses a term fixture file.
func ReadTermFixture(path string) (term.Expr[string], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return term.Expr[string]{}, fmt.Errorf("codec: read fixture: %w", err)
	}

	return ParseTermFixture(data)
}

// WriteTermFixture renders a term as an indented JSON fixture.
func WriteTermFixture(e term.Expr[string]) ([]byte, error) {
	data, err := json.MarshalIndent(flattenTerm(e), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("codec: write fixture: %w", err)
	}

	return data, nil
}
