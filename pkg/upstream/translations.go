package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// TranslationTree is the loosely typed translation resource: nested string
// maps with string leaves. Validated at the API boundary instead of being
// trusted implicitly.
type TranslationTree struct {
	root map[string]any
}

func (t *TranslationTree) Raw() map[string]any { return t.root }

// Lookup resolves a dotted key ("athletes.search.placeholder").
func (t *TranslationTree) Lookup(key string) (string, bool) {
	expr, err := jp.ParseString(key)
	if err != nil {
		return "", false
	}
	for _, v := range expr.Get(t.root) {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

// ParseTranslations validates the payload: a json object whose leaves are
// strings and whose inner nodes are objects. Anything else is rejected.
func ParseTranslations(data []byte) (*TranslationTree, error) {
	parsed, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid translation payload: %w", err)
	}
	root, ok := parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("translation payload is not an object")
	}
	if err := validateNode("", root); err != nil {
		return nil, err
	}
	return &TranslationTree{root: root}, nil
}

func validateNode(path string, node map[string]any) error {
	for k, v := range node {
		p := k
		if path != "" {
			p = strings.Join([]string{path, k}, ".")
		}
		switch val := v.(type) {
		case string:
		case map[string]any:
			if err := validateNode(p, val); err != nil {
				return err
			}
		default:
			return fmt.Errorf("translation node %q has unsupported type %T", p, val)
		}
	}
	return nil
}

// Translations fetches and validates the translation tree for a locale.
func (c *Client) Translations(ctx context.Context, locale string) (
	*TranslationTree, error,
) {
	data, err := c.GetRaw(ctx,
		fmt.Sprintf("/api/translations/%s", url.PathEscape(locale)), nil)
	if err != nil {
		return nil, err
	}
	return ParseTranslations(data)
}
