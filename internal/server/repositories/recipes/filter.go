package recipes

import (
	"strconv"
	"strings"

	"github.com/dmitrijs2005/foodgram/internal/common"
	"github.com/dmitrijs2005/foodgram/internal/server/models"
)

// whereBuilder collects conditions and positional args. The viewer id gets
// a placeholder only once something references it, postgres refuses
// parameters it cannot type.
type whereBuilder struct {
	conds    []string
	args     []any
	viewerID int64
	viewerPH string
}

func (b *whereBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *whereBuilder) viewer() string {
	if b.viewerPH == "" {
		b.viewerPH = b.arg(b.viewerID)
	}
	return b.viewerPH
}

func (b *whereBuilder) add(cond string) {
	b.conds = append(b.conds, cond)
}

func (b *whereBuilder) sql() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

func buildFilter(f models.RecipeFilter) *whereBuilder {
	b := &whereBuilder{viewerID: f.ViewerID}

	if f.AuthorID != 0 {
		b.add("r.author_id = " + b.arg(f.AuthorID))
	}

	if slugs := nonBlank(f.TagSlugs); len(slugs) > 0 {
		b.add(`EXISTS (SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id ` +
			`WHERE rt.recipe_id = r.id AND t.slug = ANY(` + b.arg(slugs) + `))`)
	}

	// anonymous viewers own no favorites or cart, the flags are no-ops for them
	if f.ViewerID != common.AnonymousUserID {
		if f.IsFavorited {
			b.add(`EXISTS (SELECT 1 FROM favorites f WHERE f.recipe_id = r.id AND f.user_id = ` + b.viewer() + `)`)
		}
		if f.IsInShoppingCart {
			b.add(`EXISTS (SELECT 1 FROM shopping_cart c WHERE c.recipe_id = r.id AND c.user_id = ` + b.viewer() + `)`)
		}
	}

	return b
}

// nonBlank drops empty slugs so that a bare ?tags= does not filter.
func nonBlank(slugs []string) []string {
	out := make([]string, 0, len(slugs))
	for _, s := range slugs {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
