// Package relations stores the user-owned pair tables: favorites, the
// shopping cart and subscriptions. All three share one implementation
// parameterised by a Relation descriptor.
package relations

import "context"

// Relation names a pair table and its two columns. The (owner, target)
// pair is the table's primary key.
type Relation struct {
	Table        string
	OwnerColumn  string
	TargetColumn string
}

var (
	Favorites     = Relation{Table: "favorites", OwnerColumn: "user_id", TargetColumn: "recipe_id"}
	ShoppingCart  = Relation{Table: "shopping_cart", OwnerColumn: "user_id", TargetColumn: "recipe_id"}
	Subscriptions = Relation{Table: "subscriptions", OwnerColumn: "user_id", TargetColumn: "author_id"}
)

type Repository interface {
	// Add links owner to target. An existing pair yields common.ErrorAlreadyExists.
	Add(ctx context.Context, owner, target int64) error
	// Remove unlinks owner from target. A missing pair yields common.ErrorRelationNotFound.
	Remove(ctx context.Context, owner, target int64) error
	// Targets returns a page of target ids, most recently linked first, and the total.
	Targets(ctx context.Context, owner int64, limit, offset int) ([]int64, int, error)
}
