package models

import "time"

// Recipe is a row of the recipes table. Image holds the storage key, not a URL.
type Recipe struct {
	ID          int64
	AuthorID    int64
	Name        string
	Text        string
	Image       string
	CookingTime int
	PubDate     time.Time
}

// IngredientAmount is one requested ingredient line of a recipe.
type IngredientAmount struct {
	IngredientID int64
	Amount       int
}

// RecipeIngredient is a stored ingredient line joined with its ingredient.
type RecipeIngredient struct {
	RecipeID        int64
	IngredientID    int64
	Name            string
	MeasurementUnit string
	Amount          int
}

// RecipeDetails is the full representation of a recipe for a viewer.
type RecipeDetails struct {
	Recipe
	ImageURL         string
	Author           UserProfile
	Tags             []Tag
	Ingredients      []RecipeIngredient
	IsFavorited      bool
	IsInShoppingCart bool
}

// RecipeShort is the projection returned by favorite and cart toggles and
// embedded into author profiles.
type RecipeShort struct {
	ID          int64
	AuthorID    int64
	Name        string
	Image       string
	ImageURL    string
	CookingTime int
}

// RecipeFilter selects recipes for a listing. ViewerID is
// common.AnonymousUserID for anonymous requests, in which case
// IsFavorited and IsInShoppingCart are ignored.
type RecipeFilter struct {
	ViewerID         int64
	TagSlugs         []string
	AuthorID         int64
	IsFavorited      bool
	IsInShoppingCart bool
	Limit            int
	Offset           int
}

// ShoppingListItem is one aggregated line of the shopping list.
type ShoppingListItem struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}
