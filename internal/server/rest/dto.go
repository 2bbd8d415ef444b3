package rest

import (
	"github.com/dmitrijs2005/foodgram/internal/server/models"
)

type registerRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	UserName  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,max=150"`
}

type userCreatedResponse struct {
	Email     string `json:"email"`
	ID        int64  `json:"id"`
	UserName  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AuthToken string `json:"auth_token"`
}

type setPasswordRequest struct {
	NewPassword     string `json:"new_password" validate:"required,max=150"`
	CurrentPassword string `json:"current_password" validate:"required"`
}

type userResponse struct {
	Email        string `json:"email"`
	ID           int64  `json:"id"`
	UserName     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

func toUser(p models.UserProfile) userResponse {
	return userResponse{
		Email:        p.Email,
		ID:           p.ID,
		UserName:     p.UserName,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		IsSubscribed: p.IsSubscribed,
	}
}

type recipeShortResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

func toRecipeShort(r models.RecipeShort) recipeShortResponse {
	return recipeShortResponse{ID: r.ID, Name: r.Name, Image: r.ImageURL, CookingTime: r.CookingTime}
}

type subscriptionResponse struct {
	userResponse
	Recipes      []recipeShortResponse `json:"recipes"`
	RecipesCount int                   `json:"recipes_count"`
}

func toSubscription(a models.AuthorProfile) subscriptionResponse {
	out := subscriptionResponse{
		userResponse: toUser(a.UserProfile),
		Recipes:      make([]recipeShortResponse, len(a.Recipes)),
		RecipesCount: a.RecipesCount,
	}
	for i, r := range a.Recipes {
		out.Recipes[i] = toRecipeShort(r)
	}
	return out
}

type tagResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

func toTag(t models.Tag) tagResponse {
	return tagResponse{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

type ingredientResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

func toIngredient(i models.Ingredient) ingredientResponse {
	return ingredientResponse{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

type ingredientAmountRequest struct {
	ID     int64 `json:"id" validate:"gte=1"`
	Amount int   `json:"amount" validate:"gte=1,lte=32000"`
}

// recipeRequest is the body of create and update. Image is a base64 data
// URI; on update it may be omitted to keep the stored image.
type recipeRequest struct {
	Ingredients []ingredientAmountRequest `json:"ingredients" validate:"required,min=1,dive"`
	Tags        []int64                   `json:"tags" validate:"required,min=1,unique"`
	Image       string                    `json:"image"`
	Name        string                    `json:"name" validate:"required,max=200"`
	Text        string                    `json:"text" validate:"required"`
	CookingTime int                       `json:"cooking_time" validate:"gte=1,lte=32000"`
}

type recipeIngredientResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type recipeResponse struct {
	ID               int64                      `json:"id"`
	Tags             []tagResponse              `json:"tags"`
	Author           userResponse               `json:"author"`
	Ingredients      []recipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
}

func toRecipe(d models.RecipeDetails) recipeResponse {
	out := recipeResponse{
		ID:               d.ID,
		Tags:             make([]tagResponse, len(d.Tags)),
		Author:           toUser(d.Author),
		Ingredients:      make([]recipeIngredientResponse, len(d.Ingredients)),
		IsFavorited:      d.IsFavorited,
		IsInShoppingCart: d.IsInShoppingCart,
		Name:             d.Name,
		Image:            d.ImageURL,
		Text:             d.Text,
		CookingTime:      d.CookingTime,
	}
	for i, t := range d.Tags {
		out.Tags[i] = toTag(t)
	}
	for i, l := range d.Ingredients {
		out.Ingredients[i] = recipeIngredientResponse{
			ID:              l.IngredientID,
			Name:            l.Name,
			MeasurementUnit: l.MeasurementUnit,
			Amount:          l.Amount,
		}
	}
	return out
}

// mapSlice converts every element with f; the result is never nil.
func mapSlice[T, R any](in []T, f func(T) R) []R {
	out := make([]R, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}
