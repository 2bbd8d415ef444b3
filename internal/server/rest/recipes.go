package rest

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/foodgram/internal/common"
	"github.com/dmitrijs2005/foodgram/internal/server/images"
	"github.com/dmitrijs2005/foodgram/internal/server/metrics"
	"github.com/dmitrijs2005/foodgram/internal/server/models"
	"github.com/dmitrijs2005/foodgram/internal/server/services"
	"github.com/dmitrijs2005/foodgram/internal/server/validation"
)

func (s *HTTPServer) listRecipes(w http.ResponseWriter, r *http.Request) {
	p, err := s.pagination(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	filter, err := recipeFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	filter.ViewerID = viewerID(r.Context())
	filter.Limit = p.limit
	filter.Offset = p.offset()

	page, err := s.svc.Recipes.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := newPage(r, p, page.Count, mapSlice(page.Items, toRecipe))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) getRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	d, err := s.svc.Recipes.Get(r.Context(), viewerID(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecipe(*d))
}

func (s *HTTPServer) createRecipe(w http.ResponseWriter, r *http.Request) {
	in, err := recipeInput(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	d, err := s.svc.Recipes.Create(r.Context(), viewerID(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.log(r.Context()).Info(r.Context(), "Recipe created", "recipe_id", d.ID, "author_id", d.AuthorID)
	writeJSON(w, http.StatusCreated, toRecipe(*d))
}

func (s *HTTPServer) updateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// ownership is reported before problems with the body
	if err := s.svc.Recipes.CheckOwner(r.Context(), viewerID(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	in, err := recipeInput(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	d, err := s.svc.Recipes.Update(r.Context(), viewerID(r.Context()), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecipe(*d))
}

func (s *HTTPServer) deleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.Recipes.Delete(r.Context(), viewerID(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) toggleAdd(t RecipeToggle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		short, err := t.Add(r.Context(), services.ToggleRequest{OwnerID: viewerID(r.Context()), TargetID: id})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toRecipeShort(short))
	}
}

func (s *HTTPServer) toggleRemove(t RecipeToggle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		if err := t.Remove(r.Context(), viewerID(r.Context()), id); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *HTTPServer) downloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.ShoppingList.Build(r.Context(), viewerID(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	metrics.ShoppingListDownloads.Inc()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+services.ShoppingListFileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.svc.ShoppingList.Render(items)))
}

// recipeInput decodes and validates a create or update body.
func recipeInput(r *http.Request) (services.RecipeInput, error) {
	var req recipeRequest
	if err := decodeJSON(r, &req); err != nil {
		return services.RecipeInput{}, err
	}

	in := services.RecipeInput{
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		Tags:        req.Tags,
		Ingredients: make([]models.IngredientAmount, len(req.Ingredients)),
	}
	for i, l := range req.Ingredients {
		in.Ingredients[i] = models.IngredientAmount{IngredientID: l.ID, Amount: l.Amount}
	}

	if req.Image != "" {
		img, err := images.ParseDataURI(req.Image)
		if err != nil {
			return in, validation.NewError("image", imageMessage(err))
		}
		in.Image = img
	}
	return in, nil
}

func imageMessage(err error) string {
	msg := err.Error()
	if errors.Is(err, common.ErrorValidation) {
		msg = strings.TrimPrefix(msg, common.ErrorValidation.Error()+": ")
	}
	return msg
}

// recipeFilter reads ?tags=a&tags=b&author=1&is_favorited=1&is_in_shopping_cart=1.
func recipeFilter(q url.Values) (models.RecipeFilter, error) {
	f := models.RecipeFilter{
		TagSlugs:         tagSlugs(q["tags"]),
		IsFavorited:      queryBool(q.Get("is_favorited")),
		IsInShoppingCart: queryBool(q.Get("is_in_shopping_cart")),
	}

	if raw := q.Get("author"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			return f, validation.NewError("author", "Select a valid choice.")
		}
		f.AuthorID = id
	}
	return f, nil
}

// tagSlugs drops blank values, a bare ?tags= means no tag filter.
func tagSlugs(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func queryBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true":
		return true
	}
	return false
}
