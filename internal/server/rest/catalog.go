package rest

import (
	"net/http"
)

func (s *HTTPServer) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.svc.Catalog.Tags(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(tags, toTag))
}

func (s *HTTPServer) getTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	t, err := s.svc.Catalog.Tag(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTag(*t))
}

// listIngredients is not paginated; ?name= filters by name prefix.
func (s *HTTPServer) listIngredients(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Catalog.Ingredients(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(items, toIngredient))
}

func (s *HTTPServer) getIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	i, err := s.svc.Catalog.Ingredient(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIngredient(*i))
}
