package rest

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/foodgram/internal/server/services"
)

func (s *HTTPServer) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	u, err := s.svc.Users.Register(r.Context(), services.RegisterInput{
		Email:     req.Email,
		UserName:  req.UserName,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.log(r.Context()).Info(r.Context(), "Registered", "user_id", u.ID)
	writeJSON(w, http.StatusCreated, userCreatedResponse{
		Email:     u.Email,
		ID:        u.ID,
		UserName:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	})
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	token, err := s.svc.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AuthToken: token})
}

func (s *HTTPServer) logout(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	if err := s.svc.Users.Logout(r.Context(), *id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) setPassword(w http.ResponseWriter, r *http.Request) {
	var req setPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.Users.SetPassword(r.Context(), viewerID(r.Context()), req.CurrentPassword, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) me(w http.ResponseWriter, r *http.Request) {
	me := viewerID(r.Context())
	p, err := s.svc.Users.Get(r.Context(), me, me)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(*p))
}

func (s *HTTPServer) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.svc.Users.Get(r.Context(), viewerID(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(*p))
}

func (s *HTTPServer) listUsers(w http.ResponseWriter, r *http.Request) {
	p, err := s.pagination(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	page, err := s.svc.Users.List(r.Context(), viewerID(r.Context()), p.limit, p.offset())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := newPage(r, p, page.Count, mapSlice(page.Items, toUser))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	p, err := s.pagination(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	page, err := s.svc.Subscriptions.List(r.Context(), viewerID(r.Context()), recipesLimit(r), p.limit, p.offset())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := newPage(r, p, page.Count, mapSlice(page.Items, toSubscription))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) subscribe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	a, err := s.svc.Subscriptions.Add(r.Context(), services.ToggleRequest{
		OwnerID:      viewerID(r.Context()),
		TargetID:     id,
		RecipesLimit: recipesLimit(r),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubscription(a))
}

func (s *HTTPServer) unsubscribe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.Subscriptions.Remove(r.Context(), viewerID(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// recipesLimit caps the embedded recipe list; 0 (missing or invalid) means all.
func recipesLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("recipes_limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
