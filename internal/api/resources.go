package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/huongkhe/schoolsite/internal/auth"
	"github.com/huongkhe/schoolsite/internal/content"
	"github.com/huongkhe/schoolsite/internal/realtime"
	"github.com/huongkhe/schoolsite/internal/validation"
)

// deleteResponse is the body of a successful DELETE.
type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

// resourceHandlers serves one content collection.
type resourceHandlers[R, I any] struct {
	s    *Server
	repo *content.Repository[R, I]
}

// mountResource registers list, get, create, update and delete for repo
// under the collection name. Reads are public; writes need content:write.
func mountResource[R, I any](s *Server, r chi.Router, repo *content.Repository[R, I]) {
	h := resourceHandlers[R, I]{s: s, repo: repo}
	write := s.requirePermission(auth.PermContentWrite)

	r.Route("/"+repo.Kind().Collection, func(r chi.Router) {
		r.Get("/", s.handle(h.list))
		r.Get("/{id}", s.handle(h.get))
		r.With(write).Post("/", s.handle(h.create))
		r.With(write).Put("/{id}", s.handle(h.update))
		r.With(write).Delete("/{id}", s.handle(h.remove))
	})
}

func (h resourceHandlers[R, I]) notFound(err error) error {
	if errors.Is(err, content.ErrNotFound) {
		return notFound(h.repo.Kind().Label + " not found")
	}
	return err
}

func (h resourceHandlers[R, I]) list(w http.ResponseWriter, r *http.Request) error {
	params, err := h.s.validator.ParseListQuery(r.URL.Query())
	if err != nil {
		return err
	}

	items, err := h.repo.List(r.Context(), content.ListOptions{
		Ascending: params.Ascending,
		Limit:     params.Limit,
		Offset:    params.Offset(),
		Search:    params.Search,
	})
	if err != nil {
		return err
	}
	if items == nil {
		items = []R{}
	}

	writeJSON(w, http.StatusOK, items)
	return nil
}

func (h resourceHandlers[R, I]) get(w http.ResponseWriter, r *http.Request) error {
	rec, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return h.notFound(err)
	}

	writeJSON(w, http.StatusOK, rec)
	return nil
}

func (h resourceHandlers[R, I]) create(w http.ResponseWriter, r *http.Request) error {
	var in I
	if err := validation.DecodeJSON(r.Body, &in); err != nil {
		return err
	}
	if err := h.s.validator.Struct(in); err != nil {
		return err
	}

	rec, err := h.repo.Create(r.Context(), in)
	if err != nil {
		return err
	}

	kind := h.repo.Kind()
	h.s.changed(r, kind.Event, kind.Collection, realtime.ActionCreated, kind.Meta(*rec).ID, rec)
	writeJSON(w, http.StatusCreated, rec)
	return nil
}

func (h resourceHandlers[R, I]) update(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	rec, err := h.repo.Update(r.Context(), id, func(in *I) error {
		if err := validation.DecodeJSON(r.Body, in); err != nil {
			return err
		}
		return h.s.validator.Struct(in)
	})
	if err != nil {
		return h.notFound(err)
	}

	kind := h.repo.Kind()
	h.s.changed(r, kind.Event, kind.Collection, realtime.ActionUpdated, id, rec)
	writeJSON(w, http.StatusOK, rec)
	return nil
}

func (h resourceHandlers[R, I]) remove(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		return h.notFound(err)
	}

	kind := h.repo.Kind()
	h.s.changed(r, kind.Event, kind.Collection, realtime.ActionDeleted, id, id)
	writeJSON(w, http.StatusOK, deleteResponse{
		Success: true,
		Message: kind.Label + " deleted successfully",
		ID:      id,
	})
	return nil
}
