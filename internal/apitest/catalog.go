package apitest

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/ericoliveiras/vitrine/internal/model"
)

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	var categoryID uint64
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		var err error
		if categoryID, err = strconv.ParseUint(raw, 10, 32); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "category_id inválido")
			return
		}
	}
	s.mu.Lock()
	out := []model.Product{}
	for _, p := range s.products {
		if categoryID == 0 || p.CategoryID == uint(categoryID) {
			out = append(out, *p)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	p, ok := s.products[id]
	var out model.Product
	if ok {
		out = *p
	}
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Produto não encontrado")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func decodeProduct(w http.ResponseWriter, r *http.Request) (model.ProductInput, bool) {
	var in model.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "corpo inválido")
		return in, false
	}
	return in, true
}

func applyProduct(p *model.Product, in model.ProductInput) {
	p.Title = in.Title
	p.Description = in.Description
	p.Price = in.Price
	p.StockQuantity = in.StockQuantity
	p.ImageURL = in.ImageURL
	p.ProductType = in.ProductType
	p.CategoryID = in.CategoryID
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	var p model.Product
	applyProduct(&p, in)
	p = s.AddProduct(p)
	s.mu.Lock()
	s.record(currentUser(r), model.ActionCreate, model.ResourceProduct, &p.ID, p.Title)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	in, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, found := s.products[id]
	if !found {
		writeDetail(w, http.StatusNotFound, "Produto não encontrado")
		return
	}
	applyProduct(p, in)
	now := s.Now()
	p.UpdatedAt = &now
	s.record(currentUser(r), model.ActionUpdate, model.ResourceProduct, &p.ID, p.Title)
	writeJSON(w, http.StatusOK, *p)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.products[id]; !found {
		writeDetail(w, http.StatusNotFound, "Produto não encontrado")
		return
	}
	delete(s.products, id)
	s.record(currentUser(r), model.ActionDelete, model.ResourceProduct, &id, "")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]model.Category{}, s.categories...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func decodeCategory(w http.ResponseWriter, r *http.Request) (model.CategoryInput, bool) {
	var in model.CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "corpo inválido")
		return in, false
	}
	return in, true
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeCategory(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == in.Name {
			writeDetail(w, http.StatusBadRequest, "Categoria já existe")
			return
		}
	}
	c := model.Category{ID: s.id(), Name: in.Name, Slug: in.Slug, Description: in.Description, ImageURL: in.ImageURL}
	s.categories = append(s.categories, c)
	s.record(currentUser(r), model.ActionCreate, model.ResourceCategory, &c.ID, c.Name)
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	in, ok := decodeCategory(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == id {
			s.categories[i] = model.Category{ID: id, Name: in.Name, Slug: in.Slug, Description: in.Description, ImageURL: in.ImageURL}
			s.record(currentUser(r), model.ActionUpdate, model.ResourceCategory, &id, in.Name)
			writeJSON(w, http.StatusOK, s.categories[i])
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Categoria não encontrada")
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			s.record(currentUser(r), model.ActionDelete, model.ResourceCategory, &id, "")
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Categoria não encontrada")
}
