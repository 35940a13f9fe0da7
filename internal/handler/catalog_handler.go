package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ericoliveiras/vitrine/internal/api"
	"github.com/ericoliveiras/vitrine/internal/model"
)

// CatalogHandler repassa o catálogo ao backend. Escritas usam o token da
// sessão; o gate da rota já conferiu o papel.
type CatalogHandler struct {
	*Env
}

func (h *CatalogHandler) session(c *gin.Context) *api.Session {
	return h.API.Session(authFrom(c).Token())
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var categoryID uint64
	if raw := c.Query("category_id"); raw != "" {
		var err error
		if categoryID, err = strconv.ParseUint(raw, 10, 32); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Categoria inválida."})
			return
		}
	}
	products, err := h.API.Products(c.Request.Context(), uint(categoryID))
	if err != nil {
		respondError(c, err, "Erro ao buscar produtos.")
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *CatalogHandler) ShowProduct(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	product, err := h.API.Product(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Produto não encontrado.")
		return
	}
	c.JSON(http.StatusOK, product)
}

func bindProduct(c *gin.Context) (model.ProductInput, bool) {
	var in model.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos."})
		return in, false
	}
	if err := model.Validate(in); err != nil {
		respondError(c, err, "Dados inválidos.")
		return in, false
	}
	return in, true
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	in, ok := bindProduct(c)
	if !ok {
		return
	}
	product, err := h.session(c).CreateProduct(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "Erro ao salvar produto.")
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	in, ok := bindProduct(c)
	if !ok {
		return
	}
	product, err := h.session(c).UpdateProduct(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err, "Erro ao atualizar produto.")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.session(c).DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err, "Erro ao excluir produto.")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.API.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err, "Erro ao buscar categorias.")
		return
	}
	c.JSON(http.StatusOK, categories)
}

// ShowCategory varre a lista inteira: o backend não tem busca por id.
func (h *CatalogHandler) ShowCategory(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	category, err := h.API.Category(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Categoria não encontrada.")
		return
	}
	c.JSON(http.StatusOK, category)
}

func bindCategory(c *gin.Context) (model.CategoryInput, bool) {
	var in model.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos."})
		return in, false
	}
	if err := model.Validate(in); err != nil {
		respondError(c, err, "Dados inválidos.")
		return in, false
	}
	return in, true
}

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	in, ok := bindCategory(c)
	if !ok {
		return
	}
	category, err := h.session(c).CreateCategory(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "Erro ao salvar categoria.")
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	in, ok := bindCategory(c)
	if !ok {
		return
	}
	category, err := h.session(c).UpdateCategory(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err, "Erro ao atualizar categoria.")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.session(c).DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err, "Erro ao excluir categoria.")
		return
	}
	c.Status(http.StatusNoContent)
}
