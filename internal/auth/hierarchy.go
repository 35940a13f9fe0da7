package auth

import (
	"fmt"

	"github.com/ericoliveiras/vitrine/internal/model"
)

// Hierarchy é a ordem de papéis ativa, do menor para o maior. É sempre
// uma subsequência de model.CanonicalRoles contendo CLIENTE e ADMIN.
type Hierarchy struct {
	roles []model.Role
	rank  map[model.Role]int
}

// NewHierarchy valida names contra a ordem canônica.
func NewHierarchy(names []string) (*Hierarchy, error) {
	h := &Hierarchy{rank: make(map[model.Role]int)}
	last := -1
	for _, name := range names {
		role, err := model.ParseRole(name)
		if err != nil {
			return nil, err
		}
		if _, dup := h.rank[role]; dup {
			return nil, fmt.Errorf("auth: papel %s repetido na hierarquia", role)
		}
		pos := canonicalIndex(role)
		if pos < last {
			return nil, fmt.Errorf("auth: papel %s fora da ordem %v", role, model.CanonicalRoles)
		}
		last = pos
		h.rank[role] = len(h.roles)
		h.roles = append(h.roles, role)
	}
	for _, required := range []model.Role{model.RoleCliente, model.RoleAdmin} {
		if _, ok := h.rank[required]; !ok {
			return nil, fmt.Errorf("auth: hierarquia precisa conter %s", required)
		}
	}
	return h, nil
}

// DefaultHierarchy usa os quatro papéis.
func DefaultHierarchy() *Hierarchy {
	names := make([]string, len(model.CanonicalRoles))
	for i, r := range model.CanonicalRoles {
		names[i] = string(r)
	}
	h, err := NewHierarchy(names)
	if err != nil {
		panic(err)
	}
	return h
}

func canonicalIndex(r model.Role) int {
	for i, known := range model.CanonicalRoles {
		if known == r {
			return i
		}
	}
	return -1
}

// Roles devolve uma cópia da ordem ativa.
func (h *Hierarchy) Roles() []model.Role {
	return append([]model.Role(nil), h.roles...)
}

// Contains informa se r faz parte da hierarquia ativa.
func (h *Hierarchy) Contains(r model.Role) bool {
	_, ok := h.rank[r]
	return ok
}

// Rank devolve a posição efetiva de r. Um papel canônico ausente da
// hierarquia assume o nível presente imediatamente abaixo dele.
func (h *Hierarchy) Rank(r model.Role) (int, bool) {
	if rank, ok := h.rank[r]; ok {
		return rank, true
	}
	pos := canonicalIndex(r)
	if pos < 0 {
		return 0, false
	}
	for i := pos - 1; i >= 0; i-- {
		if rank, ok := h.rank[model.CanonicalRoles[i]]; ok {
			return rank, true
		}
	}
	return 0, false
}

// threshold é o menor nível presente que satisfaz min: um nível ausente
// cai no próximo nível acima.
func (h *Hierarchy) threshold(min model.Role) int {
	pos := canonicalIndex(min)
	for i := pos; i >= 0 && i < len(model.CanonicalRoles); i++ {
		if rank, ok := h.rank[model.CanonicalRoles[i]]; ok {
			return rank
		}
	}
	return len(h.roles)
}

// Satisfies informa se role alcança min.
func (h *Hierarchy) Satisfies(role, min model.Role) bool {
	rank, ok := h.Rank(role)
	return ok && rank >= h.threshold(min)
}

// AtLeast lista os papéis canônicos que alcançam min, incluindo os que
// não estão na hierarquia mas caem num nível suficiente. A lista serve de
// papéis permitidos e concorda com Satisfies.
func (h *Hierarchy) AtLeast(min model.Role) []model.Role {
	var out []model.Role
	for _, r := range model.CanonicalRoles {
		if h.Satisfies(r, min) {
			out = append(out, r)
		}
	}
	return out
}

// Capabilities são derivadas do papel a cada leitura; nunca são
// persistidas.
type Capabilities struct {
	IsAuthenticated bool `json:"is_authenticated"`
	IsAdmin         bool `json:"is_admin"`
	IsEditor        bool `json:"is_editor"`
	IsVendedor      bool `json:"is_vendedor"`
	IsCliente       bool `json:"is_cliente"`
}

// Capabilities calcula as flags de user. nil significa não autenticado.
func (h *Hierarchy) Capabilities(user *model.User) Capabilities {
	if user == nil {
		return Capabilities{}
	}
	return Capabilities{
		IsAuthenticated: true,
		IsAdmin:         h.Satisfies(user.Role, model.RoleAdmin),
		IsEditor:        h.Satisfies(user.Role, model.RoleEditor),
		IsVendedor:      h.Satisfies(user.Role, model.RoleVendedor),
		IsCliente:       h.Satisfies(user.Role, model.RoleCliente),
	}
}

// Subset informa se todas as flags de c também estão em other.
func (c Capabilities) Subset(other Capabilities) bool {
	return (!c.IsAuthenticated || other.IsAuthenticated) &&
		(!c.IsAdmin || other.IsAdmin) &&
		(!c.IsEditor || other.IsEditor) &&
		(!c.IsVendedor || other.IsVendedor) &&
		(!c.IsCliente || other.IsCliente)
}
