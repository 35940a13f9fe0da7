package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"

	"github.com/ericoliveiras/vitrine/internal/api"
	"github.com/ericoliveiras/vitrine/internal/model"
)

// AdminHandler cuida de usuários e da trilha de auditoria. Ações sobre a
// própria conta são recusadas aqui, sem chamar o backend.
type AdminHandler struct {
	*Env
}

func (h *AdminHandler) session(c *gin.Context) *api.Session {
	return h.API.Session(authFrom(c).Token())
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.session(c).Users(c.Request.Context())
	if err != nil {
		respondError(c, err, "Erro ao buscar usuários.")
		return
	}
	c.JSON(http.StatusOK, users)
}

// UpdateRole aceita o papel em ?role= ou no corpo {"role": ...}.
func (h *AdminHandler) UpdateRole(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	raw := c.Query("role")
	if raw == "" {
		var body struct {
			Role string `json:"role" form:"role"`
		}
		if err := c.ShouldBind(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos."})
			return
		}
		raw = body.Role
	}
	role, err := model.ParseRole(raw)
	if err != nil || !h.Hierarchy.Contains(role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Papel inválido."})
		return
	}
	if err := authFrom(c).GuardNotSelf(id); err != nil {
		respondError(c, err, "")
		return
	}
	user, err := h.session(c).UpdateUserRole(c.Request.Context(), id, role)
	if err != nil {
		respondError(c, err, "Erro ao atualizar papel.")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) Activate(c *gin.Context)   { h.setActive(c, true) }
func (h *AdminHandler) Deactivate(c *gin.Context) { h.setActive(c, false) }

func (h *AdminHandler) setActive(c *gin.Context, active bool) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := authFrom(c).GuardNotSelf(id); err != nil {
		respondError(c, err, "")
		return
	}
	user, err := h.session(c).SetUserActive(c.Request.Context(), id, active)
	if err != nil {
		respondError(c, err, "Erro ao atualizar usuário.")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) logs(c *gin.Context) ([]model.ActivityLog, bool) {
	var filter model.LogFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Filtro inválido."})
		return nil, false
	}
	logs, err := h.session(c).ActivityLogs(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Erro ao buscar logs.")
		return nil, false
	}
	return logs, true
}

func (h *AdminHandler) ListLogs(c *gin.Context) {
	logs, ok := h.logs(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, logs)
}

// ExportLogs devolve os mesmos logs de ListLogs como planilha.
func (h *AdminHandler) ExportLogs(c *gin.Context) {
	logs, ok := h.logs(c)
	if !ok {
		return
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Logs")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao gerar planilha."})
		return
	}
	headerRow := sheet.AddRow()
	for _, title := range []string{"ID", "Data", "Usuário", "Ação", "Recurso", "ID do recurso", "Detalhes"} {
		headerRow.AddCell().SetValue(title)
	}
	for _, l := range logs {
		row := sheet.AddRow()
		row.AddCell().SetValue(l.ID)
		row.AddCell().SetValue(l.Timestamp.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(l.Username)
		row.AddCell().SetValue(l.Action)
		row.AddCell().SetValue(l.Resource)
		if l.ResourceID != nil {
			row.AddCell().SetValue(*l.ResourceID)
		} else {
			row.AddCell().SetValue("")
		}
		row.AddCell().SetValue(l.Details)
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=logs-%s.xlsx", h.Clock.Now().Format("20060102-150405")))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := file.Write(c.Writer); err != nil {
		h.Log.WithError(err).Error("falha ao escrever planilha de logs")
	}
}
