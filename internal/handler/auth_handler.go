package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ericoliveiras/vitrine/internal/auth"
	"github.com/ericoliveiras/vitrine/internal/model"
)

type AuthHandler struct {
	*Env
}

type meResponse struct {
	User         *model.User       `json:"user"`
	Capabilities auth.Capabilities `json:"capabilities"`
}

func profile(mgr *auth.Manager) meResponse {
	return meResponse{User: mgr.User(), Capabilities: mgr.Capabilities()}
}

// Login aceita form ou JSON com username e password.
func (h *AuthHandler) Login(c *gin.Context) {
	var creds model.LoginRequest
	if err := c.ShouldBind(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos."})
		return
	}
	mgr := authFrom(c)
	if _, err := mgr.Login(c.Request.Context(), creds); err != nil {
		respondError(c, err, "Erro ao fazer login.")
		return
	}
	c.JSON(http.StatusOK, profile(mgr))
}

// Register confere as senhas localmente, cadastra e já entra.
func (h *AuthHandler) Register(c *gin.Context) {
	var data model.RegisterRequest
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos."})
		return
	}
	mgr := authFrom(c)
	if _, err := mgr.Register(c.Request.Context(), data); err != nil {
		respondError(c, err, "Erro ao criar usuário. Tente novamente.")
		return
	}
	c.JSON(http.StatusCreated, profile(mgr))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	authFrom(c).Logout()
	c.JSON(http.StatusOK, gin.H{"message": "Logout realizado com sucesso."})
}

func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, profile(authFrom(c)))
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var data model.PasswordChangeRequest
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos."})
		return
	}
	msg, err := authFrom(c).ChangePassword(c.Request.Context(), data)
	if err != nil {
		respondError(c, err, "Erro ao alterar a senha.")
		return
	}
	c.JSON(http.StatusOK, msg)
}
