package apitest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ericoliveiras/vitrine/internal/model"
)

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

// rank usa a ordem canônica; o dublê não conhece hierarquias
// configuradas.
func rank(r model.Role) int {
	for i, known := range model.CanonicalRoles {
		if known == r {
			return i
		}
	}
	return -1
}

func currentUser(r *http.Request) *userRecord {
	u, _ := r.Context().Value(ctxKey{}).(*userRecord)
	return u
}

func (s *Server) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		var claims tokenClaims
		_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
			return s.Secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.Now))
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Não foi possível validar as credenciais")
			return
		}
		s.mu.Lock()
		var user *userRecord
		for _, u := range s.users {
			if u.Username == claims.Subject {
				user = u
			}
		}
		s.mu.Unlock()
		if user == nil {
			writeDetail(w, http.StatusUnauthorized, "Não foi possível validar as credenciais")
			return
		}
		if !user.IsActive {
			writeDetail(w, http.StatusBadRequest, "Usuário inativo")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, user)))
	})
}

func (s *Server) requireRole(min model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rank(currentUser(r).Role) < rank(min) {
				writeDetail(w, http.StatusForbidden, "Permissões insuficientes.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "form inválido")
		return
	}
	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")

	s.mu.Lock()
	var user *userRecord
	for _, u := range s.users {
		if u.Username == username {
			user = u
		}
	}
	s.mu.Unlock()

	if user == nil || bcrypt.CompareHashAndPassword(user.hash, []byte(password)) != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	if !user.IsActive {
		writeDetail(w, http.StatusBadRequest, "Inactive user")
		return
	}
	s.mu.Lock()
	s.record(user, model.ActionLogin, model.ResourceUser, &user.ID, "")
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, model.TokenResponse{AccessToken: s.Token(username), TokenType: "bearer"})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string     `json:"username"`
		Email    string     `json:"email"`
		Password string     `json:"password"`
		Role     model.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "corpo inválido")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "campos obrigatórios ausentes")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleCliente
	}
	s.mu.Lock()
	for _, u := range s.users {
		if u.Username == req.Username {
			s.mu.Unlock()
			writeDetail(w, http.StatusBadRequest, "Username already registered")
			return
		}
		if u.Email == req.Email {
			s.mu.Unlock()
			writeDetail(w, http.StatusBadRequest, "Email already registered")
			return
		}
	}
	s.mu.Unlock()

	user := s.AddUser(req.Username, req.Email, req.Password, req.Role)
	s.mu.Lock()
	s.record(s.users[user.ID], model.ActionRegister, model.ResourceUser, &user.ID, "")
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r).User)
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req model.PasswordChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "corpo inválido")
		return
	}
	user := currentUser(r)
	if bcrypt.CompareHashAndPassword(user.hash, []byte(req.CurrentPassword)) != nil {
		writeDetail(w, http.StatusBadRequest, "Senha atual incorreta")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.MinCost)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.mu.Lock()
	user.hash = hash
	s.record(user, model.ActionUpdate, model.ResourceUser, &user.ID, "senha alterada")
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Senha alterada com sucesso"})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	users := s.sortedUsers()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) targetUser(w http.ResponseWriter, r *http.Request) (*userRecord, bool) {
	id, err := pathID(r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return nil, false
	}
	s.mu.Lock()
	u, ok := s.users[id]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return nil, false
	}
	return u, true
}

func (s *Server) updateRole(w http.ResponseWriter, r *http.Request) {
	target, ok := s.targetUser(w, r)
	if !ok {
		return
	}
	role, err := model.ParseRole(r.URL.Query().Get("role"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	target.Role = role
	s.record(currentUser(r), model.ActionUpdateRole, model.ResourceUser, &target.ID, fmt.Sprintf("role=%s", role))
	out := target.User
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) setActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target, ok := s.targetUser(w, r)
		if !ok {
			return
		}
		actor := currentUser(r)
		if !active && target.ID == actor.ID {
			writeDetail(w, http.StatusBadRequest, "You cannot deactivate your own account")
			return
		}
		action := model.ActionDeactivate
		if active {
			action = model.ActionActivate
		}
		s.mu.Lock()
		target.IsActive = active
		s.record(actor, action, model.ResourceUser, &target.ID, "")
		out := target.User
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) listLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.LogFilter{Action: q.Get("action"), Resource: q.Get("resource"), Username: q.Get("username")}
	s.mu.Lock()
	out := []model.ActivityLog{}
	for i := len(s.logs) - 1; i >= 0; i-- {
		if filter.Match(s.logs[i]) {
			out = append(out, s.logs[i])
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

var errBadID = errors.New("id inválido")

func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		return 0, errBadID
	}
	return uint(id), nil
}
