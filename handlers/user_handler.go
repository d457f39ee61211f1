package handlers

import (
	"net/http"

	"github.com/ferreirogomes/vaultrwa/identity"
	"github.com/ferreirogomes/vaultrwa/vault"

	"github.com/go-chi/chi/v5"
)

// UserHandler expõe os índices por proprietário.
type UserHandler struct {
	Vault *vault.Store
}

// NewUserHandler cria uma nova instância do handler de usuários.
func NewUserHandler(v *vault.Store) *UserHandler {
	return &UserHandler{Vault: v}
}

func addressParam(r *http.Request) (identity.Address, error) {
	raw := chi.URLParam(r, "address")
	addr, err := identity.Parse(raw)
	if err != nil {
		return "", invalidInput("endereço inválido %q: %v", raw, err)
	}
	return addr, nil
}

// GetUserAssets lista os IDs dos ativos do usuário.
// GET /users/{address}/assets
func (h *UserHandler) GetUserAssets(w http.ResponseWriter, r *http.Request) {
	addr, err := addressParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IDListResponse{Address: addr.String(), IDs: h.Vault.GetUserAssets(addr)})
}

// GetUserPortfolios lista os IDs dos portfólios do usuário.
// GET /users/{address}/portfolios
func (h *UserHandler) GetUserPortfolios(w http.ResponseWriter, r *http.Request) {
	addr, err := addressParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IDListResponse{Address: addr.String(), IDs: h.Vault.GetUserPortfolios(addr)})
}
