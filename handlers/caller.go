package handlers

import (
	"context"
	"net/http"

	"github.com/ferreirogomes/vaultrwa/identity"
)

// CallerHeader carrega o endereço da carteira que assina a operação.
const CallerHeader = "X-Wallet-Address"

type callerKey struct{}

// RequireCaller exige uma identidade válida no cabeçalho CallerHeader e a
// disponibiliza no contexto da requisição.
func RequireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := identity.Parse(r.Header.Get(CallerHeader))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{
				Error: "cabeçalho " + CallerHeader + " ausente ou inválido: " + err.Error(),
				Code:  "unauthenticated",
			})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, caller)))
	})
}

// CallerFrom retorna a identidade posta no contexto por RequireCaller.
func CallerFrom(ctx context.Context) identity.Address {
	caller, _ := ctx.Value(callerKey{}).(identity.Address)
	return caller
}
