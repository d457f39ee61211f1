package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/ferreirogomes/vaultrwa/models"
	"github.com/ferreirogomes/vaultrwa/vault"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// maxBodyBytes limita o corpo JSON aceito pelas rotas de escrita.
const maxBodyBytes = 1 << 20

// ErrorResponse é o corpo de toda resposta de erro.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor traduz a taxonomia de erros do cofre para status HTTP.
func statusFor(code string) int {
	switch code {
	case "invalid_input":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "unauthorized":
		return http.StatusForbidden
	case "inactive_record":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := vault.Code(err)
	msg := err.Error()
	if code == "internal" {
		// Falhas internas não expõem detalhes do armazenamento.
		msg = "erro interno"
	}
	writeJSON(w, statusFor(code), ErrorResponse{Error: msg, Code: code})
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", vault.ErrInvalidInput, fmt.Sprintf(format, args...))
}

// decode lê o corpo JSON, de no máximo maxBodyBytes, e aplica as regras de
// validação das tags.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return invalidInput("corpo da requisição excede %d bytes", tooLarge.Limit)
		}
		return invalidInput("corpo da requisição inválido: %v", err)
	}
	if err := validate.Struct(dst); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			fields := make([]string, 0, len(errs))
			for _, e := range errs {
				fields = append(fields, fmt.Sprintf("%s (%s)", e.Field(), e.Tag()))
			}
			return invalidInput("campos inválidos: %s", strings.Join(fields, ", "))
		}
		return invalidInput("%v", err)
	}
	return nil
}

// idParam lê um parâmetro de rota numérico.
func idParam(r *http.Request, name string) (uint64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, invalidInput("%s inválido: %q", name, raw)
	}
	return id, nil
}

// amountField converte um inteiro escalado recebido como texto.
func amountField(name, raw string) (*big.Int, error) {
	v, err := models.ParseAmount(raw)
	if err != nil {
		return nil, invalidInput("%s: %v", name, err)
	}
	return v, nil
}

// optionalAmountField aceita texto vazio como ausente.
func optionalAmountField(name, raw string) (*big.Int, error) {
	if raw == "" {
		return nil, nil
	}
	return amountField(name, raw)
}

// optionalAssetID converte um ID de ativo opcional; nil significa models.NoAsset.
func optionalAssetID(id *uint64) uint64 {
	if id == nil {
		return models.NoAsset
	}
	return *id
}
