package vault

import "errors"

// Falhas reportadas ao chamador. Todas são síncronas e nenhuma é retentada
// internamente; use errors.Is para classificá-las.
var (
	ErrInvalidInput   = errors.New("entrada inválida")
	ErrNotFound       = errors.New("registro não encontrado")
	ErrUnauthorized   = errors.New("chamador não autorizado")
	ErrInactiveRecord = errors.New("registro inativo")
)

// Code retorna o código de motivo estável para um erro do cofre,
// ou "internal" quando o erro não pertence à taxonomia.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInactiveRecord):
		return "inactive_record"
	default:
		return "internal"
	}
}
