package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"aguabill/internal/dto"
)

// padronRespuesta is the registry's JSON body for DNI and RUC lookups.
type padronRespuesta struct {
	Nombre          string `json:"nombre"`
	Nombres         string `json:"nombres"`
	ApellidoPaterno string `json:"apellidoPaterno"`
	ApellidoMaterno string `json:"apellidoMaterno"`
	RazonSocial     string `json:"razonSocial"`
	Direccion       string `json:"direccion"`
}

// PadronClient queries the national DNI/RUC registry over HTTP. Calls go
// through a circuit breaker so a downed registry fails fast instead of
// stalling customer registration.
type PadronClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cb         *CircuitBreaker
}

func NewPadronClient(baseURL, token string, cb *CircuitBreaker) *PadronClient {
	if cb == nil {
		cb = NewCircuitBreaker(DefaultBreakerConfig())
	}
	return &PadronClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cb:         cb,
	}
}

// Breaker exposes the circuit breaker state for the health endpoint.
func (c *PadronClient) Breaker() *CircuitBreaker { return c.cb }

// Consultar resolves a document. tipoDocumento is 1 (DNI) or 6 (RUC).
// Returns nil, nil when the registry does not know the number.
func (c *PadronClient) Consultar(ctx context.Context, tipoDocumento int, numero string) (*dto.PadronResponse, error) {
	var recurso string
	switch tipoDocumento {
	case 1:
		recurso = "dni"
	case 6:
		recurso = "ruc"
	default:
		return nil, fmt.Errorf("padron: tipo de documento %d no soportado", tipoDocumento)
	}

	var result *dto.PadronResponse
	err := c.cb.Execute(ctx, func(ctx context.Context) error {
		var err error
		result, err = c.consultar(ctx, recurso, tipoDocumento, numero)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *PadronClient) consultar(ctx context.Context, recurso string, tipo int, numero string) (*dto.PadronResponse, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, recurso, url.PathEscape(numero))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("padron: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("padron: registry unreachable: %w", err)
	}
	defer resp.Body.Close()

	// A 404 is an answer, not a failure: it must not trip the breaker.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("padron: registry returned %d", resp.StatusCode)
	}

	var body padronRespuesta
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("padron: decode response: %w", err)
	}

	out := &dto.PadronResponse{TipoDocumento: tipo, NumeroDocumento: numero}
	switch {
	case body.RazonSocial != "":
		out.NombreCompleto = body.RazonSocial
	case body.Nombres != "":
		out.NombreCompleto = fmt.Sprintf("%s %s %s", body.ApellidoPaterno, body.ApellidoMaterno, body.Nombres)
	default:
		out.NombreCompleto = body.Nombre
	}
	if body.Direccion != "" {
		d := body.Direccion
		out.Direccion = &d
	}
	return out, nil
}
