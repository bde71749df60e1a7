package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// PriorOrder is the most recent order the backend has on file for a phone
// number. Used to offer form autofill.
type PriorOrder struct {
	NombreCompleto    string `json:"nombre_completo"`
	CorreoElectronico string `json:"correo_electronico"`
	Direccion         string `json:"direccion"`
	MetodoPago        string `json:"metodo_pago"`
}

// FindOrderByPhone looks up a prior order. A miss is not an error: it
// returns nil, nil.
func (c *Client) FindOrderByPhone(ctx context.Context, phone string) (*PriorOrder, error) {
	q := url.Values{}
	q.Set("numero_telefono", phone)

	resp, err := c.do(ctx, http.MethodGet, "/pedido/buscar", q, nil, "")
	if err != nil {
		return nil, fmt.Errorf("find order by phone: %w", err)
	}
	defer drainAndClose(resp)

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("find order by phone: unexpected status %d", resp.StatusCode)
	}

	var pedido PriorOrder
	if err := json.NewDecoder(resp.Body).Decode(&pedido); err != nil {
		return nil, fmt.Errorf("decode prior order: %w", err)
	}
	return &pedido, nil
}
