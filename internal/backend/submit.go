package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/jpgomezm1/zeendr-checkout-service/internal/cart"
)

// ReceiptFile is the proof-of-payment upload for Transfer orders.
type ReceiptFile struct {
	Filename string
	Content  []byte
}

// OrderSubmission is the full multipart payload for POST /pedido. Field
// names mirror what the backend expects.
type OrderSubmission struct {
	NombreCompleto    string
	NumeroTelefono    string
	CorreoElectronico string
	Direccion         string
	DetallesDireccion string
	Productos         []cart.Item
	MetodoPago        string
	CostoDomicilio    float64
	FechaEntrega      string
	RangoHoras        string
	Comprobante       *ReceiptFile
	CodigoDescuento   string
}

// SubmitOrder posts the order as multipart form data. The backend answers
// 201 on success; any other status is a submission failure. The returned
// order id may be empty when the backend does not echo one.
func (c *Client) SubmitOrder(ctx context.Context, establecimiento string, sub OrderSubmission) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	productos, err := json.Marshal(sub.Productos)
	if err != nil {
		return "", fmt.Errorf("marshal productos: %w", err)
	}

	fields := map[string]string{
		"nombre_completo":    sub.NombreCompleto,
		"numero_telefono":    sub.NumeroTelefono,
		"correo_electronico": sub.CorreoElectronico,
		"direccion":          sub.Direccion,
		"detalles_direccion": sub.DetallesDireccion,
		"productos":          string(productos),
		"metodo_pago":        sub.MetodoPago,
		"costo_domicilio":    strconv.FormatFloat(sub.CostoDomicilio, 'f', -1, 64),
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return "", fmt.Errorf("write field %s: %w", name, err)
		}
	}

	if sub.FechaEntrega != "" {
		if err := w.WriteField("fecha_entrega", sub.FechaEntrega); err != nil {
			return "", fmt.Errorf("write field fecha_entrega: %w", err)
		}
		if err := w.WriteField("rango_horas", sub.RangoHoras); err != nil {
			return "", fmt.Errorf("write field rango_horas: %w", err)
		}
	}
	if sub.CodigoDescuento != "" {
		if err := w.WriteField("codigo_descuento", sub.CodigoDescuento); err != nil {
			return "", fmt.Errorf("write field codigo_descuento: %w", err)
		}
	}
	if sub.Comprobante != nil {
		part, err := w.CreateFormFile("comprobante", sub.Comprobante.Filename)
		if err != nil {
			return "", fmt.Errorf("create comprobante part: %w", err)
		}
		if _, err := part.Write(sub.Comprobante.Content); err != nil {
			return "", fmt.Errorf("write comprobante: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/pedido", tenantQuery(establecimiento), &buf, w.FormDataContentType())
	if err != nil {
		return "", fmt.Errorf("submit order: %w", err)
	}
	defer drainAndClose(resp)

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("submit order: unexpected status %d", resp.StatusCode)
	}

	// Older backend versions return an empty 201 body.
	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", nil
	}
	return body.ID, nil
}
