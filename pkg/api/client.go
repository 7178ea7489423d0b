package api

// DOCUMENT SERVICE CLIENT

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	generatePath          = "/generar-documento"
	defaultErrorReason    = "Error al generar el documento"
	maxErrorBodyBytes     = 64 << 10
	defaultRequestTimeout = 30 * time.Second
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// DocumentRequest is the payload the document service renders. Amounts are
// sent already formatted.
type DocumentRequest struct {
	Format string `json:"formato"`

	Name  string `json:"nombre"`
	Phone string `json:"telefono"`
	Email string `json:"correo"`

	Architectural string `json:"diseno_arquitectonico"`
	Structural    string `json:"diseno_estructural"`
	Accompaniment string `json:"acompanamiento_licencias"`
	Stage1        string `json:"subtotal_etapa_1"`
	Electrical    string `json:"diseno_electrico"`
	Hydraulic     string `json:"diseno_hidraulico"`
	Budgeting     string `json:"presupuesto_proyecto"`
	Stage2        string `json:"subtotal_etapa_2"`

	ConstructionCost string `json:"costo"`
	Subtotal         string `json:"subtotal_sin_iva"`
	Tax              string `json:"iva_amount"`
	Total            string `json:"total_general"`
	TotalInWords     string `json:"total_general_texto"`
	MaterialGrade    string `json:"linea_materiales"`
	Date             string `json:"fecha"`

	BaseAreasSummary       string  `json:"areas_basicas_summary"`
	PrincipalRoomSummary   string  `json:"habitacion_principal_summary"`
	AdditionalRoomsSummary string  `json:"habitaciones_adicionales_summary"`
	ExtraSpacesSummary     string  `json:"espacios_adicionales_summary"`
	MaterialGradeSummary   string  `json:"linea_materiales_summary"`
	AreaFormatted          string  `json:"m2_formatted"`
	AreaTotal              float64 `json:"area_total"`
}

type Document struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Error is a non-success answer of the document service. Its message is the
// reason reported by the service and is safe to show to the client.
type Error struct {
	StatusCode int
	Reason     string
}

func (e *Error) Error() string { return e.Reason }

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// GenerateDocument asks the service to render the quotation. It is never
// retried here.
func (c *Client) GenerateDocument(ctx context.Context, req DocumentRequest) (*Document, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+generatePath,
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Document service responded",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	return &Document{
		Filename:    filename(resp.Header.Get("Content-Disposition"), req.Name),
		ContentType: resp.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode, Reason: defaultErrorReason}

	var payload struct {
		Error string `json:"error"`
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err == nil && json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		apiErr.Reason = payload.Error
	}
	return apiErr
}

// DefaultFilename is used when the service does not name the document.
func DefaultFilename(name string) string {
	return "cotizacion_" + strings.Join(strings.Fields(name), "_") + ".pdf"
}

func filename(disposition, name string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
			return params["filename"]
		}
	}
	return DefaultFilename(name)
}

// IsServiceError reports whether err came back from the document service
// rather than from the transport.
func IsServiceError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr)
}
