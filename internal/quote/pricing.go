package quote

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Rates are the per-m² design prices in pesos plus the tax and payment terms.
type Rates struct {
	Architectural float64
	Structural    float64
	Accompaniment float64
	Electrical    float64
	Hydraulic     float64
	Budgeting     float64

	TaxRate              float64
	FirstShare           float64
	SecondShare          float64
	ThirdShare           float64
	EarlyPaymentDiscount float64
	DurationDays         int
}

func DefaultRates() Rates {
	return Rates{
		Architectural: 65141,
		Structural:    33987,
		Accompaniment: 14161,
		Electrical:    28322,
		Hydraulic:     25490,
		Budgeting:     12745,

		TaxRate:              0.19,
		FirstShare:           0.4,
		SecondShare:          0.5,
		ThirdShare:           0.1,
		EarlyPaymentDiscount: 0.1,
		DurationDays:         120,
	}
}

func (r Rates) Validate() error {
	for name, v := range map[string]float64{
		"architectural": r.Architectural,
		"structural":    r.Structural,
		"accompaniment": r.Accompaniment,
		"electrical":    r.Electrical,
		"hydraulic":     r.Hydraulic,
		"budgeting":     r.Budgeting,
	} {
		if v < 0 {
			return fmt.Errorf("%s rate must be non-negative, got %v", name, v)
		}
	}
	if r.TaxRate < 0 || r.TaxRate >= 1 {
		return fmt.Errorf("tax rate must be in [0,1), got %v", r.TaxRate)
	}
	if r.EarlyPaymentDiscount < 0 || r.EarlyPaymentDiscount >= 1 {
		return fmt.Errorf("early payment discount must be in [0,1), got %v", r.EarlyPaymentDiscount)
	}
	if math.Abs(r.FirstShare+r.SecondShare+r.ThirdShare-1) > 1e-9 {
		return errors.New("installment shares must sum to 1")
	}
	return nil
}

type ClientInfo struct {
	Name  string `json:"nombre"`
	Phone string `json:"telefono"`
	Email string `json:"correo"`
}

type Stage1 struct {
	Architectural float64 `json:"diseno_arquitectonico"`
	Structural    float64 `json:"diseno_estructural"`
	Accompaniment float64 `json:"acompanamiento_licencias"`
	Subtotal      float64 `json:"subtotal"`
}

type Stage2 struct {
	Electrical float64 `json:"diseno_electrico"`
	Hydraulic  float64 `json:"diseno_hidraulico"`
	Budgeting  float64 `json:"presupuesto_proyecto"`
	Subtotal   float64 `json:"subtotal"`
}

// Construction is an estimate reported next to the design proposal. It is
// never part of the taxed total.
type Construction struct {
	Grade     string  `json:"linea_materiales"`
	RatePerM2 float64 `json:"costo_por_m2"`
	Cost      float64 `json:"costo"`
}

type Installments struct {
	First           float64 `json:"primer_pago"`
	Second          float64 `json:"segundo_pago"`
	Third           float64 `json:"tercer_pago"`
	DiscountedFirst float64 `json:"primer_pago_descuento"`
	DiscountedTotal float64 `json:"total_con_descuento"`
}

type Quotation struct {
	ID           string        `json:"id"`
	IssuedAt     time.Time     `json:"fecha"`
	Client       ClientInfo    `json:"cliente"`
	Responses    ResponseSet   `json:"respuestas"`
	Area         AreaBreakdown `json:"area"`
	Stage1       Stage1        `json:"etapa_1"`
	Stage2       Stage2        `json:"etapa_2"`
	Subtotal     float64       `json:"subtotal_sin_iva"`
	Tax          float64       `json:"iva"`
	Total        float64       `json:"total_general"`
	TotalInWords string        `json:"total_general_texto"`
	Construction Construction  `json:"construccion"`
	Installments Installments  `json:"forma_pago"`
	DurationDays int           `json:"duracion_dias"`
}

type Engine struct {
	catalog *Catalog
	rates   Rates
	now     func() time.Time
}

type EngineOption func(*Engine)

// WithClock overrides the issue time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func NewEngine(catalog *Catalog, rates Rates, opts ...EngineOption) (*Engine, error) {
	if catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	if err := rates.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rates: %w", err)
	}
	e := &Engine{catalog: catalog, rates: rates, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Catalog() *Catalog { return e.catalog }

func (e *Engine) Rates() Rates { return e.rates }

// ComputeQuotation prices the project described by responses. An empty
// response set still yields a valid quotation built from the base areas.
func (e *Engine) ComputeQuotation(client ClientInfo, responses ResponseSet, additionalRooms int) Quotation {
	area := e.catalog.AreaBreakdown(responses, additionalRooms)
	total := area.Total
	r := e.rates

	s1 := Stage1{
		Architectural: total * r.Architectural,
		Structural:    total * r.Structural,
		Accompaniment: total * r.Accompaniment,
	}
	s1.Subtotal = s1.Architectural + s1.Structural + s1.Accompaniment

	s2 := Stage2{
		Electrical: total * r.Electrical,
		Hydraulic:  total * r.Hydraulic,
		Budgeting:  total * r.Budgeting,
	}
	s2.Subtotal = s2.Electrical + s2.Hydraulic + s2.Budgeting

	subtotal := s1.Subtotal + s2.Subtotal
	tax := subtotal * r.TaxRate
	designTotal := subtotal + tax

	grade, rate := e.catalog.MaterialRate(responses.MaterialGrade)

	first := designTotal * r.FirstShare
	return Quotation{
		ID:           uuid.NewString(),
		IssuedAt:     e.now(),
		Client:       client,
		Responses:    responses.Clone(),
		Area:         area,
		Stage1:       s1,
		Stage2:       s2,
		Subtotal:     subtotal,
		Tax:          tax,
		Total:        designTotal,
		TotalInWords: AmountToSpanishWords(int64(math.Round(designTotal))),
		Construction: Construction{
			Grade:     grade,
			RatePerM2: rate,
			Cost:      total * rate,
		},
		Installments: Installments{
			First:           first,
			Second:          designTotal * r.SecondShare,
			Third:           designTotal * r.ThirdShare,
			DiscountedFirst: first * (1 - r.EarlyPaymentDiscount),
			DiscountedTotal: designTotal * (1 - r.EarlyPaymentDiscount),
		},
		DurationDays: r.DurationDays,
	}
}
