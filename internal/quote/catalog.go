package quote

import "fmt"

const (
	ValueYes    = "si"
	ValueNone   = "ninguno"
	ValueFinish = "terminar"

	DefaultMaterialGrade = "media"
)

// Option is one selectable answer. Room counts are carried as their decimal
// string so every option value can be used as a lookup key.
type Option struct {
	Letter string  `json:"letra"`
	Label  string  `json:"text"`
	Value  string  `json:"value"`
	Area   float64 `json:"area,omitempty"`
	Cost   float64 `json:"cost,omitempty"`
}

type Question struct {
	ID string
	// Prompt is a format template; room questions take the room number.
	Prompt  string
	Options []Option
}

func (q Question) Text(args ...any) string {
	if len(args) == 0 {
		return q.Prompt
	}
	return fmt.Sprintf(q.Prompt, args...)
}

func (q Question) Lookup(value string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.Value == value {
			return opt, true
		}
	}
	return Option{}, false
}

func (q Question) area(value string) float64 {
	opt, ok := q.Lookup(value)
	if !ok {
		return 0
	}
	return opt.Area
}

type BaseArea struct {
	Key   string
	Label string
	Area  float64
}

// Catalog holds every static question of the quotation flow.
type Catalog struct {
	Lot             Question
	PrincipalRoom   Question
	AdditionalRooms Question
	RoomBed         Question
	RoomBathroom    Question
	ExtraSpaces     Question
	MaterialGrade   Question
	BaseAreas       []BaseArea
}

func DefaultCatalog() *Catalog {
	return &Catalog{
		Lot: Question{
			ID:     "lote",
			Prompt: "¿Tiene lote?",
			Options: []Option{
				{Letter: "A", Label: "Sí", Value: ValueYes},
				{Letter: "B", Label: "No, estamos en proceso de compra", Value: "no_proceso"},
			},
		},
		PrincipalRoom: Question{
			ID:     "habitacion_principal",
			Prompt: "Habitación principal - ¿Qué tipo de cama le gustaría?",
			Options: []Option{
				{Letter: "A", Label: "Sencilla (99x191 cm) - Habitación 4.5x3 = 13.5 m²", Value: "sencilla", Area: 13.5},
				{Letter: "B", Label: "Doble (137x191 cm) - Habitación 4.5x3.5 = 15.75 m²", Value: "doble", Area: 15.75},
				{Letter: "C", Label: "Queen (152x203 cm) - Habitación 4.5x4 = 18 m²", Value: "queen", Area: 18},
				{Letter: "D", Label: "King (193x203 cm) - Habitación 4.5x5.5 = 24.75 m²", Value: "king", Area: 24.75},
				{Letter: "E", Label: "California King (183x213 cm) - Habitación 4.5x6 = 27 m²", Value: "california_king", Area: 27},
				{Letter: "F", Label: "Habitación 4.5x6.5 = 29.25 m²", Value: "f", Area: 29.25},
				{Letter: "G", Label: "Habitación 4.5x7 = 31.5 m²", Value: "g", Area: 31.5},
			},
		},
		AdditionalRooms: Question{
			ID:     "habitaciones_adicionales",
			Prompt: "Además de la habitación principal, ¿cuántas habitaciones adicionales desea?",
			Options: []Option{
				{Letter: "A", Label: "0", Value: "0"},
				{Letter: "B", Label: "1", Value: "1"},
				{Letter: "C", Label: "2", Value: "2"},
				{Letter: "D", Label: "3", Value: "3"},
				{Letter: "E", Label: "4", Value: "4"},
			},
		},
		RoomBed: Question{
			ID:     "tipo_cama",
			Prompt: "Habitación %d - ¿Qué tipo de cama le gustaría?",
			Options: []Option{
				{Letter: "A", Label: "Sencilla (99x191 cm) - Habitación 4.5x3 = 13.5 m²", Value: "sencilla", Area: 13.5},
				{Letter: "B", Label: "Doble (137x191 cm) - Habitación 4.5x3.5 = 15.75 m²", Value: "doble", Area: 15.75},
				{Letter: "C", Label: "Queen (152x203 cm) - Habitación 4.5x4 = 18 m²", Value: "queen", Area: 18},
			},
		},
		RoomBathroom: Question{
			ID:     "bano_propio",
			Prompt: "Habitación %d - ¿Tiene baño propio?",
			Options: []Option{
				{Letter: "A", Label: "Sí (+ 3.5 m²)", Value: ValueYes, Area: 3.5},
				{Letter: "B", Label: "No", Value: "no"},
			},
		},
		ExtraSpaces: Question{
			ID:     "espacios_adicionales",
			Prompt: "Ahora vamos a personalizar tu vivienda con espacios adicionales. Estos espacios complementarán las áreas básicas (cocina, sala, comedor, zona de ropas y baño social).",
			Options: []Option{
				{Letter: "A", Label: "Estudio (14 m²)", Value: "estudio", Area: 14},
				{Letter: "B", Label: "Sala de TV (14 m²)", Value: "sala_tv", Area: 14},
				{Letter: "C", Label: "Habitación de servicio + baño (18 m²)", Value: "hab_servicio", Area: 18},
				{Letter: "D", Label: "Depósito pequeño (9 m²)", Value: "deposito_pequeno", Area: 9},
				{Letter: "E", Label: "Depósito mediano (9 m²)", Value: "deposito_mediano", Area: 9},
				{Letter: "F", Label: "Depósito grande (16 m²)", Value: "deposito_grande", Area: 16},
				{Letter: "G", Label: "Sauna (16 m²)", Value: "sauna", Area: 16},
				{Letter: "H", Label: "Turco (24 m²)", Value: "turco", Area: 24},
				{Letter: "I", Label: "Piscina pequeña (16 m²)", Value: "piscina_pequena", Area: 16},
				{Letter: "J", Label: "Piscina mediana (24 m²)", Value: "piscina_mediana", Area: 24},
				{Letter: "K", Label: "Piscina grande (32 m²)", Value: "piscina_grande", Area: 32},
				{Letter: "L", Label: "Baño social exterior (4 m²)", Value: "bano_social_ext", Area: 4},
				{Letter: "M", Label: "Ninguno - Solo espacios básicos", Value: ValueNone},
			},
		},
		MaterialGrade: Question{
			ID:     "linea_materiales",
			Prompt: "Ahora necesito saber sobre la calidad de los materiales para tu proyecto. Esto influirá directamente en los costos de construcción.",
			Options: []Option{
				{Letter: "A", Label: "Básica: COP $1'500.000", Value: "basica", Cost: 1500000},
				{Letter: "B", Label: "Media: COP $2'000.000", Value: "media", Cost: 2000000},
				{Letter: "C", Label: "Alta: COP $2'500.000", Value: "alta", Cost: 2500000},
			},
		},
		BaseAreas: []BaseArea{
			{Key: "cocina", Label: "Cocina", Area: 11.5},
			{Key: "sala", Label: "Sala", Area: 13.5},
			{Key: "comedor", Label: "Comedor", Area: 18},
			{Key: "ropas", Label: "Zona de ropas", Area: 8},
			{Key: "bano_social", Label: "Baño social", Area: 2.5},
		},
	}
}

// MainQuestions returns the three questions asked strictly in order before
// the room loop.
func (c *Catalog) MainQuestions() []Question {
	return []Question{c.Lot, c.PrincipalRoom, c.AdditionalRooms}
}

func (c *Catalog) questions() []Question {
	return []Question{
		c.Lot, c.PrincipalRoom, c.AdditionalRooms,
		c.RoomBed, c.RoomBathroom, c.ExtraSpaces, c.MaterialGrade,
	}
}

// BathroomArea is the area added by a room answering the affirmative value.
func (c *Catalog) BathroomArea() float64 {
	return c.RoomBathroom.area(ValueYes)
}

// MaterialRate returns the construction cost per m² of grade, falling back
// to the default grade for unknown or empty values.
func (c *Catalog) MaterialRate(grade string) (string, float64) {
	if opt, ok := c.MaterialGrade.Lookup(grade); ok {
		return opt.Value, opt.Cost
	}
	opt, _ := c.MaterialGrade.Lookup(DefaultMaterialGrade)
	return opt.Value, opt.Cost
}

// SpaceLabel returns the display name of an extra space without its area hint.
func (c *Catalog) SpaceLabel(value string) string {
	opt, ok := c.ExtraSpaces.Lookup(value)
	if !ok {
		return value
	}
	return shortLabel(opt.Label)
}

// Validate checks that option values are unique within every question.
func (c *Catalog) Validate() error {
	for _, q := range c.questions() {
		seen := make(map[string]bool, len(q.Options))
		for _, opt := range q.Options {
			if seen[opt.Value] {
				return fmt.Errorf("question %s: duplicate option value %q", q.ID, opt.Value)
			}
			seen[opt.Value] = true
		}
	}
	seen := make(map[string]bool, len(c.BaseAreas))
	for _, b := range c.BaseAreas {
		if seen[b.Key] {
			return fmt.Errorf("duplicate base area %q", b.Key)
		}
		seen[b.Key] = true
	}
	return nil
}
