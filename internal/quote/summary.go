package quote

import (
	"fmt"
	"strings"
	"time"
)

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// SpanishDate renders the place and date line of the quotation document,
// e.g. "Neiva, 05 de marzo de 2025".
func SpanishDate(t time.Time) string {
	return fmt.Sprintf("Neiva, %02d de %s de %d", t.Day(), spanishMonths[t.Month()-1], t.Year())
}

func gradeName(grade string) string {
	switch grade {
	case "basica":
		return "Básica"
	case "":
		return ""
	}
	return strings.ToUpper(grade[:1]) + grade[1:]
}

// Text renders the complete quotation shown in the chat once the email is
// collected.
func (q Quotation) Text() string {
	var sb strings.Builder
	area := FormatArea(q.Area.Total)

	sb.WriteString("🎉 COTIZACIÓN COMPLETA GENERADA\n\n")
	fmt.Fprintf(&sb, "👤 Cliente: %s\n", q.Client.Name)
	fmt.Fprintf(&sb, "📧 Correo: %s\n", q.Client.Email)
	fmt.Fprintf(&sb, "📱 Teléfono: %s\n", q.Client.Phone)
	fmt.Fprintf(&sb, "📅 Fecha: %s\n\n", SpanishDate(q.IssuedAt))

	fmt.Fprintf(&sb, "🏠 ÁREA TOTAL CONSTRUIDA: %s m²\n\n", area)

	sb.WriteString("💵 PROPUESTA ECONÓMICA DISEÑO\n")
	fmt.Fprintf(&sb, "• Subtotal (sin IVA): $%s\n", FormatCurrency(q.Subtotal))
	fmt.Fprintf(&sb, "• IVA (19%%): $%s\n", FormatCurrency(q.Tax))
	fmt.Fprintf(&sb, "• TOTAL: $%s\n\n", FormatCurrency(q.Total))

	sb.WriteString("💳 FORMA DE PAGO:\n")
	fmt.Fprintf(&sb, "• Primer pago (40%%): $%s\n", FormatCurrency(q.Installments.First))
	fmt.Fprintf(&sb, "• Segundo pago (50%%): $%s\n", FormatCurrency(q.Installments.Second))
	fmt.Fprintf(&sb, "• Tercer pago (10%%): $%s\n\n", FormatCurrency(q.Installments.Third))

	fmt.Fprintf(&sb, "⏱️ DURACIÓN DEL PROYECTO: %d días calendario (%d meses)\n\n", q.DurationDays, q.DurationDays/30)

	sb.WriteString("🎯 DESCUENTO ESPECIAL:\n")
	sb.WriteString("Si hace el PRIMER pago en los siguientes 30 días calendario, tendrá un descuento del 10%.\n")
	sb.WriteString("_____________________________________________________\n\n")

	sb.WriteString("📋 Inversión de Construcción:\n")
	fmt.Fprintf(&sb, "• Línea de materiales: %s\n", gradeName(q.Construction.Grade))
	fmt.Fprintf(&sb, "• Costo por m²: $%s\n", FormatCurrency(q.Construction.RatePerM2))
	fmt.Fprintf(&sb, "• Total construcción: %s m² × $%s = $%s\n\n",
		area, FormatCurrency(q.Construction.RatePerM2), FormatCurrency(q.Construction.Cost))

	sb.WriteString("NOTA: Es un valor estimativo y es independiente a los costos de los diseños.")
	return sb.String()
}

// SummaryText is the short recap offered when the client keeps only the summary.
func (q Quotation) SummaryText() string {
	var sb strings.Builder
	sb.WriteString("Aquí tienes un resumen de tu cotización:\n\n")
	fmt.Fprintf(&sb, "• Área total: %s m²\n", FormatArea(q.Area.Total))
	fmt.Fprintf(&sb, "• Etapa 1 (arquitectónico, estructural, licencias): $%s\n", FormatCurrency(q.Stage1.Subtotal))
	fmt.Fprintf(&sb, "• Etapa 2 (eléctrico, hidráulico, presupuesto): $%s\n", FormatCurrency(q.Stage2.Subtotal))
	fmt.Fprintf(&sb, "• Total diseño con IVA: $%s\n", FormatCurrency(q.Total))
	fmt.Fprintf(&sb, "• %s\n", q.TotalInWords)
	fmt.Fprintf(&sb, "• Construcción estimada (%s): $%s", gradeName(q.Construction.Grade), FormatCurrency(q.Construction.Cost))
	return sb.String()
}

// Summaries are the one-line technical descriptions sent with the document
// request.
type Summaries struct {
	BaseAreas       string
	PrincipalRoom   string
	AdditionalRooms string
	ExtraSpaces     string
	MaterialGrade   string
	Area            string
}

func (c *Catalog) Summaries(q Quotation) Summaries {
	r := q.Responses

	base := make([]string, 0, len(c.BaseAreas))
	for _, b := range c.BaseAreas {
		if _, ok := q.Area.BaseAreas[b.Key]; ok {
			base = append(base, b.Label)
		}
	}

	principal := "No seleccionada"
	if r.PrincipalRoom != "" {
		principal = ""
		if opt, ok := c.PrincipalRoom.Lookup(r.PrincipalRoom); ok {
			principal = fmt.Sprintf("Habitación principal (%s)", shortLabel(opt.Label))
		}
	}
	if r.MaterialGrade != "" {
		grade, rate := c.MaterialRate(r.MaterialGrade)
		principal += fmt.Sprintf(" - Línea o gama de \"%s: COP $%s\"", gradeName(grade), FormatCurrency(rate))
	}

	rooms := make([]string, 0, r.AdditionalRooms)
	for i := 1; i <= r.AdditionalRooms; i++ {
		room := r.Room(i)
		detail := fmt.Sprintf("Habitación %d", i)
		if opt, ok := c.RoomBed.Lookup(room.Bed); ok {
			detail += fmt.Sprintf(" (%s)", shortLabel(opt.Label))
		}
		if room.Bathroom == ValueYes {
			detail += " con baño"
		} else {
			detail += " sin baño"
		}
		rooms = append(rooms, detail)
	}
	roomsSummary := "Ninguna"
	if len(rooms) > 0 {
		roomsSummary = strings.Join(rooms, ", ")
	}

	var spaces []string
	for _, v := range r.ExtraSpaces {
		if v == ValueNone {
			continue
		}
		spaces = append(spaces, c.SpaceLabel(v))
	}
	spacesSummary := "Ninguno"
	if len(spaces) > 0 {
		spacesSummary = strings.Join(spaces, ", ")
	}

	grade, rate := c.MaterialRate(r.MaterialGrade)

	return Summaries{
		BaseAreas:       strings.Join(base, ", "),
		PrincipalRoom:   principal,
		AdditionalRooms: roomsSummary,
		ExtraSpaces:     spacesSummary,
		MaterialGrade:   fmt.Sprintf("%s ($%s/m²)", gradeName(grade), FormatCurrency(rate)),
		Area:            FormatArea(q.Area.Total) + " m²",
	}
}
