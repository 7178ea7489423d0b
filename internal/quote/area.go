package quote

import (
	"fmt"
	"strings"
)

type AreaBreakdown struct {
	BaseAreas       map[string]float64 `json:"base_areas"`
	PrincipalRoom   float64            `json:"principal_room"`
	AdditionalRooms map[string]float64 `json:"additional_rooms"`
	ExtraSpaces     map[string]float64 `json:"extra_spaces"`
	Total           float64            `json:"total"`
}

func (b AreaBreakdown) BaseTotal() float64 { return sum(b.BaseAreas) }

func (b AreaBreakdown) AdditionalRoomsTotal() float64 { return sum(b.AdditionalRooms) }

func (b AreaBreakdown) ExtraSpacesTotal() float64 { return sum(b.ExtraSpaces) }

func sum(m map[string]float64) float64 {
	var total float64
	for _, v := range m {
		total += v
	}
	return total
}

// AreaBreakdown reduces responses into the built area of the project. Only
// the first additionalRooms rooms are counted.
func (c *Catalog) AreaBreakdown(responses ResponseSet, additionalRooms int) AreaBreakdown {
	b := AreaBreakdown{
		BaseAreas:       make(map[string]float64, len(c.BaseAreas)),
		AdditionalRooms: make(map[string]float64),
		ExtraSpaces:     make(map[string]float64),
	}
	for _, base := range c.BaseAreas {
		b.BaseAreas[base.Key] = base.Area
	}

	b.PrincipalRoom = c.PrincipalRoom.area(responses.PrincipalRoom)

	for i := 1; i <= additionalRooms; i++ {
		room := responses.Room(i)
		area := c.RoomBed.area(room.Bed)
		if room.Bathroom == ValueYes {
			area += c.BathroomArea()
		}
		if area > 0 {
			b.AdditionalRooms[RoomKey(i, "")] = area
		}
	}

	for _, value := range responses.ExtraSpaces {
		if value == ValueNone {
			continue
		}
		opt, ok := c.ExtraSpaces.Lookup(value)
		if !ok {
			continue
		}
		// a map key can only be counted once
		b.ExtraSpaces[value] = opt.Area
	}

	b.Total = b.BaseTotal() + b.PrincipalRoom + b.AdditionalRoomsTotal() + b.ExtraSpacesTotal()
	return b
}

// Text renders the detailed breakdown shown to the client.
func (b AreaBreakdown) Text(c *Catalog) string {
	var sb strings.Builder
	sb.WriteString("📐 DESGLOSE DETALLADO DEL ÁREA CONSTRUIDA\n\n")

	sb.WriteString("🏠 ÁREAS BÁSICAS (incluidas en todos los proyectos):\n")
	for _, base := range c.BaseAreas {
		area, ok := b.BaseAreas[base.Key]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "• %s: %s m²\n", base.Label, FormatArea(area))
	}
	baseTotal := b.BaseTotal()
	fmt.Fprintf(&sb, "📍 Subtotal áreas básicas: %s m²\n\n", FormatArea(baseTotal))

	if b.PrincipalRoom > 0 {
		sb.WriteString("🛏️ HABITACIÓN PRINCIPAL:\n")
		fmt.Fprintf(&sb, "• Habitación principal: %s m²\n", FormatArea(b.PrincipalRoom))
		fmt.Fprintf(&sb, "📍 Subtotal habitación principal: %s m²\n\n", FormatArea(b.PrincipalRoom))
	}

	roomsTotal := b.AdditionalRoomsTotal()
	if len(b.AdditionalRooms) > 0 {
		sb.WriteString("🏠 HABITACIONES ADICIONALES:\n")
		for i := 1; i <= maxRoomIndex(b.AdditionalRooms); i++ {
			area, ok := b.AdditionalRooms[RoomKey(i, "")]
			if !ok {
				continue
			}
			fmt.Fprintf(&sb, "• Habitación %d (incluye baño si aplica): %s m²\n", i, FormatArea(area))
		}
		fmt.Fprintf(&sb, "📍 Subtotal habitaciones adicionales: %s m²\n\n", FormatArea(roomsTotal))
	}

	extraTotal := b.ExtraSpacesTotal()
	if len(b.ExtraSpaces) > 0 {
		sb.WriteString("✨ ESPACIOS ADICIONALES:\n")
		for _, opt := range c.ExtraSpaces.Options {
			area, ok := b.ExtraSpaces[opt.Value]
			if !ok {
				continue
			}
			fmt.Fprintf(&sb, "• %s: %s m²\n", shortLabel(opt.Label), FormatArea(area))
		}
		fmt.Fprintf(&sb, "📍 Subtotal espacios adicionales: %s m²\n\n", FormatArea(extraTotal))
	}

	var parts []string
	for _, v := range []float64{baseTotal, b.PrincipalRoom, roomsTotal, extraTotal} {
		if v > 0 {
			parts = append(parts, FormatArea(v))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, FormatArea(0))
	}
	fmt.Fprintf(&sb, "🏆 CÁLCULO TOTAL: %s = %s m²\n", strings.Join(parts, " + "), FormatArea(b.Total))

	return sb.String()
}

func maxRoomIndex(rooms map[string]float64) int {
	highest := 0
	for key := range rooms {
		var n int
		if _, err := fmt.Sscanf(key, "habitacion_%d", &n); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

func shortLabel(label string) string {
	short, _, _ := strings.Cut(label, " (")
	return short
}
