package quote

import "fmt"

const (
	RoomFieldBed      = "cama"
	RoomFieldBathroom = "bano"
)

type RoomResponse struct {
	Bed      string `json:"cama,omitempty"`
	Bathroom string `json:"bano,omitempty"`
}

// ResponseSet accumulates the answers of one conversation. Rooms[i-1] holds
// the answers of additional room i.
type ResponseSet struct {
	Lot             string         `json:"lote,omitempty"`
	PrincipalRoom   string         `json:"habitacion_principal,omitempty"`
	AdditionalRooms int            `json:"habitaciones_adicionales"`
	Rooms           []RoomResponse `json:"habitaciones,omitempty"`
	ExtraSpaces     []string       `json:"espacios_adicionales"`
	MaterialGrade   string         `json:"linea_materiales,omitempty"`
}

// RoomKey builds the flat key of a per-room answer, e.g. habitacion_2_cama.
func RoomKey(n int, field string) string {
	if field == "" {
		return fmt.Sprintf("habitacion_%d", n)
	}
	return fmt.Sprintf("habitacion_%d_%s", n, field)
}

// Room returns the answers of additional room n (1-based).
func (r ResponseSet) Room(n int) RoomResponse {
	if n < 1 || n > len(r.Rooms) {
		return RoomResponse{}
	}
	return r.Rooms[n-1]
}

// SetRoom records the answers of room n, growing Rooms as needed.
func (r *ResponseSet) SetRoom(n int, room RoomResponse) {
	if n < 1 {
		return
	}
	for len(r.Rooms) < n {
		r.Rooms = append(r.Rooms, RoomResponse{})
	}
	r.Rooms[n-1] = room
}

func (r ResponseSet) HasExtraSpace(value string) bool {
	for _, v := range r.ExtraSpaces {
		if v == value {
			return true
		}
	}
	return false
}

// Flatten returns the answers keyed the way the document service and the
// ledger expect them.
func (r ResponseSet) Flatten() map[string]any {
	out := map[string]any{
		"habitaciones_adicionales": r.AdditionalRooms,
	}
	if r.Lot != "" {
		out["lote"] = r.Lot
	}
	if r.PrincipalRoom != "" {
		out["habitacion_principal"] = r.PrincipalRoom
	}
	for i, room := range r.Rooms {
		if room.Bed != "" {
			out[RoomKey(i+1, RoomFieldBed)] = room.Bed
		}
		if room.Bathroom != "" {
			out[RoomKey(i+1, RoomFieldBathroom)] = room.Bathroom
		}
	}
	spaces := make([]string, len(r.ExtraSpaces))
	copy(spaces, r.ExtraSpaces)
	out["espacios_adicionales"] = spaces
	if r.MaterialGrade != "" {
		out["linea_materiales"] = r.MaterialGrade
	}
	return out
}

func (r ResponseSet) Clone() ResponseSet {
	c := r
	c.Rooms = append([]RoomResponse(nil), r.Rooms...)
	c.ExtraSpaces = append([]string(nil), r.ExtraSpaces...)
	return c
}
