package protocol

// Core state field names. Every entity in a TickInfo carries these; custom
// state providers may add more (see the server's merge policy).
const (
	FieldID       = "id"
	FieldName     = "name"
	FieldType     = "type"
	FieldPosition = "position"
	FieldRotation = "rotation"
	FieldIsPlayer = "isPlayer"
	FieldClientID = "clientId"
)

// EntityState is an open named-field record describing one entity at one tick.
type EntityState map[string]any

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

func (s EntityState) ID() (int64, bool)       { return asInt64(s[FieldID]) }
func (s EntityState) Name() string            { v, _ := s[FieldName].(string); return v }
func (s EntityState) EntityType() string      { v, _ := s[FieldType].(string); return v }
func (s EntityState) IsPlayer() bool          { v, _ := s[FieldIsPlayer].(bool); return v }
func (s EntityState) ClientID() (int64, bool) { return asInt64(s[FieldClientID]) }

// Position decodes the position field, tolerating both the typed and the
// freshly-unmarshaled (map) representation.
func (s EntityState) Position() (Vec3, bool) {
	switch v := s[FieldPosition].(type) {
	case Vec3:
		return v, true
	case *Vec3:
		if v != nil {
			return *v, true
		}
	case map[string]any:
		x, okX := asFloat64(v["x"])
		y, okY := asFloat64(v["y"])
		z, okZ := asFloat64(v["z"])
		if okX && okY && okZ {
			return Vec3{X: x, Y: y, Z: z}, true
		}
	}
	return Vec3{}, false
}

func (s EntityState) Rotation() (Quat, bool) {
	switch v := s[FieldRotation].(type) {
	case Quat:
		return v, true
	case *Quat:
		if v != nil {
			return *v, true
		}
	case map[string]any:
		x, okX := asFloat64(v["x"])
		y, okY := asFloat64(v["y"])
		z, okZ := asFloat64(v["z"])
		w, okW := asFloat64(v["w"])
		if okX && okY && okZ && okW {
			return Quat{X: x, Y: y, Z: z, W: w}, true
		}
	}
	return Quat{}, false
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case uint32:
		return int64(n), true
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
