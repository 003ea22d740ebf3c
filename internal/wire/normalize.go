// Package wire maps loosely-shaped JSON records onto the canonical model types.
// Every tolerated field alias lives here so consumers only ever see model values.
package wire

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"lab-inventory-backend/internal/model"
)

var (
	idKeys         = []string{"id", "_id", "ID"}
	labKeys        = []string{"lab", "area", "module", "modulo", "laboratorio"}
	actionKeys     = []string{"action", "accion", "event"}
	entityTypeKeys = []string{"entityType", "entity_type", "entity", "tipo"}
	entityIDKeys   = []string{"entityId", "entity_id", "entityID", "ref"}
	userKeys       = []string{"user", "usuario", "actor", "username"}
	createdAtKeys  = []string{"createdAt", "created_at", "timestamp", "fecha_hora", "ts"}
	dataKeys       = []string{"data", "details", "payload", "meta"}

	requesterKeys = []string{"requester", "solicitante", "teacher", "docente", "responsable"}
	groupKeys     = []string{"group", "grupo", "course", "curso"}
	dateKeys      = []string{"date", "fecha", "day", "dia"}
	timeRangeKeys = []string{"timeRange", "time_range", "horario", "hora", "time"}
	notesKeys     = []string{"notes", "notas", "observaciones", "comments"}
	originKeys    = []string{"origin", "_origin", "source"}
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	model.DateLayout,
}

// HistoryEvent converts an arbitrary wire record into a HistoryEvent.
func HistoryEvent(rec map[string]any) model.HistoryEvent {
	return model.HistoryEvent{
		ID:         String(rec, idKeys...),
		Lab:        model.NormalizeLab(String(rec, labKeys...)),
		Action:     strings.TrimSpace(String(rec, actionKeys...)),
		EntityType: strings.TrimSpace(String(rec, entityTypeKeys...)),
		EntityID:   String(rec, entityIDKeys...),
		User:       strings.TrimSpace(String(rec, userKeys...)),
		CreatedAt:  Time(rec, createdAtKeys...),
		Data:       Object(rec, dataKeys...),
	}
}

// Reservation converts an arbitrary wire record into a Reservation.
func Reservation(rec map[string]any) model.Reservation {
	r := model.Reservation{
		ID:        String(rec, idKeys...),
		Lab:       model.NormalizeLab(String(rec, labKeys...)),
		Date:      strings.TrimSpace(String(rec, dateKeys...)),
		TimeRange: strings.TrimSpace(String(rec, timeRangeKeys...)),
		Requester: strings.TrimSpace(String(rec, requesterKeys...)),
		Group:     strings.TrimSpace(String(rec, groupKeys...)),
		Notes:     strings.TrimSpace(String(rec, notesKeys...)),
		CreatedAt: Time(rec, createdAtKeys...),
	}
	switch model.Origin(strings.ToLower(String(rec, originKeys...))) {
	case model.OriginLocal:
		r.Origin = model.OriginLocal
	case model.OriginRemote:
		r.Origin = model.OriginRemote
	}
	return r
}

// String returns the first non-empty value found under keys, rendered as text.
func String(rec map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok {
			continue
		}
		if s := toString(v); s != "" {
			return s
		}
	}
	return ""
}

// Time returns the first parseable timestamp under keys, or the zero time.
func Time(rec map[string]any, keys ...string) time.Time {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok {
			continue
		}
		if t, ok := toTime(v); ok {
			return t
		}
	}
	return time.Time{}
}

// Object returns the first JSON object under keys. JSON-encoded strings are decoded.
func Object(rec map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		switch v := rec[k].(type) {
		case map[string]any:
			return v
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			var obj map[string]any
			if err := json.Unmarshal([]byte(s), &obj); err == nil {
				return obj
			}
			return map[string]any{"value": s}
		}
	}
	return nil
}

// ParseTime parses the timestamp formats accepted on the wire.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return epoch(n), true
	}
	return time.Time{}, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		return ParseTime(t)
	case float64:
		return epoch(t), true
	case int64:
		return epoch(float64(t)), true
	case int:
		return epoch(float64(t)), true
	case json.Number:
		return ParseTime(t.String())
	}
	return time.Time{}, false
}

// epoch interprets n as milliseconds when it is too large to be seconds.
func epoch(n float64) time.Time {
	if math.Abs(n) >= 1e12 {
		return time.UnixMilli(int64(n)).UTC()
	}
	return time.Unix(int64(n), 0).UTC()
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}
