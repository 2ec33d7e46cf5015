package dispatch

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/koustreak/dbagent/internal/database"
	"github.com/koustreak/dbagent/internal/errs"
)

// encode renders an operation result as the dispatcher's JSON text.
func encode(result any) (string, error) {
	var v any
	switch r := result.(type) {
	case []database.Row:
		rows := make([]database.Row, len(r))
		for i, row := range r {
			rows[i] = normalizeRow(row)
		}
		v = rows
	default:
		v = r
	}

	out, err := json.Marshal(v)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindQueryFailed, "failed to encode result", err)
	}
	return string(out), nil
}

func normalizeRow(row database.Row) database.Row {
	out := make(database.Row, len(row))
	for k, v := range row {
		out[k] = normalize(v)
	}
	return out
}

// normalize converts a driver value into something encoding/json renders
// the same way on every backend.
func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.Format(time.RFC3339Nano)
	case []byte:
		return bytesText(x)
	case [16]byte:
		return uuid.UUID(x).String()
	case float64:
		return floatValue(x)
	case float32:
		return floatValue(float64(x))
	case map[string]any:
		return normalizeRow(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	case json.Marshaler:
		return x
	case fmt.Stringer:
		return x.String()
	}
	return v
}

// bytesText returns b as text, or as "\x" followed by lowercase hex when b
// is not valid UTF-8.
func bytesText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return `\x` + hex.EncodeToString(b)
}

// floatValue keeps finite floats as numbers. NaN and infinities have no
// JSON form and are rendered as strings.
func floatValue(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return f
}
