package mongostore

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/saddemm/Projet-Badel/store"
)

func toRecord(d bson.D) *store.Record {
	rec := &store.Record{Fields: store.NewDocument()}
	for _, e := range d {
		if e.Key == idField {
			rec.ID = idString(e.Value)
			continue
		}
		rec.Fields.Set(e.Key, normalize(e.Value))
	}
	return rec
}

func idString(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}

// normalize turns decoded BSON values into values encoding/json renders naturally.
// Embedded documents keep their field order as *store.Document.
func normalize(v any) any {
	switch val := v.(type) {
	case primitive.D:
		doc := store.NewDocument()
		for _, e := range val {
			doc.Set(e.Key, normalize(e.Value))
		}
		return doc
	case primitive.M:
		m := make(map[string]any, len(val))
		for k, x := range val {
			m[k] = normalize(x)
		}
		return m
	case primitive.A:
		out := make([]any, len(val))
		for i, x := range val {
			out[i] = normalize(x)
		}
		return out
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.Timestamp:
		return val.T
	case primitive.Decimal128:
		if val.IsNaN() || val.IsInf() != 0 {
			return val.String()
		}
		return json.Number(val.String())
	case primitive.Binary:
		return val.Data
	case primitive.Regex:
		return val.String()
	case primitive.Null, primitive.Undefined:
		return nil
	default:
		return v
	}
}

// toBSON converts fields to an ordered BSON document, recursing into embedded documents.
func toBSON(doc *store.Document) bson.D {
	d := make(bson.D, 0, doc.Len())
	for _, f := range doc.Fields() {
		d = append(d, bson.E{Key: f.Key, Value: toBSONValue(f.Value)})
	}
	return d
}

func toBSONValue(v any) any {
	switch val := v.(type) {
	case *store.Document:
		return toBSON(val)
	case map[string]any:
		m := make(bson.M, len(val))
		for k, x := range val {
			m[k] = toBSONValue(x)
		}
		return m
	case []any:
		out := make(bson.A, len(val))
		for i, x := range val {
			out[i] = toBSONValue(x)
		}
		return out
	case json.Number:
		return numberValue(val)
	default:
		return v
	}
}

// numberValue stores integers as int64, other numbers as doubles, and integers too large for
// an int64 as decimal128 so that no digit is lost.
func numberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if !strings.ContainsAny(n.String(), ".eE") {
		if d, err := primitive.ParseDecimal128(n.String()); err == nil {
			return d
		}
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// checkFieldNames rejects top-level names that $set cannot address as plain fields.
func checkFieldNames(collection string, doc *store.Document) error {
	for _, k := range doc.Keys() {
		if strings.HasPrefix(k, "$") || strings.Contains(k, ".") {
			return &store.ValidationError{
				Collection: collection,
				Err:        fmt.Errorf("field name %q cannot be stored", k),
			}
		}
	}
	return nil
}
