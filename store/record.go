package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// IDKey is the key under which a Record's identifier is serialized.
const IDKey = "id"

// IdentityKeys are never accepted from clients: the store assigns identifiers.
var IdentityKeys = []string{"id", "_id"}

// Record is a single persisted document of a resource.
// ID is assigned by the store on creation and never changes afterwards.
type Record struct {
	ID     string
	Fields *Document
}

// StripIdentity removes the identity keys from doc and returns it.
func StripIdentity(doc *Document) *Document {
	for _, k := range IdentityKeys {
		doc.Delete(k)
	}
	return doc
}

// Clone returns a copy of r whose Fields can be modified independently.
func (r *Record) Clone() *Record {
	return &Record{ID: r.ID, Fields: r.Fields.Clone()}
}

// MarshalJSON writes the id first, followed by the fields in order.
func (r *Record) MarshalJSON() ([]byte, error) {
	id, err := json.Marshal(r.ID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(`{"` + IDKey + `":`)
	buf.Write(id)
	if err := r.Fields.writeFields(&buf, true); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Record) UnmarshalJSON(data []byte) error {
	doc := NewDocument()
	if err := doc.UnmarshalJSON(data); err != nil {
		return err
	}

	id, _ := doc.Get(IDKey)
	switch v := id.(type) {
	case string:
		r.ID = v
	case nil:
		r.ID = ""
	default:
		r.ID = fmt.Sprint(v)
	}
	r.Fields = StripIdentity(doc)
	return nil
}
