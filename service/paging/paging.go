package paging

import (
	"encoding/base64"
	"encoding/json"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cursor is the opaque keyset position handed to clients. Key holds
// the stringified ordering key of the last returned row, Id its
// object id. Key is empty for reads ordered by id alone.
type Cursor struct {
	Key string `json:"key"`
	Id  string `json:"id"`
}

// Encode serializes the cursor for the wire
func Encode(c Cursor) string {
	raw, _ := json.Marshal(c)
	return base64.StdEncoding.EncodeToString(raw)
}

// EncodeKeyed builds a cursor from an ordering key and object id
func EncodeKeyed(key float64, id primitive.ObjectID) string {
	return Encode(Cursor{
		Key: strconv.FormatFloat(key, 'g', -1, 64),
		Id:  id.Hex(),
	})
}

// EncodeId builds a cursor for id-ordered reads
func EncodeId(id primitive.ObjectID) string {
	return Encode(Cursor{Id: id.Hex()})
}

// Decode parses a wire cursor. A corrupted or foreign cursor yields
// ok=false, which callers treat as a restart from the first page.
func Decode(s string) (Cursor, bool) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, false
	}
	c := Cursor{}
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, false
	}
	if len(c.Id) > 0 {
		if _, err := primitive.ObjectIDFromHex(c.Id); err != nil {
			return Cursor{}, false
		}
	}
	return c, true
}

// ObjectId returns the id component if present and well formed
func (c Cursor) ObjectId() (primitive.ObjectID, bool) {
	if len(c.Id) == 0 {
		return primitive.ObjectID{}, false
	}
	id, err := primitive.ObjectIDFromHex(c.Id)
	if err != nil {
		return primitive.ObjectID{}, false
	}
	return id, true
}

// KeyFloat returns the ordering key component if present and numeric
func (c Cursor) KeyFloat() (float64, bool) {
	if len(c.Key) == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(c.Key, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ClampLimit forces limit into [1, max], falling back to def when the
// caller sent nothing
func ClampLimit(limit int32, def int32, max int32) int32 {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
