package index

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/campusqa/askd/internal/domain"
)

// Reserved hash field names. Metadata fields carry the meta: prefix so
// user keys can never collide with the content or vector fields.
const (
	fieldContent = "__content"
	fieldVector  = "__vector"
	metaPrefix   = "meta:"
)

func buildHashFields(doc domain.Document, vector []float32) map[string]string {
	fields := make(map[string]string, len(doc.Metadata)+2)
	fields[fieldContent] = doc.Text
	fields[fieldVector] = string(vectorToBytes(vector))
	for k, v := range doc.Metadata {
		fields[metaPrefix+k] = v
	}
	return fields
}

func parseDocument(id string, fields map[string]string) domain.Document {
	doc := domain.Document{ID: id, Text: fields[fieldContent]}
	for k, v := range fields {
		if name, ok := strings.CutPrefix(k, metaPrefix); ok {
			if doc.Metadata == nil {
				doc.Metadata = make(map[string]string)
			}
			doc.Metadata[name] = v
		}
	}
	return doc
}

// vectorToBytes encodes float32 values as a little-endian binary blob,
// the layout FT.SEARCH expects for vector params.
func vectorToBytes(vector []float32) []byte {
	buf := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
