package redis

import (
	"strings"
	"testing"

	"github.com/campusqa/askd/internal/db"
)

func TestBuildCreateArgs(t *testing.T) {
	def := &db.IndexDefinition{
		Name:     "campusqa_vectors_idx",
		Prefixes: []string{"campusqa_vectors:doc:"},
		Fields: []db.IndexField{
			{Name: "__content", Type: db.IndexFieldText},
			{
				Name:              "__vector",
				Alias:             db.VectorAttribute,
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         1536,
				VectorDistance:    db.DistanceCosine,
				VectorM:           32,
				VectorEFConstruct: 400,
			},
		},
	}

	args, err := buildCreateArgs(def)
	if err != nil {
		t.Fatalf("buildCreateArgs() error = %v", err)
	}

	joined := strings.Join(args, " ")
	want := "campusqa_vectors_idx ON HASH PREFIX 1 campusqa_vectors:doc: SCHEMA " +
		"__content TEXT " +
		"__vector AS vector VECTOR HNSW 10 TYPE FLOAT32 DIM 1536 DISTANCE_METRIC COSINE M 32 EF_CONSTRUCTION 400"
	if joined != want {
		t.Errorf("args:\n got %q\nwant %q", joined, want)
	}
}

func TestBuildCreateArgsInvalidDefinition(t *testing.T) {
	def := &db.IndexDefinition{Name: "idx"}

	if _, err := buildCreateArgs(def); err == nil {
		t.Error("expected validation error for empty field list")
	}
}

func TestBuildVectorFieldArgsDefaults(t *testing.T) {
	f := &db.IndexField{Name: "__vector", Type: db.IndexFieldVector, VectorDim: 4}

	args, err := buildVectorFieldArgs(f)
	if err != nil {
		t.Fatalf("buildVectorFieldArgs() error = %v", err)
	}

	joined := strings.Join(args, " ")
	if joined != "VECTOR FLAT 6 TYPE FLOAT32 DIM 4 DISTANCE_METRIC COSINE" {
		t.Errorf("args = %q", joined)
	}
}

func TestVectorToBytesLittleEndian(t *testing.T) {
	got := vectorToBytes([]float32{1})

	// 1.0 as little-endian float32 is 00 00 80 3f
	want := string([]byte{0x00, 0x00, 0x80, 0x3f})
	if got != want {
		t.Errorf("vectorToBytes = %x, want %x", got, want)
	}
}
