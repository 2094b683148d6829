package chunkstore

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/docuseek/docrag/internal/domain"
)

// Hash field names for a stored chunk.
const (
	fieldText   = "text"
	fieldVector = "vector"
	fieldStart  = "start"
	fieldEnd    = "end"
)

// countKey addresses the per-document chunk count. It is written last
// during ingestion, so its presence marks a complete entry set.
func countKey(documentID int64) string {
	return fmt.Sprintf("%schunks:%d", domain.KeyPrefix, documentID)
}

// chunkKey addresses the hash holding one chunk of a document.
func chunkKey(documentID int64, seq int) string {
	return fmt.Sprintf("%schunks:%d:%d", domain.KeyPrefix, documentID, seq)
}

// buildHashFields converts an Entry into a flat map[string]string for HSET.
func buildHashFields(e domain.Entry) map[string]string {
	return map[string]string{
		fieldText:   e.Chunk.Text,
		fieldVector: vectorToBytes(e.Vector),
		fieldStart:  strconv.Itoa(e.Chunk.Start),
		fieldEnd:    strconv.Itoa(e.Chunk.End),
	}
}

// parseHashFields converts a flat hash map back into an Entry.
func parseHashFields(seq int, m map[string]string) (domain.Entry, error) {
	raw, ok := m[fieldVector]
	if !ok {
		return domain.Entry{}, fmt.Errorf("chunk %d: missing vector field", seq)
	}
	vec, err := bytesToVector(raw)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("chunk %d: %w", seq, err)
	}

	start, _ := strconv.Atoi(m[fieldStart])
	end, _ := strconv.Atoi(m[fieldEnd])

	return domain.Entry{
		Chunk: domain.Chunk{
			Text:  m[fieldText],
			Start: start,
			End:   end,
			Seq:   seq,
		},
		Vector: vec,
	}, nil
}

// vectorToBytes serializes a vector to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v domain.Vector) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary vector string.
func bytesToVector(data string) (domain.Vector, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector data: len=%d (not multiple of 4)", len(data))
	}
	buf := []byte(data)
	vec := make(domain.Vector, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec, nil
}
