package history

import (
	"encoding/binary"
	"math"
	"sort"
)

// encodeEmbedding stores each float32 as 4 little-endian bytes
func encodeEmbedding(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	data := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(f))
	}
	return data
}

// decodeEmbedding reverses encodeEmbedding. A short trailing chunk is dropped.
func decodeEmbedding(data []byte) []float32 {
	result := make([]float32, len(data)/4)
	for i := range result {
		result[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return result
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when their lengths differ or either is a zero vector.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// topMatches keeps candidates at or above threshold, most similar first, at most count.
func topMatches(candidates []Match, count int, threshold float64) []Match {
	kept := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if c.Similarity >= threshold {
			kept = append(kept, c)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Similarity > kept[j].Similarity
	})
	if count >= 0 && len(kept) > count {
		kept = kept[:count]
	}
	return kept
}
