package scoring

import "math"

// CosineSimilarity computes the cosine similarity between two vectors,
// clipped to [0, 1]. Degenerate input (empty vectors, dimension mismatch,
// zero norm, non-finite result) returns 0.0 so a broken embedding can
// never score as a match.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(similarity) || math.IsInf(similarity, 0) {
		return 0.0
	}

	// Clamp to [0, 1] to handle floating point errors; negative similarity
	// means faces point in opposite directions, which is as good as no match.
	if similarity > 1 {
		similarity = 1
	}
	if similarity < 0 {
		similarity = 0
	}

	return similarity
}
