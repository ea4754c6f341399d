package semantic

// Record is a single vector to upsert, keyed by the owning entity's id.
// Re-upserting the same key always supersedes the prior vector.
type Record struct {
	Key       string
	Embedding []float32
	Text      string
	Payload   map[string]any
}

// Hit is a single similarity-search result, ordered by descending score.
type Hit struct {
	Key     string            `json:"key"`
	Score   float32           `json:"score"`
	Text    string            `json:"text"`
	Payload map[string]string `json:"payload"`
}

// Clamp01 bounds a score to [0,1] for presentation. Ranking keeps the raw
// score: a negative similarity still orders results meaningfully.
func Clamp01(score float32) float32 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
