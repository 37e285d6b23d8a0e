package model

type EmbeddingCache struct {
	ModelName   string    `json:"model_name"`
	ContentHash string    `json:"content_hash"`
	Embedding   []float64 `json:"embedding"`
	Ctime       int64     `json:"ctime"`
}
