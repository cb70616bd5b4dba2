package models

// Prediction statuses reported by the upscale provider.
const (
	PredictionStarting   = "starting"
	PredictionProcessing = "processing"
	PredictionSucceeded  = "succeeded"
	PredictionFailed     = "failed"
	PredictionCanceled   = "canceled"
)

type PredictionInput struct {
	Image       string  `json:"image"`
	Scale       float32 `json:"scale"`
	FaceEnhance bool    `json:"face_enhance"`
}

type PredictionRequest struct {
	Version string          `json:"version"`
	Input   PredictionInput `json:"input"`
}

type PredictionURLs struct {
	Get    string `json:"get"`
	Cancel string `json:"cancel,omitempty"`
}

type PredictionResponse struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Output *string        `json:"output"`
	Error  any            `json:"error,omitempty"`
	URLs   PredictionURLs `json:"urls"`
}

// HasOutput reports whether the job already carries its output reference.
func (p *PredictionResponse) HasOutput() bool {
	return p.Output != nil && *p.Output != ""
}

func (p *PredictionResponse) Failed() bool {
	return p.Status == PredictionFailed
}
