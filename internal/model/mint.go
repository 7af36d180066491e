package model

// MintSubmitResponse represents response for POST /api/mint/submit
type MintSubmitResponse struct {
	Attempt uint64 `json:"attempt"`
	State   string `json:"state"`
}
