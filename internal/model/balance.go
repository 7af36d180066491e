package model

import "time"

// Balance is the native balance of the connected account.
type Balance struct {
	Address   string    `json:"address"`
	Lamports  uint64    `json:"lamports"`
	SOL       string    `json:"sol"`
	UpdatedAt time.Time `json:"updatedAt"`
}
