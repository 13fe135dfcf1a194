package model

import "time"

type Ingredient struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	CommonUnit string    `json:"common_unit"`
	CreatedAt  time.Time `json:"created_at"`
}

// DedupGroup describes one set of case-insensitively equal ingredients
// folded into the lowest id.
type DedupGroup struct {
	KeepID    int64    `json:"keep_id"`
	Name      string   `json:"name"`
	MergedIDs []int64  `json:"merged_ids"`
	Names     []string `json:"names"`
}
