package model

import "time"

// CategoryRule is a learned phrase → category assignment.
type CategoryRule struct {
	ID         string    `yaml:"id" json:"id"`
	Phrase     string    `yaml:"phrase" json:"phrase"`
	Category   Category  `yaml:"category" json:"category"`
	UseCount   int       `yaml:"use_count" json:"use_count"`
	CreatedAt  time.Time `yaml:"created_at" json:"created_at"`
	LastUsedAt time.Time `yaml:"last_used_at" json:"last_used_at"`
}
