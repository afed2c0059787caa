package domain

import (
	"slices"
	"time"
)

type Story struct {
	ID            string    `json:"storyid"`
	OwnerUsername string    `json:"username,omitempty"`
	ImageURL      string    `json:"imageUrl"`
	Timestamp     time.Time `json:"timestamp"`
}

// StoryGroup is how the backend returns stories: one group per owner.
type StoryGroup struct {
	Username  string  `json:"username"`
	Name      string  `json:"name"`
	AvatarURL string  `json:"avatar"`
	Stories   []Story `json:"stories"`
}

func (g StoryGroup) Clone() StoryGroup {
	g.Stories = slices.Clone(g.Stories)
	return g
}
