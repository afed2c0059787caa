package domain

import "time"

type MediaStatus string

const (
	MediaPending  MediaStatus = "pending"
	MediaAttached MediaStatus = "attached"
	MediaOrphaned MediaStatus = "orphaned"
	MediaDeleted  MediaStatus = "deleted"
)

type MediaKind string

const (
	MediaKindPost   MediaKind = "post"
	MediaKindStory  MediaKind = "story"
	MediaKindAvatar MediaKind = "avatar"
)

// MediaAsset is a ledger row for one uploaded object.
type MediaAsset struct {
	PublicID     string
	URL          string
	ResourceType string
	Kind         MediaKind
	Owner        string
	Status       MediaStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
