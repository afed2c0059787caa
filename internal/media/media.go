package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

type ResourceType string

const (
	Image ResourceType = "image"
	Video ResourceType = "video"
)

// Root is the folder every Snappy asset lives under.
const Root = "snappy"

var (
	ErrUpload       = errors.New("media upload failed")
	ErrDeleteFailed = errors.New("media delete failed")
)

// Key is the destination of an asset in the object store.
type Key struct {
	Folder       string
	ID           string
	ResourceType ResourceType
}

func (k Key) PublicID() string {
	return k.Folder + "/" + k.ID
}

func (k Key) String() string {
	return fmt.Sprintf("%s (%s)", k.PublicID(), k.resourceType())
}

func (k Key) resourceType() ResourceType {
	if k.ResourceType == "" {
		return Image
	}
	return k.ResourceType
}

func PostKey(username, postID string) Key {
	return Key{Folder: Root + "/posts/" + username, ID: postID, ResourceType: Image}
}

func StoryKey(username, storyID string, rt ResourceType) Key {
	return Key{Folder: Root + "/stories/" + username, ID: storyID, ResourceType: rt}
}

func AvatarKey(username string) Key {
	return Key{Folder: Root + "/avatars", ID: username, ResourceType: Image}
}

// ParseKey splits a stored public id back into a Key.
func ParseKey(publicID string, rt ResourceType) (Key, error) {
	i := strings.LastIndex(publicID, "/")
	if i <= 0 || i == len(publicID)-1 {
		return Key{}, fmt.Errorf("invalid public id %q", publicID)
	}
	return Key{Folder: publicID[:i], ID: publicID[i+1:], ResourceType: rt}, nil
}

// UploadError means no asset exists at Key; nothing may reference it.
type UploadError struct {
	Key Key
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Key.PublicID(), e.Err)
}

func (e *UploadError) Unwrap() []error {
	return []error{ErrUpload, e.Err}
}

//go:generate go run go.uber.org/mock/mockgen -source=media.go -destination=mocks/mock.go
type Store interface {
	// Upload stores r at key and returns its public URL.
	Upload(ctx context.Context, r io.Reader, key Key) (string, error)

	// Delete asks for the asset at key to be destroyed. ok is false when the
	// store answered but refused or did not find the asset.
	Delete(ctx context.Context, key Key) (ok bool, err error)
}

// ResourceTypeFromURL reads the resource type out of a delivery URL such as
// https://res.cloudinary.com/demo/video/upload/v1/snappy/stories/bob/s1.mp4.
func ResourceTypeFromURL(u string) ResourceType {
	if strings.Contains(u, "/video/upload/") {
		return Video
	}
	return Image
}
