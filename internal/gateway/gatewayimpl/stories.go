package gatewayimpl

import (
	"context"
	"net/http"

	"github.com/orgball2608/snappy-sync/internal/domain"
)

const (
	endpointGetStories  = "get-stories"
	endpointPostStory   = "post-story"
	endpointDeleteStory = "delete-story"
)

func (g *Impl) FetchStories(ctx context.Context) ([]domain.StoryGroup, error) {
	raw, err := g.send(ctx, request{method: http.MethodGet, base: g.storyURL, endpoint: endpointGetStories})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Stories []domain.StoryGroup `json:"stories"`
	}
	if err := decode(endpointGetStories, raw, strict, &payload); err != nil {
		return nil, err
	}

	// Owner is implied by the group on the wire.
	for gi := range payload.Stories {
		group := &payload.Stories[gi]
		for si := range group.Stories {
			if group.Stories[si].OwnerUsername == "" {
				group.Stories[si].OwnerUsername = group.Username
			}
		}
	}
	return payload.Stories, nil
}

func (g *Impl) AddStory(ctx context.Context, story domain.Story) error {
	body := map[string]any{
		"username":  story.OwnerUsername,
		"storyid":   story.ID,
		"imageUrl":  story.ImageURL,
		"timestamp": story.Timestamp,
	}
	return g.mutate(ctx, http.MethodPost, g.storyURL, endpointPostStory, body)
}

func (g *Impl) DeleteStory(ctx context.Context, username, storyID string) error {
	body := map[string]any{"username": username, "storyid": storyID}
	return g.mutate(ctx, http.MethodDelete, g.storyURL, endpointDeleteStory, body)
}
