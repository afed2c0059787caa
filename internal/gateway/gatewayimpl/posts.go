package gatewayimpl

import (
	"context"
	"net/http"

	"github.com/orgball2608/snappy-sync/internal/domain"
)

const (
	endpointGetPosts      = "get-posts"
	endpointAddPost       = "add-post"
	endpointDeletePost    = "delete-post"
	endpointAddComment    = "add-comment"
	endpointDeleteComment = "delete-comment"
	endpointToggleLike    = "toggle-like"
)

func (g *Impl) FetchPosts(ctx context.Context) ([]domain.Post, error) {
	raw, err := g.send(ctx, request{method: http.MethodGet, base: g.postURL, endpoint: endpointGetPosts})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Posts []domain.Post `json:"posts"`
	}
	if err := decode(endpointGetPosts, raw, strict, &payload); err != nil {
		return nil, err
	}
	for i := range payload.Posts {
		normalizePost(&payload.Posts[i])
	}
	return payload.Posts, nil
}

func (g *Impl) AddPost(ctx context.Context, post domain.Post) error {
	body := map[string]any{
		"username":  post.AuthorUsername,
		"postid":    post.ID,
		"imageUrl":  post.ImageURL,
		"caption":   post.Caption,
		"timestamp": post.Timestamp,
	}
	return g.mutate(ctx, http.MethodPost, g.postURL, endpointAddPost, body)
}

func (g *Impl) DeletePost(ctx context.Context, username, postID string) error {
	body := map[string]any{"username": username, "postid": postID}
	return g.mutate(ctx, http.MethodDelete, g.postURL, endpointDeletePost, body)
}

func (g *Impl) AddComment(ctx context.Context, postOwner, postID string, comment domain.Comment) error {
	body := map[string]any{"whose_post": postOwner, "postid": postID, "comment": comment}
	return g.mutate(ctx, http.MethodPost, g.postURL, endpointAddComment, body)
}

func (g *Impl) DeleteComment(ctx context.Context, postOwner, postID, commentID string) error {
	body := map[string]any{"whose_post": postOwner, "postid": postID, "commentId": commentID}
	return g.mutate(ctx, http.MethodDelete, g.postURL, endpointDeleteComment, body)
}

func (g *Impl) ToggleLike(ctx context.Context, postOwner, postID, liker string) error {
	body := map[string]any{"whose_post": postOwner, "postid": postID, "liker": liker}
	return g.mutate(ctx, http.MethodPost, g.postURL, endpointToggleLike, body)
}

// mutate sends a call whose only meaningful answer is the success flag.
func (g *Impl) mutate(ctx context.Context, method, base, endpoint string, body any) error {
	raw, err := g.send(ctx, request{method: method, base: base, endpoint: endpoint, body: body})
	if err != nil {
		return err
	}
	return decode(endpoint, raw, strict, nil)
}

func normalizePost(p *domain.Post) {
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.Comments == nil {
		p.Comments = []domain.Comment{}
	}
}
