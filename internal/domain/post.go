package domain

import (
	"slices"
	"time"
)

type Post struct {
	ID              string    `json:"postid"`
	AuthorUsername  string    `json:"username"`
	AuthorName      string    `json:"name"`
	AuthorAvatarURL string    `json:"avatar"`
	ImageURL        string    `json:"imageUrl"`
	Caption         string    `json:"caption"`
	Timestamp       time.Time `json:"timestamp"`
	Likes           []string  `json:"likes"`
	Comments        []Comment `json:"comments"`
}

type Comment struct {
	ID                string    `json:"commentId"`
	CommentorUsername string    `json:"commentor"`
	Content           string    `json:"content"`
	Timestamp         time.Time `json:"timestamp"`
}

// Clone returns a deep copy so cached posts can be patched copy-on-write.
func (p Post) Clone() Post {
	p.Likes = slices.Clone(p.Likes)
	p.Comments = slices.Clone(p.Comments)
	return p
}

func (p Post) HasLike(username string) bool {
	return slices.Contains(p.Likes, username)
}

// ToggleLike flips username's membership in the likes set.
func (p *Post) ToggleLike(username string) {
	if i := slices.Index(p.Likes, username); i >= 0 {
		p.Likes = slices.Delete(p.Likes, i, i+1)
		return
	}
	p.Likes = append(p.Likes, username)
}

func (p *Post) RemoveComment(commentID string) bool {
	i := slices.IndexFunc(p.Comments, func(c Comment) bool { return c.ID == commentID })
	if i < 0 {
		return false
	}
	p.Comments = slices.Delete(p.Comments, i, i+1)
	return true
}
