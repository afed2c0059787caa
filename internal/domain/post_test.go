package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToggleLikeLaw(t *testing.T) {
	for _, initial := range []bool{false, true} {
		for n := 0; n < 6; n++ {
			p := Post{ID: "p1", Likes: []string{"bob"}}
			if initial {
				p.Likes = append(p.Likes, "alice")
			}
			for i := 0; i < n; i++ {
				p.ToggleLike("alice")
			}

			want := initial
			if n%2 == 1 {
				want = !initial
			}
			assert.Equal(t, want, p.HasLike("alice"), "initial=%v toggles=%d", initial, n)
			assert.True(t, p.HasLike("bob"))
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := Post{ID: "p1", Likes: []string{"bob"}, Comments: []Comment{{ID: "c1"}}}
	cp := orig.Clone()

	cp.ToggleLike("alice")
	cp.RemoveComment("c1")

	assert.Equal(t, []string{"bob"}, orig.Likes)
	assert.Len(t, orig.Comments, 1)
}

func TestRemoveComment(t *testing.T) {
	p := Post{Comments: []Comment{{ID: "a"}, {ID: "b"}}}
	assert.False(t, p.RemoveComment("zzz"))
	assert.True(t, p.RemoveComment("a"))
	assert.Equal(t, []Comment{{ID: "b"}}, p.Comments)
}
