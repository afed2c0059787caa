// Package gatewayfake is an in-memory backend implementing gateway.Client for tests.
package gatewayfake

import (
	"context"
	"slices"
	"sync"

	"github.com/orgball2608/snappy-sync/internal/domain"
	"github.com/orgball2608/snappy-sync/internal/gateway"
)

type Fake struct {
	mu            sync.Mutex
	posts         []domain.Post
	users         map[string]domain.UserProfile
	avatars       map[string]string
	stories       []domain.StoryGroup
	notifications map[string][]domain.Notification
	calls         map[string]int
	failures      map[string]error

	// AvatarLag is how many FetchAvatar calls keep returning the previous
	// avatar after an edit, to mimic a slow object store.
	AvatarLag   int
	staleAvatar map[string]string
}

var _ gateway.Client = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		users:         make(map[string]domain.UserProfile),
		avatars:       make(map[string]string),
		notifications: make(map[string][]domain.Notification),
		calls:         make(map[string]int),
		failures:      make(map[string]error),
		staleAvatar:   make(map[string]string),
	}
}

func (f *Fake) SeedPosts(posts ...domain.Post) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range posts {
		if p.Likes == nil {
			p.Likes = []string{}
		}
		f.posts = append(f.posts, p.Clone())
	}
}

func (f *Fake) SeedUser(u domain.UserProfile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.Username] = u
	if u.AvatarURL != "" {
		f.avatars[u.Username] = u.AvatarURL
	}
}

func (f *Fake) SeedStories(groups ...domain.StoryGroup) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range groups {
		f.stories = append(f.stories, g.Clone())
	}
}

func (f *Fake) SeedNotifications(username string, items ...domain.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications[username] = append(f.notifications[username], items...)
}

// Fail makes every later call of method return err until cleared with nil.
func (f *Fake) Fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, method)
		return
	}
	f.failures[method] = err
}

func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *Fake) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// Post returns the backend copy of a post.
func (f *Fake) Post(postID string) (domain.Post, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.postIndex(postID)
	if i < 0 {
		return domain.Post{}, false
	}
	return f.posts[i].Clone(), true
}

func (f *Fake) enter(method string) error {
	f.calls[method]++
	return f.failures[method]
}

func (f *Fake) postIndex(postID string) int {
	return slices.IndexFunc(f.posts, func(p domain.Post) bool { return p.ID == postID })
}

func failure(endpoint, msg string) error {
	return &gateway.FailureError{Endpoint: endpoint, Message: msg}
}

func (f *Fake) FetchPosts(ctx context.Context) ([]domain.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FetchPosts"); err != nil {
		return nil, err
	}
	out := make([]domain.Post, len(f.posts))
	for i, p := range f.posts {
		out[i] = p.Clone()
		if u, ok := f.users[p.AuthorUsername]; ok {
			out[i].AuthorName = u.Name
		}
		if a, ok := f.avatars[p.AuthorUsername]; ok {
			out[i].AuthorAvatarURL = a
		}
	}
	return out, nil
}

func (f *Fake) AddPost(ctx context.Context, post domain.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("AddPost"); err != nil {
		return err
	}
	if f.postIndex(post.ID) >= 0 {
		return failure("add-post", "post already exists")
	}
	f.posts = append([]domain.Post{post.Clone()}, f.posts...)
	return nil
}

func (f *Fake) DeletePost(ctx context.Context, username, postID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeletePost"); err != nil {
		return err
	}
	i := f.postIndex(postID)
	if i < 0 || f.posts[i].AuthorUsername != username {
		return failure("delete-post", "post not found")
	}
	f.posts = slices.Delete(f.posts, i, i+1)
	return nil
}

func (f *Fake) AddComment(ctx context.Context, postOwner, postID string, comment domain.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("AddComment"); err != nil {
		return err
	}
	i := f.postIndex(postID)
	if i < 0 {
		return failure("add-comment", "post not found")
	}
	f.posts[i].Comments = append(f.posts[i].Comments, comment)
	return nil
}

func (f *Fake) DeleteComment(ctx context.Context, postOwner, postID, commentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteComment"); err != nil {
		return err
	}
	i := f.postIndex(postID)
	if i < 0 || !f.posts[i].RemoveComment(commentID) {
		return failure("delete-comment", "comment not found")
	}
	return nil
}

func (f *Fake) ToggleLike(ctx context.Context, postOwner, postID, liker string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ToggleLike"); err != nil {
		return err
	}
	i := f.postIndex(postID)
	if i < 0 {
		return failure("toggle-like", "post not found")
	}
	f.posts[i].ToggleLike(liker)
	return nil
}

func (f *Fake) FetchUserByUsername(ctx context.Context, username string) (domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FetchUserByUsername"); err != nil {
		return domain.UserProfile{}, err
	}
	u, ok := f.users[username]
	if !ok {
		return domain.UserProfile{}, &gateway.FailureError{Endpoint: "get-user-by-username", Message: "User not found", NotFound: true}
	}
	u.AvatarURL = f.avatars[username]
	return u, nil
}

func (f *Fake) FetchUserByEmail(ctx context.Context, email string) (domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FetchUserByEmail"); err != nil {
		return domain.UserProfile{}, err
	}
	for _, u := range f.users {
		if u.Email == email {
			u.AvatarURL = f.avatars[u.Username]
			return u, nil
		}
	}
	return domain.UserProfile{}, &gateway.FailureError{Endpoint: "get-user-by-email", Message: "User not found", NotFound: true}
}

func (f *Fake) SaveUser(ctx context.Context, profile domain.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SaveUser"); err != nil {
		return err
	}
	if _, ok := f.users[profile.Username]; ok {
		return failure("save-user-in-mongo", "Username already exists")
	}
	f.users[profile.Username] = profile
	return nil
}

func (f *Fake) EditUser(ctx context.Context, update domain.ProfileUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("EditUser"); err != nil {
		return err
	}
	u, ok := f.users[update.Username]
	if !ok {
		return failure("edit-user", "User not found")
	}
	u.Name = update.Name
	u.About = update.About
	f.users[update.Username] = u
	if update.AvatarURL != "" {
		if f.AvatarLag > 0 {
			f.staleAvatar[update.Username] = f.avatars[update.Username]
		}
		f.avatars[update.Username] = update.AvatarURL
	}
	return nil
}

func (f *Fake) CheckUsernameUnique(ctx context.Context, username string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CheckUsernameUnique"); err != nil {
		return "", err
	}
	if _, ok := f.users[username]; ok {
		return "Username already taken", nil
	}
	return gateway.UniqueUsernameMessage, nil
}

func (f *Fake) FetchAvatar(ctx context.Context, username string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FetchAvatar"); err != nil {
		return "", err
	}
	if stale, ok := f.staleAvatar[username]; ok && f.AvatarLag > 0 {
		f.AvatarLag--
		return stale, nil
	}
	delete(f.staleAvatar, username)
	a, ok := f.avatars[username]
	if !ok {
		return "", &gateway.FailureError{Endpoint: "get-avatar", Message: "No avatar", NotFound: true}
	}
	return a, nil
}

func (f *Fake) FetchStories(ctx context.Context) ([]domain.StoryGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FetchStories"); err != nil {
		return nil, err
	}
	out := make([]domain.StoryGroup, len(f.stories))
	for i, g := range f.stories {
		out[i] = g.Clone()
	}
	return out, nil
}

func (f *Fake) AddStory(ctx context.Context, story domain.Story) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("AddStory"); err != nil {
		return err
	}
	i := slices.IndexFunc(f.stories, func(g domain.StoryGroup) bool { return g.Username == story.OwnerUsername })
	if i < 0 {
		u := f.users[story.OwnerUsername]
		f.stories = append(f.stories, domain.StoryGroup{Username: story.OwnerUsername, Name: u.Name, AvatarURL: f.avatars[u.Username]})
		i = len(f.stories) - 1
	}
	f.stories[i].Stories = append([]domain.Story{story}, f.stories[i].Stories...)
	return nil
}

func (f *Fake) DeleteStory(ctx context.Context, username, storyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteStory"); err != nil {
		return err
	}
	for gi := range f.stories {
		if f.stories[gi].Username != username {
			continue
		}
		si := slices.IndexFunc(f.stories[gi].Stories, func(s domain.Story) bool { return s.ID == storyID })
		if si >= 0 {
			f.stories[gi].Stories = slices.Delete(f.stories[gi].Stories, si, si+1)
			return nil
		}
	}
	return failure("delete-story", "story not found")
}

func (f *Fake) FetchNotifications(ctx context.Context, username string) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FetchNotifications"); err != nil {
		return nil, err
	}
	return slices.Clone(f.notifications[username]), nil
}

func (f *Fake) MarkAllSeen(ctx context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("MarkAllSeen"); err != nil {
		return err
	}
	for i := range f.notifications[username] {
		f.notifications[username][i].Seen = true
	}
	return nil
}

func (f *Fake) DeleteNotification(ctx context.Context, username, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteNotification"); err != nil {
		return err
	}
	items := f.notifications[username]
	i := slices.IndexFunc(items, func(n domain.Notification) bool { return n.ID == id })
	if i < 0 {
		return failure("delete-notification", "notification not found")
	}
	f.notifications[username] = slices.Delete(items, i, i+1)
	return nil
}
