// Package api is the agent's local read-only HTTP view of the caches.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/snappy-sync/internal/domain"
	"github.com/orgball2608/snappy-sync/internal/syncer"
	"github.com/orgball2608/snappy-sync/pkg/formatter"
	"github.com/orgball2608/snappy-sync/pkg/httpserver"
	"github.com/orgball2608/snappy-sync/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In
	Syncer syncer.Client
	Logger logger.Logger
	Clock  clockwork.Clock `optional:"true"`
}

type Handler struct {
	syncer syncer.Client
	clock  clockwork.Clock
	logger logger.Logger
}

func New(opts Opts) *Handler {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Handler{
		syncer: opts.Syncer,
		clock:  opts.Clock,
		logger: opts.Logger.WithComponent("API"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := httpserver.NewRouter(h.logger)
	r.Get("/healthz", httpserver.Healthz)
	r.Get("/posts", h.HandlePosts)
	r.Route("/users/{username}", func(r chi.Router) {
		r.Get("/", h.HandleUser)
		r.Get("/avatar", h.HandleAvatar)
	})
	r.Get("/stories", h.HandleStories)
	r.Get("/notifications", h.HandleNotifications)
	return r
}

// PostView is a post as a feed renders it.
type PostView struct {
	domain.Post
	PostedAgo    string `json:"postedAgo"`
	LikeCount    string `json:"likeCount"`
	CommentCount int    `json:"commentCount"`
}

func (h *Handler) HandlePosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.syncer.Posts(r.Context())
	if err != nil {
		h.logger.Error("Failed to load posts", "error", err)
		httpserver.WriteError(w, err)
		return
	}

	now := h.clock.Now()
	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, PostView{
			Post:         p,
			PostedAgo:    formatter.TimeAgo(p.Timestamp, now),
			LikeCount:    formatter.FormatNumber(len(p.Likes)),
			CommentCount: len(p.Comments),
		})
	}
	httpserver.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) HandleUser(w http.ResponseWriter, r *http.Request) {
	profile, err := h.syncer.UserProfile(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		httpserver.WriteError(w, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) HandleAvatar(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	avatar, err := h.syncer.Avatar(r.Context(), username)
	if err != nil {
		httpserver.WriteError(w, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, map[string]string{"username": username, "avatar": avatar})
}

func (h *Handler) HandleStories(w http.ResponseWriter, r *http.Request) {
	groups, err := h.syncer.Stories(r.Context())
	if err != nil {
		h.logger.Error("Failed to load stories", "error", err)
		httpserver.WriteError(w, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, groups)
}

type notificationsResponse struct {
	Unseen        int                   `json:"unseen"`
	Notifications []domain.Notification `json:"notifications"`
}

func (h *Handler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	items, err := h.syncer.Notifications(r.Context())
	if err != nil {
		httpserver.WriteError(w, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, notificationsResponse{
		Unseen:        domain.CountUnseen(items),
		Notifications: items,
	})
}
