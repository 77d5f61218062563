package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/fediarchive/internal/database/posts"
	"github.com/mrlokans/fediarchive/internal/entities"
)

type PostsController struct {
	posts PostStore
}

func NewPostsController(store PostStore) *PostsController {
	return &PostsController{posts: store}
}

// PostView is a post with its custom emoji rendered and links to its media.
type PostView struct {
	entities.Post
	RenderedContent string   `json:"rendered_content"`
	MediaURLs       []string `json:"media_urls,omitempty"`
}

func newPostView(post entities.Post) PostView {
	view := PostView{Post: post, RenderedContent: post.RenderContent()}
	for _, id := range post.MediaIDs {
		view.MediaURLs = append(view.MediaURLs, mediaURL(post.AccountID, id))
	}
	return view
}

func newPostViews(list []entities.Post) []PostView {
	views := make([]PostView, 0, len(list))
	for _, post := range list {
		views = append(views, newPostView(post))
	}
	return views
}

func mediaURL(accountID, id string) string {
	return "/api/media?account=" + url.QueryEscape(accountID) + "&id=" + url.QueryEscape(id)
}

// ListPosts handles GET /api/posts?account=&from=&to=&kind=&q=&order=&limit=&offset=
func (pc *PostsController) ListPosts(c *gin.Context) {
	accountID, ok := requireQuery(c, "account")
	if !ok {
		return
	}

	query := posts.Query{Text: c.Query("q"), Desc: c.Query("order") == "desc"}
	if query.From, ok = parseTimeQuery(c, "from", false); !ok {
		return
	}
	if query.To, ok = parseTimeQuery(c, "to", true); !ok {
		return
	}

	switch kind := entities.PostKind(c.Query("kind")); kind {
	case "", entities.PostKindOriginal, entities.PostKindBoost:
		query.Kind = kind
	default:
		respondBadRequest(c, "invalid kind, expected original or boost")
		return
	}

	if query.Limit, query.Offset, ok = parsePage(c, posts.DefaultLimit, posts.MaxLimit); !ok {
		return
	}

	list, total, err := pc.posts.ListByAccount(accountID, query)
	if err != nil {
		respondInternalError(c, err, "list posts")
		return
	}

	c.JSON(http.StatusOK, newPaginatedResponse(newPostViews(list), total, query.Limit, query.Offset))
}

// Search handles GET /api/search?account=&q=&limit=
// Returns the newest posts whose plain text contains q.
func (pc *PostsController) Search(c *gin.Context) {
	accountID, ok := requireQuery(c, "account")
	if !ok {
		return
	}
	text, ok := requireQuery(c, "q")
	if !ok {
		return
	}
	limit, ok := parseIntQuery(c, "limit", posts.DefaultLimit)
	if !ok {
		return
	}

	found, err := pc.posts.Search(accountID, text, limit)
	if err != nil {
		respondInternalError(c, err, "search posts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": newPostViews(found)})
}

// GetPost handles GET /api/post?account=&id=
// Returns the post and the account's replies to it.
func (pc *PostsController) GetPost(c *gin.Context) {
	accountID, ok := requireQuery(c, "account")
	if !ok {
		return
	}
	id, ok := requireQuery(c, "id")
	if !ok {
		return
	}

	post, err := pc.posts.Get(accountID, id)
	if err != nil {
		if errors.Is(err, posts.ErrNotFound) {
			respondNotFound(c, "post")
			return
		}
		respondInternalError(c, err, "get post")
		return
	}

	replies, err := pc.posts.Replies(accountID, post.ID)
	if err != nil {
		respondInternalError(c, err, "get replies")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"post":    newPostView(*post),
		"replies": newPostViews(replies),
	})
}

// Calendar handles GET /api/calendar?account=&from=&to=
// Returns post counts per UTC day for heatmap rendering.
func (pc *PostsController) Calendar(c *gin.Context) {
	accountID, ok := requireQuery(c, "account")
	if !ok {
		return
	}
	from, ok := parseTimeQuery(c, "from", false)
	if !ok {
		return
	}
	to, ok := parseTimeQuery(c, "to", true)
	if !ok {
		return
	}

	days, err := pc.posts.CountByDay(accountID, from, to)
	if err != nil {
		respondInternalError(c, err, "count posts by day")
		return
	}
	if days == nil {
		days = []posts.DayCount{}
	}

	c.JSON(http.StatusOK, gin.H{"days": days})
}
