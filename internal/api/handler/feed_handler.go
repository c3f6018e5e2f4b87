package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/shelfgraph/internal/model"
	"github.com/d60-Lab/shelfgraph/internal/service"
	"github.com/d60-Lab/shelfgraph/pkg/response"
)

type feedQuery struct {
	Kind string `form:"kind,default=review" binding:"content_kind"`
	Page int    `form:"page" binding:"min=0,max=1000000"`
	Size int    `form:"size,default=20" binding:"min=1,max=50"`
	Sort string `form:"sort,default=relevant" binding:"feed_sort"`
}

// FollowingFeed 关注页 feed
// @Summary 关注页 feed
// @Description sort=relevant 时 total 为候选池大小（近似值）
// @Tags Feed
// @Produce json
// @Security BearerAuth
// @Param kind query string false "review / reflection" default(review)
// @Param page query int false "页码（从 0 开始）" default(0)
// @Param size query int false "每页数量" default(20)
// @Param sort query string false "relevant / recent" default(relevant)
// @Success 200 {object} response.Response{data=response.Page}
// @Failure 400 {object} response.Response
// @Router /api/v1/feed/following [get]
func (h *Handler) FollowingFeed(c *gin.Context) { h.feed(c, service.TabFollowing) }

// EveryoneFeed 广场页 feed
// @Summary 广场页 feed
// @Tags Feed
// @Produce json
// @Security BearerAuth
// @Param kind query string false "review / reflection" default(review)
// @Param page query int false "页码（从 0 开始）" default(0)
// @Param size query int false "每页数量" default(20)
// @Param sort query string false "relevant / recent" default(relevant)
// @Success 200 {object} response.Response{data=response.Page}
// @Failure 400 {object} response.Response
// @Router /api/v1/feed/everyone [get]
func (h *Handler) EveryoneFeed(c *gin.Context) { h.feed(c, service.TabEveryone) }

func (h *Handler) feed(c *gin.Context, tab service.Tab) {
	var q feedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.feedService.Feed(c.Request.Context(), service.FeedQuery{
		ViewerID: currentUser(c),
		Tab:      tab,
		Kind:     model.ContentKind(q.Kind),
		Page:     q.Page,
		Size:     q.Size,
		Sort:     service.Sort(q.Sort),
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, pageOf(page))
}
