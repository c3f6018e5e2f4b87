package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/shelfgraph/pkg/response"
)

// ActivityFeed 关注对象的读书动态
// @Summary 动态流
// @Tags 动态
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码（从 0 开始）" default(0)
// @Param size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=response.Page}
// @Router /api/v1/activities/feed [get]
func (h *Handler) ActivityFeed(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.activities.Feed(c.Request.Context(), currentUser(c), q.Page, q.Size)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, pageOf(page))
}

// UserActivities 个人主页动态
// @Summary 用户动态
// @Tags 动态
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "用户ID"
// @Param page query int false "页码（从 0 开始）" default(0)
// @Param size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=response.Page}
// @Failure 403 {object} response.Response
// @Router /api/v1/users/{user_id}/activities [get]
func (h *Handler) UserActivities(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.activities.UserActivities(c.Request.Context(), currentUser(c), c.Param("user_id"), q.Page, q.Size)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, pageOf(page))
}
