package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/shelfgraph/pkg/response"
)

// Follow 关注用户；私密账号生成关注申请
// @Summary 关注用户
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "目标用户ID"
// @Success 200 {object} response.Response{data=map[string]string} "outcome: followed / requested / already_following / already_requested"
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/relations/{user_id}/follow [post]
func (h *Handler) Follow(c *gin.Context) {
	outcome, err := h.relService.FollowUser(c.Request.Context(), currentUser(c), c.Param("user_id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"outcome": outcome})
}

// Unfollow 取消关注
// @Summary 取消关注
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "目标用户ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/relations/{user_id}/follow [delete]
func (h *Handler) Unfollow(c *gin.Context) {
	if err := h.relService.UnfollowUser(c.Request.Context(), currentUser(c), c.Param("user_id")); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// CancelRequest 撤回自己发出的关注申请
// @Summary 撤回关注申请
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "目标用户ID"
// @Success 200 {object} response.Response
// @Router /api/v1/relations/{user_id}/request [delete]
func (h *Handler) CancelRequest(c *gin.Context) {
	if err := h.relService.CancelFollowRequest(c.Request.Context(), currentUser(c), c.Param("user_id")); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// ListRequests 待处理的关注申请
// @Summary 待处理关注申请
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码（从 0 开始）" default(0)
// @Param size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=response.Page}
// @Router /api/v1/relations/requests [get]
func (h *Handler) ListRequests(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.relService.ListPendingRequests(c.Request.Context(), currentUser(c), q.Page, q.Size)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, pageOf(page))
}

// CountRequests 待处理申请数
// @Summary 待处理申请数
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]int64}
// @Router /api/v1/relations/requests/count [get]
func (h *Handler) CountRequests(c *gin.Context) {
	n, err := h.relService.CountPendingRequests(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"count": n})
}

// ApproveRequest 通过关注申请
// @Summary 通过关注申请
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param id path string true "申请ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/relations/requests/{id}/approve [post]
func (h *Handler) ApproveRequest(c *gin.Context) {
	if err := h.relService.ApproveFollowRequest(c.Request.Context(), c.Param("id"), currentUser(c)); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// RejectRequest 拒绝关注申请
// @Summary 拒绝关注申请
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param id path string true "申请ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/relations/requests/{id}/reject [post]
func (h *Handler) RejectRequest(c *gin.Context) {
	if err := h.relService.RejectFollowRequest(c.Request.Context(), c.Param("id"), currentUser(c)); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// ListFollowing 查询某用户关注的人
// @Summary 查询关注列表
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "用户ID"
// @Param page query int false "页码（从 0 开始）" default(0)
// @Param size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=response.Page}
// @Router /api/v1/relations/{user_id}/following [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.relService.ListFollowing(c.Request.Context(), currentUser(c), c.Param("user_id"), q.Page, q.Size)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, pageOf(page))
}

// ListFollowers 查询某用户的粉丝
// @Summary 查询粉丝列表
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "用户ID"
// @Param page query int false "页码（从 0 开始）" default(0)
// @Param size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=response.Page}
// @Router /api/v1/relations/{user_id}/followers [get]
func (h *Handler) ListFollowers(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.relService.ListFollowers(c.Request.Context(), currentUser(c), c.Param("user_id"), q.Page, q.Size)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, pageOf(page))
}

// Status 当前用户与目标用户的关系
// @Summary 关系状态
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "目标用户ID"
// @Success 200 {object} response.Response{data=map[string]string}
// @Router /api/v1/relations/{user_id}/status [get]
func (h *Handler) Status(c *gin.Context) {
	st, err := h.relService.RelationStatus(c.Request.Context(), currentUser(c), c.Param("user_id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"status": st})
}
