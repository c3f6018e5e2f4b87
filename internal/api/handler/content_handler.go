package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/shelfgraph/internal/model"
	"github.com/d60-Lab/shelfgraph/internal/service"
	"github.com/d60-Lab/shelfgraph/pkg/response"
)

type publishRequest struct {
	Kind          string `json:"kind" binding:"required,content_kind"`
	BookID        string `json:"book_id"`
	BookTitle     string `json:"book_title" binding:"max=255"`
	Body          string `json:"body" binding:"required"`
	FollowersOnly bool   `json:"followers_only"`
}

type finishBookRequest struct {
	BookTitle string `json:"book_title" binding:"required,max=255"`
}

type commentRequest struct {
	Body     string  `json:"body" binding:"required,max=5000"`
	ParentID *string `json:"parent_id"`
}

// Publish 发布书评 / 读书感想，粉丝通知异步扇出
// @Summary 发布内容
// @Tags 内容
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body publishRequest true "内容"
// @Success 200 {object} response.Response{data=model.Content}
// @Failure 400 {object} response.Response
// @Router /api/v1/contents [post]
func (h *Handler) Publish(c *gin.Context) {
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	content, err := h.publisher.Publish(c.Request.Context(), service.PublishInput{
		AuthorID:      currentUser(c),
		Kind:          model.ContentKind(req.Kind),
		BookID:        req.BookID,
		BookTitle:     req.BookTitle,
		Body:          req.Body,
		FollowersOnly: req.FollowersOnly,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, content)
}

// FinishBook 读完一本书，通知粉丝
// @Summary 读完书籍
// @Tags 内容
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param book_id path string true "书籍ID"
// @Param request body finishBookRequest true "书名"
// @Success 200 {object} response.Response
// @Router /api/v1/books/{book_id}/finished [post]
func (h *Handler) FinishBook(c *gin.Context) {
	var req finishBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.publisher.AnnounceBookFinished(c.Request.Context(), currentUser(c), c.Param("book_id"), req.BookTitle); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// ToggleLike 点赞 / 取消点赞
// @Summary 切换点赞
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param id path string true "内容ID"
// @Success 200 {object} response.Response{data=map[string]bool}
// @Failure 404 {object} response.Response
// @Router /api/v1/contents/{id}/like [post]
func (h *Handler) ToggleLike(c *gin.Context) {
	liked, err := h.engagement.ToggleLike(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"liked": liked})
}

// ToggleSave 收藏 / 取消收藏（仅 reflection）
// @Summary 切换收藏
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param id path string true "内容ID"
// @Success 200 {object} response.Response{data=map[string]bool}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/contents/{id}/save [post]
func (h *Handler) ToggleSave(c *gin.Context) {
	saved, err := h.engagement.ToggleSave(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"saved": saved})
}

// AddComment 评论或回复
// @Summary 发表评论
// @Tags 互动
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "内容ID"
// @Param request body commentRequest true "评论"
// @Success 200 {object} response.Response{data=model.Comment}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/contents/{id}/comments [post]
func (h *Handler) AddComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	comment, err := h.engagement.AddComment(c.Request.Context(), c.Param("id"), currentUser(c), req.Body, req.ParentID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, comment)
}

// ListComments 一级评论分页，附带回复
// @Summary 评论列表
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param id path string true "内容ID"
// @Param page query int false "页码（从 0 开始）" default(0)
// @Param size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=response.Page}
// @Router /api/v1/contents/{id}/comments [get]
func (h *Handler) ListComments(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.engagement.ListComments(c.Request.Context(), c.Param("id"), q.Page, q.Size)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, pageOf(page))
}

// DeleteComment 删除评论（评论作者或内容作者）
// @Summary 删除评论
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param id path string true "评论ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/comments/{id} [delete]
func (h *Handler) DeleteComment(c *gin.Context) {
	if err := h.engagement.DeleteComment(c.Request.Context(), c.Param("id"), currentUser(c)); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}
