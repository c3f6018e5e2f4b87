package handler

import (
	"errors"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/d60-Lab/shelfgraph/internal/middleware"
	"github.com/d60-Lab/shelfgraph/internal/model"
	"github.com/d60-Lab/shelfgraph/internal/service"
	"github.com/d60-Lab/shelfgraph/pkg/response"
)

// Handler 聚合所有 HTTP 接口依赖
type Handler struct {
	db          *gorm.DB
	rdb         *redis.Client
	relService  service.RelationshipService
	feedService *service.FeedService
	publisher   *service.Publisher
	engagement  *service.EngagementService
	inbox       *service.InboxService
	activities  *service.ActivityService
}

// Deps 构造 Handler 的依赖；rdb 可以为 nil
type Deps struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Relations  service.RelationshipService
	Feed       *service.FeedService
	Publisher  *service.Publisher
	Engagement *service.EngagementService
	Inbox      *service.InboxService
	Activities *service.ActivityService
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		db:          d.DB,
		rdb:         d.Redis,
		relService:  d.Relations,
		feedService: d.Feed,
		publisher:   d.Publisher,
		engagement:  d.Engagement,
		inbox:       d.Inbox,
		activities:  d.Activities,
	}
}

type pageQuery struct {
	Page int `form:"page" binding:"min=0,max=1000000"`
	Size int `form:"size,default=20" binding:"min=1,max=100"`
}

func pageOf[T any](p service.Page[T]) response.Page {
	return response.Page{Items: p.Items, Page: p.Page, Size: p.Size, Total: p.Total, Approximate: p.Approximate}
}

// fail 把 service 哨兵错误映射为 HTTP 状态码
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrSelfFollow), errors.Is(err, service.ErrInvalidArgument):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNotAuthorized):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrRequestNotPending):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

func currentUser(c *gin.Context) string { return middleware.CurrentUser(c) }

var registerOnce sync.Once

// RegisterValidators 注册 content_kind / feed_sort 校验规则
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("content_kind", func(fl validator.FieldLevel) bool {
			return model.ContentKind(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("feed_sort", func(fl validator.FieldLevel) bool {
			s := service.Sort(fl.Field().String())
			return s == service.SortRelevant || s == service.SortRecent
		})
	})
}
