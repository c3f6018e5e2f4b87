package api

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/shelfgraph/internal/api/handler"
	"github.com/d60-Lab/shelfgraph/internal/middleware"
	"github.com/d60-Lab/shelfgraph/pkg/auth"

	_ "github.com/d60-Lab/shelfgraph/docs"
)

// RouterOptions 路由可选项
type RouterOptions struct {
	ServiceName string
	Signer      *auth.Signer
	Limiter     *middleware.RateLimiter
	Swagger     bool
}

// SetupRouter 注册全部路由
func SetupRouter(h *handler.Handler, opts RouterOptions) *gin.Engine {
	handler.RegisterValidators()

	r := gin.New()
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	r.Use(gin.Recovery())
	if opts.ServiceName != "" {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}
	r.Use(middleware.Logger())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(opts.Limiter))
	v1.Use(middleware.Auth(opts.Signer))
	{
		rel := v1.Group("/relations")
		rel.GET("/requests", h.ListRequests)
		rel.GET("/requests/count", h.CountRequests)
		rel.POST("/requests/:id/approve", h.ApproveRequest)
		rel.POST("/requests/:id/reject", h.RejectRequest)
		rel.POST("/:user_id/follow", h.Follow)
		rel.DELETE("/:user_id/follow", h.Unfollow)
		rel.DELETE("/:user_id/request", h.CancelRequest)
		rel.GET("/:user_id/followers", h.ListFollowers)
		rel.GET("/:user_id/following", h.ListFollowing)
		rel.GET("/:user_id/status", h.Status)

		feed := v1.Group("/feed")
		feed.GET("/following", h.FollowingFeed)
		feed.GET("/everyone", h.EveryoneFeed)

		v1.POST("/contents", h.Publish)
		v1.POST("/contents/:id/like", h.ToggleLike)
		v1.POST("/contents/:id/save", h.ToggleSave)
		v1.POST("/contents/:id/comments", h.AddComment)
		v1.GET("/contents/:id/comments", h.ListComments)
		v1.DELETE("/comments/:id", h.DeleteComment)
		v1.POST("/books/:book_id/finished", h.FinishBook)

		v1.GET("/activities/feed", h.ActivityFeed)
		v1.GET("/users/:user_id/activities", h.UserActivities)

		n := v1.Group("/notifications")
		n.GET("", h.ListNotifications)
		n.GET("/unread-count", h.UnreadCount)
		n.POST("/read-all", h.MarkAllRead)
		n.POST("/:id/read", h.MarkRead)
	}
	return r
}
