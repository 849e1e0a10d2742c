package router

import (
	"net/http"

	"github.com/asadsehto/CareToShare/internal/handler"
	"github.com/asadsehto/CareToShare/internal/middleware"
	"github.com/asadsehto/CareToShare/internal/service"

	"github.com/gin-gonic/gin"
)

func InitRouter(notifier *service.JoinNotifier) *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = 32 << 20

	auth := handler.NewAuthHandler()
	user := handler.NewUserHandler()
	class := handler.NewClassHandler(service.NewClassService(notifier))
	file := handler.NewFileHandler()
	comment := handler.NewCommentHandler()
	search := handler.NewSearchHandler()
	device := handler.NewDeviceHandler()

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 认证相关接口
	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/google/token", auth.GoogleLogin)
		authGroup.GET("/verify", middleware.AuthMiddleware(), auth.Me)
		authGroup.POST("/logout", middleware.AuthMiddleware(), auth.Logout)
	}

	// token相关接口
	tokenGroup := r.Group("/api/token")
	{
		tokenGroup.POST("/refresh", auth.Refresh)
	}

	// 用户相关接口
	userGroup := r.Group("/api/users")
	{
		userGroup.PUT("/profile", middleware.AuthMiddleware(), user.UpdateProfile)
		userGroup.GET("/:id", user.Profile)
	}

	// 班级相关接口
	classGroup := r.Group("/api/classes")
	classGroup.Use(middleware.AuthMiddleware())
	{
		classGroup.POST("", class.Create)
		classGroup.GET("/discover", class.Discover)
		classGroup.GET("/my", class.MyClasses)
		classGroup.GET("/code/:code", class.GetByCode)
		classGroup.POST("/join-by-code", class.JoinByCode)
		classGroup.GET("/:id", class.Get)
		classGroup.PUT("/:id", class.Update)
		classGroup.DELETE("/:id", class.Delete)
		classGroup.POST("/:id/join", class.Join)
		classGroup.POST("/:id/request", class.RequestJoin)
		classGroup.POST("/:id/approve/:userId", class.Approve)
		classGroup.POST("/:id/reject/:userId", class.Reject)
		classGroup.POST("/:id/add-cr/:userId", class.AddCR)
		classGroup.POST("/:id/remove-cr/:userId", class.RemoveCR)
		classGroup.POST("/:id/remove-member/:userId", class.RemoveMember)
		classGroup.POST("/:id/leave", class.Leave)
		classGroup.GET("/:id/files", class.Files)
	}

	// 文件相关接口，公共列表可匿名访问
	fileGroup := r.Group("/api/files")
	{
		fileGroup.GET("/recent", file.Recent)
		fileGroup.GET("/popular", file.Popular)
		fileGroup.GET("/category", file.ByCategory)
		fileGroup.GET("/:id", middleware.OptionalAuth(), file.Get)
		fileGroup.GET("/:id/like-status", middleware.OptionalAuth(), file.LikeStatus)
		fileGroup.GET("/:id/comments", comment.List)
		fileGroup.POST("/:id/download", middleware.OptionalAuth(), file.Download)

		authed := fileGroup.Group("")
		authed.Use(middleware.AuthMiddleware())
		{
			authed.POST("/upload", file.Upload)
			authed.POST("/share-photo", file.SharePhoto)
			authed.GET("/my-files", user.MyFiles)
			authed.GET("/my-photos", file.GooglePhotos)
			authed.PUT("/:id", file.Update)
			authed.DELETE("/:id", file.Delete)
			authed.POST("/:id/like", file.ToggleLike)
			authed.POST("/:id/comments", comment.Add)
		}
	}

	// 评论删除（评论 ID 独立于文件路径）
	commentGroup := r.Group("/api/comments")
	commentGroup.Use(middleware.AuthMiddleware())
	{
		commentGroup.DELETE("/:id", comment.Delete)
	}

	// 搜索和统计
	r.GET("/api/search", search.Search)
	r.GET("/api/stats", search.Stats)

	// 设备照片同步（配套移动端，无需登录态）
	deviceGroup := r.Group("/api/device-sync")
	{
		deviceGroup.POST("/register", device.Register)
		deviceGroup.POST("/photos", device.SyncPhotos)
		deviceGroup.GET("/devices", device.List)
		deviceGroup.GET("/devices/:deviceId", device.Get)
		deviceGroup.GET("/devices/:deviceId/photos", device.Photos)
		deviceGroup.GET("/photo/:photoId", device.Photo)
		deviceGroup.GET("/stats", device.Stats)
	}

	return r
}
