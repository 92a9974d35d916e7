package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"truthordare/handlers"
	"truthordare/metrics"
	"truthordare/middleware"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Category *handlers.CategoryHandler
	Question *handlers.QuestionHandler
	Room     *handlers.RoomHandler
	Member   *handlers.MemberHandler
	WS       *handlers.WSHandler
}

func SetupRoutes(router *gin.Engine, h Handlers, auth middleware.Authenticator) {
	requireAuth := middleware.AuthMiddleware(auth)
	optionalAuth := middleware.OptionalAuth(auth)

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/sign-up/email", h.Auth.SignUp)
			authRoutes.POST("/sign-in/email", h.Auth.SignIn)
			authRoutes.POST("/sign-out", requireAuth, h.Auth.SignOut)
			authRoutes.GET("/get-session", requireAuth, h.Auth.GetSession)
		}

		categories := api.Group("/categories")
		{
			categories.POST("", h.Category.CreateCategory)
			categories.GET("", h.Category.GetCategories)
			categories.GET("/get-by-slug/:slug", h.Category.GetCategoryBySlug)
			categories.GET("/get-by-id/:id", h.Category.GetCategoryByID)
			categories.PUT("/:id", requireAuth, h.Category.UpdateCategory)
			categories.DELETE("/:id", requireAuth, h.Category.DeleteCategory)
		}

		questions := api.Group("/questions")
		{
			questions.GET("/all", h.Question.GetAllQuestions)
			questions.GET("/by-category/:categorySlug", h.Question.GetQuestionsByCategory)
			questions.GET("/by-questionId/:id", h.Question.GetQuestionByID)
			questions.POST("", requireAuth, h.Question.CreateQuestion)
			questions.PUT("/:id", requireAuth, h.Question.UpdateQuestion)
			questions.DELETE("/:id", requireAuth, h.Question.DeleteQuestion)
		}

		rooms := api.Group("/rooms")
		{
			rooms.GET("/get-room-by-id/:id", optionalAuth, h.Room.GetRoomByID)
			rooms.POST("", requireAuth, h.Room.CreateRoom)
			rooms.GET("", requireAuth, h.Room.GetAllRooms)
			rooms.GET("/user/:userId", requireAuth, h.Room.GetRoomsByUser)
			rooms.PUT("/:id", requireAuth, h.Room.UpdateRoom)
			rooms.DELETE("/:id", requireAuth, h.Room.DeleteRoom)
		}

		members := api.Group("/room-member")
		members.Use(requireAuth)
		{
			members.POST("/join-room/:roomId", h.Member.JoinPublicRoom)
			members.POST("/join-private", h.Member.JoinPrivateRoom)
			members.POST("/leave-room/:roomId", h.Member.LeaveRoom)
			members.DELETE("/:id/members/:memberId", h.Member.RemoveMember)
			members.GET("/get-room-members/:roomId", h.Member.GetRoomMembers)
			members.GET("/members/user/:userId", h.Member.GetUserRooms)
		}
	}

	// Room event stream; browsers pass the session token as ?token=.
	router.GET("/ws/rooms/:roomId", middleware.WebsocketAuth(auth), h.WS.ServeRoom)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
}
