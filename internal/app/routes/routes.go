package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/societyhub/internal/app/controllers"
	"github.com/yigit/societyhub/internal/middleware"
	"github.com/yigit/societyhub/internal/pkg/websocket"
)

// Controllers groups every HTTP handler set mounted by SetupRouter
type Controllers struct {
	Auth       *controllers.AuthController
	User       *controllers.UserController
	Society    *controllers.SocietyController
	Membership *controllers.MembershipController
	Event      *controllers.EventController
	News       *controllers.NewsController
	Payment    *controllers.PaymentController
	Widget     *controllers.WidgetController
	Poll       *controllers.PollController
	Panel      *controllers.PanelController
	Search     *controllers.SearchController
	Admin      *controllers.AdminController
	LiveFeed   *websocket.Handler
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c *Controllers, authMiddleware *middleware.AuthMiddleware) {
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.Auth.Register)
		auth.GET("/activate", c.Auth.Activate)
		auth.GET("/reverify", c.Auth.Reverify)
		auth.POST("/resend-activation", c.Auth.ResendActivation)
		auth.POST("/login", c.Auth.Login)
		auth.POST("/refresh", c.Auth.RefreshToken)
		auth.POST("/logout", c.Auth.Logout)
	}

	// Signed by the payment gateway, not by a user token
	v1.POST("/payments/webhook", c.Payment.Webhook)

	// --- Public reads; a token, when sent, personalises the response ---
	public := v1.Group("")
	public.Use(authMiddleware.OptionalAuth())
	{
		public.GET("/search", c.Search.Search)

		public.GET("/societies", c.Society.ListSocieties)
		public.GET("/societies/:id", c.Society.GetSociety)
		public.GET("/societies/:id/members", c.Membership.ListMembers)
		public.GET("/societies/:id/widgets", c.Widget.ListWidgets)
		public.GET("/societies/:id/polls", c.Poll.ListPolls)
		public.GET("/societies/:id/galleries", c.Panel.ListGalleries)
		public.GET("/societies/:id/comments", c.Panel.ListComments)
		public.GET("/societies/:id/matches", c.Panel.ListMatches)
		public.GET("/societies/:id/leaderboard", c.Panel.Leaderboard)
		public.GET("/societies/:id/hall-of-fame", c.Panel.ListHallOfFame)

		public.GET("/events", c.Event.ListEvents)
		public.GET("/events/:id", c.Event.GetEvent)

		public.GET("/news", c.News.ListPublished)
		public.GET("/news/:id", c.News.GetNews)

		public.GET("/polls/:id", c.Poll.GetPoll)
		public.GET("/galleries/:galleryId", c.Panel.GetGallery)
		public.GET("/matches/:matchId", c.Panel.GetMatch)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth(), authMiddleware.ActiveAccountRequired())
	{
		profile := authenticated.Group("/profile")
		{
			profile.GET("", c.User.GetProfile)
			profile.PUT("", c.User.UpdateProfile)
			profile.GET("/memberships", c.User.MyMemberships)
			profile.GET("/registrations", c.User.MyRegistrations)
			profile.GET("/payments", c.User.MyPayments)
		}

		societies := authenticated.Group("/societies")
		{
			societies.POST("", c.Society.CreateSociety)
			societies.PUT("/:id", c.Society.UpdateSociety)
			societies.DELETE("/:id", c.Society.RequestDeletion)
			societies.POST("/:id/logo", c.Society.UploadLogo)
			societies.POST("/:id/transfer", c.Society.TransferManagement)
			societies.GET("/:id/live", c.LiveFeed.HandleConnection)

			societies.POST("/:id/join", c.Membership.Join)
			societies.POST("/:id/leave", c.Membership.Leave)
			societies.PUT("/:id/members/:membershipId/approve", c.Membership.Approve)
			societies.PUT("/:id/members/:membershipId/reject", c.Membership.Reject)
			societies.PUT("/:id/members/:membershipId/role", c.Membership.ChangeRole)
			societies.DELETE("/:id/members/:membershipId", c.Membership.Remove)

			societies.POST("/:id/news", c.News.CreateNews)
			societies.GET("/:id/news/drafts", c.News.ListDrafts)

			societies.POST("/:id/widgets", c.Widget.CreateWidget)
			societies.PUT("/:id/widgets/order", c.Widget.ReorderWidgets)
			societies.PUT("/:id/widgets/:widgetId", c.Widget.UpdateWidget)
			societies.DELETE("/:id/widgets/:widgetId", c.Widget.DeleteWidget)

			societies.POST("/:id/polls", c.Poll.CreatePoll)
			societies.POST("/:id/galleries", c.Panel.CreateGallery)
			societies.POST("/:id/comments", c.Panel.PostComment)
			societies.DELETE("/:id/comments/:commentId", c.Panel.DeleteComment)
			societies.POST("/:id/matches", c.Panel.CreateMatch)
			societies.POST("/:id/hall-of-fame", c.Panel.AwardHallOfFame)
			societies.DELETE("/:id/hall-of-fame/:entryId", c.Panel.DeleteHallOfFame)
		}

		events := authenticated.Group("/events")
		{
			events.POST("", c.Event.CreateEvent)
			events.PUT("/:id", c.Event.UpdateEvent)
			events.DELETE("/:id", c.Event.DeleteEvent)
			events.POST("/:id/register", c.Event.Register)
			events.DELETE("/:id/register", c.Event.CancelRegistration)
			events.GET("/:id/registrations", c.Event.ListRegistrations)
			events.DELETE("/:id/registrations/:registrationId", c.Event.RejectRegistration)
		}

		news := authenticated.Group("/news")
		{
			news.PUT("/:id", c.News.UpdateNews)
			news.DELETE("/:id", c.News.DeleteNews)
			news.POST("/:id/publish", c.News.Publish)
			news.POST("/:id/unpublish", c.News.Unpublish)
			news.POST("/:id/image", c.News.UploadImage)
		}

		polls := authenticated.Group("/polls")
		{
			polls.POST("/vote", c.Poll.Vote)
			polls.POST("/:id/close", c.Poll.ClosePoll)
			polls.DELETE("/:id", c.Poll.DeletePoll)
		}

		galleries := authenticated.Group("/galleries")
		{
			galleries.DELETE("/:galleryId", c.Panel.DeleteGallery)
			galleries.POST("/:galleryId/images", c.Panel.UploadImage)
			galleries.DELETE("/:galleryId/images/:imageId", c.Panel.DeleteImage)
		}

		matches := authenticated.Group("/matches")
		{
			matches.DELETE("/:matchId", c.Panel.DeleteMatch)
			matches.POST("/:matchId/ratings", c.Panel.RateMember)
		}

		authenticated.POST("/payments/checkout", c.Payment.StartCheckout)

		// --- Staff only ---
		admin := authenticated.Group("/admin")
		admin.Use(authMiddleware.StaffRequired())
		{
			admin.GET("/societies", c.Admin.ListSocieties)
			admin.PUT("/societies/:id/approve", c.Admin.ApproveSociety)
			admin.PUT("/societies/:id/reject", c.Admin.RejectSociety)
			admin.PUT("/societies/:id/deletion/approve", c.Admin.ApproveDeletion)
			admin.PUT("/societies/:id/deletion/decline", c.Admin.DeclineDeletion)
			admin.GET("/users", c.Admin.ListUsers)
			admin.POST("/users/sweep", c.Admin.SweepVerification)
		}
	}
}
