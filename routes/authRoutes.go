package routes

import (
	"github.com/Kariqs/megano-api/controllers"
	"github.com/Kariqs/megano-api/middlewares"
	"github.com/gin-gonic/gin"
)

func AuthRoutes(server *gin.Engine) {
	auth := server.Group("/api")
	{
		auth.POST("/sign-up", controllers.SignUp)
		auth.POST("/sign-in", controllers.SignIn)
		auth.POST("/sign-out", controllers.SignOut)
	}

	profile := server.Group("/api/profile", middlewares.RequireAuth())
	{
		profile.GET("", controllers.GetProfile)
		profile.POST("", controllers.UpdateProfile)
		profile.POST("/password", controllers.ChangePassword)
		profile.POST("/avatar", controllers.UploadAvatar)
	}
}
