package user

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, handler Handler, auth, session, adminOnly gin.HandlerFunc) {
	users := rg.Group("/auth")
	{
		users.POST("/register", handler.Register)
		users.POST("/login", handler.Login)
		users.GET("/user", auth, handler.GetCurrentUser)
		users.GET("/users", auth, adminOnly, handler.ListUsers)
		users.POST("/logout", session, handler.Logout)
	}
}
