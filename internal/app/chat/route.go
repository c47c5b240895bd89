package chat

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the chat endpoints behind auth. Admin routes check the
// role in the service so non-admins get 401 rather than 404.
func RegisterRoutes(rg *gin.RouterGroup, handler Handler, auth gin.HandlerFunc) {
	chat := rg.Group("/chat", auth)
	{
		chat.GET("", handler.ListMine)
		chat.POST("", handler.Send)
		chat.GET("/admin/all", handler.ListAll)
		chat.GET("/admin/conversations", handler.ListConversations)
	}
}
