package http

import "github.com/gin-gonic/gin"

func RegisterCustomerRoutes(r *gin.Engine, handler *CustomerHandler) {
	customers := r.Group("/customers")
	{
		customers.POST("/", handler.RegisterCustomer)
		customers.GET("/:id", handler.GetCustomer)
	}
}
