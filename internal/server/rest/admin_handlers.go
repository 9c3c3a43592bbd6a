package rest

import (
	"net/http"

	"github.com/dmitrijs2005/printpeak/internal/server/models"
	"github.com/gin-gonic/gin"
)

func (s *Server) adminRoutes(api *gin.RouterGroup) {
	g := api.Group("/admin", s.requireSession(false), s.requireAdmin())

	g.GET("/users", s.adminListUsers)
	g.PUT("/users/:id", s.adminUpdateUser)
	g.DELETE("/users/:id", s.adminDeleteUser)
	g.DELETE("/users", s.adminDeleteUsers)

	g.GET("/orders", s.adminListOrders)
	g.PUT("/orders/:id", s.adminSetOrderStatus)
	g.DELETE("/orders/:id", s.adminDeleteOrder)
	g.DELETE("/orders", s.adminDeleteOrders)

	g.GET("/products", s.listProducts)
	g.GET("/products/export", s.exportProducts)
	g.POST("/products", s.createProduct)
	g.PUT("/products/:id", s.updateProduct)
	g.DELETE("/products/:id", s.deleteProduct)
	g.DELETE("/products", s.adminDeleteProducts)
}

type adminUserUpdate struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	IsAdmin *bool   `json:"isAdmin"`
}

type statusUpdate struct {
	Status string `json:"status"`
}

func (s *Server) adminListUsers(c *gin.Context) {
	us, err := s.svc.Accounts.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, us)
}

func (s *Server) adminUpdateUser(c *gin.Context) {
	var req adminUserUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, badRequest("invalid request body"))
		return
	}

	u, err := s.svc.Accounts.AdminUpdate(c.Request.Context(), c.Param("id"), models.AccountUpdate{
		Name:    req.Name,
		Email:   req.Email,
		IsAdmin: req.IsAdmin,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) adminDeleteUser(c *gin.Context) {
	if err := s.svc.Accounts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

func (s *Server) adminDeleteUsers(c *gin.Context) {
	n, err := s.svc.Accounts.DeleteAllNonAdmin(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Users deleted", "deleted": n})
}

func (s *Server) adminListOrders(c *gin.Context) {
	orders, err := s.svc.Orders.ListAll(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (s *Server) adminSetOrderStatus(c *gin.Context) {
	var req statusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, badRequest("invalid request body"))
		return
	}

	o, err := s.svc.Orders.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) adminDeleteOrder(c *gin.Context) {
	if err := s.svc.Orders.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
}

func (s *Server) adminDeleteOrders(c *gin.Context) {
	n, err := s.svc.Orders.DeleteAll(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Orders deleted", "deleted": n})
}

func (s *Server) adminDeleteProducts(c *gin.Context) {
	n, err := s.svc.Catalog.DeleteAll(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Products deleted", "deleted": n})
}
