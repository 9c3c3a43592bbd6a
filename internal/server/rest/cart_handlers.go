package rest

import (
	"net/http"

	"github.com/dmitrijs2005/printpeak/internal/server/models"
	"github.com/gin-gonic/gin"
)

func (s *Server) cartRoutes(api *gin.RouterGroup) {
	g := api.Group("/cart", s.requireSession(false))
	g.GET("/:userId", s.listCart)
	g.POST("/add", s.addToCart)
	g.DELETE("/item/:productId/:userId", s.removeFromCart)
	g.DELETE("/clear/:userId", s.clearCart)
}

type addToCartRequest struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
}

func (s *Server) listCart(c *gin.Context) {
	account, err := s.actingAccount(c, c.Param("userId"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	entries, err := s.svc.Carts.List(c.Request.Context(), account)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if entries == nil {
		entries = []*models.CartEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, badRequest("invalid request body"))
		return
	}

	account, err := s.actingAccount(c, req.UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	entry, already, err := s.svc.Carts.AddItem(c.Request.Context(), account, req.ProductID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if already {
		c.JSON(http.StatusOK, gin.H{"message": "Already in cart", "item": entry})
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) removeFromCart(c *gin.Context) {
	account, err := s.actingAccount(c, c.Param("userId"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	if err := s.svc.Carts.RemoveItem(c.Request.Context(), account, c.Param("productId")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

func (s *Server) clearCart(c *gin.Context) {
	account, err := s.actingAccount(c, c.Param("userId"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	if err := s.svc.Carts.Clear(c.Request.Context(), account); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
