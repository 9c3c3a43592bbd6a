package rest

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/printpeak/internal/server/models"
	"github.com/gin-gonic/gin"
)

const maxWebhookBytes = 64 << 10

func (s *Server) orderRoutes(api *gin.RouterGroup) {
	g := api.Group("/orders")
	g.POST("/webhook", s.paymentWebhook)

	if s.live != nil {
		g.GET("/ws", s.requireSession(true), s.requireAdmin(), gin.WrapF(s.live))
	}

	authed := g.Group("", s.requireSession(false))
	authed.POST("/custom", s.placeDirectOrder)
	authed.POST("/create-stripe-session", s.placeCardOrder)
	authed.POST("/confirm", s.confirmPayment)
	authed.GET("/user/:userId", s.listAccountOrders)
	authed.GET("/summary", s.summary)
}

type confirmRequest struct {
	SessionID string `json:"sessionId"`
}

// orderRequest reads the multipart order form. The caller must close files.
func (s *Server) orderRequest(c *gin.Context, files *formFiles) (models.OrderRequest, error) {
	var req models.OrderRequest
	if err := s.parseForm(c); err != nil {
		return req, err
	}

	account, err := s.actingAccount(c, c.PostForm("userId"))
	if err != nil {
		return req, err
	}

	req = models.OrderRequest{
		AccountID: account,
		ProductID: c.PostForm("productId"),
		Size:      c.PostForm("size"),
		Method:    c.PostForm("method"),
		Address:   c.PostForm("address"),
	}
	if q := strings.TrimSpace(c.PostForm("quantity")); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			return req, badRequest("quantity must be an integer")
		}
		if n < 1 {
			return req, badRequest("quantity must be positive")
		}
		req.Quantity = n
	}

	req.Design, err = files.image(c, "design")
	return req, err
}

func (s *Server) placeDirectOrder(c *gin.Context) {
	var files formFiles
	defer files.Close()

	req, err := s.orderRequest(c, &files)
	if err != nil {
		s.writeError(c, err)
		return
	}

	o, err := s.svc.Checkout.PlaceDirectOrder(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (s *Server) placeCardOrder(c *gin.Context) {
	var files formFiles
	defer files.Close()

	req, err := s.orderRequest(c, &files)
	if err != nil {
		s.writeError(c, err)
		return
	}

	res, err := s.svc.Checkout.PlaceCardOrder(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) confirmPayment(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, badRequest("invalid request body"))
		return
	}

	o, err := s.svc.Checkout.ConfirmPayment(c.Request.Context(), req.SessionID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if _, err := s.actingAccount(c, o.UserID); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) paymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		s.writeError(c, badRequest("unreadable body"))
		return
	}

	err = s.svc.Checkout.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if statusFor(err) == http.StatusBadRequest {
			s.logger.Warn(c.Request.Context(), "rejected payment webhook", "error", err)
		}
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (s *Server) listAccountOrders(c *gin.Context) {
	account, err := s.actingAccount(c, c.Param("userId"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	orders, err := s.svc.Checkout.OrdersForAccount(c.Request.Context(), account)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (s *Server) summary(c *gin.Context) {
	sum, err := s.svc.Checkout.Summary(c.Request.Context(), sessionUserID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if sum.Orders == nil {
		sum.Orders = []*models.Order{}
	}
	c.JSON(http.StatusOK, sum)
}
