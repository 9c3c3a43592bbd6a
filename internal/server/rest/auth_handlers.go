package rest

import (
	"net/http"

	"github.com/dmitrijs2005/printpeak/internal/server/models"
	"github.com/dmitrijs2005/printpeak/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *Server) authRoutes(api *gin.RouterGroup) {
	g := api.Group("/auth")
	g.POST("/register", s.register)
	g.POST("/login", s.login)
	g.POST("/refresh", s.refresh)

	authed := g.Group("", s.requireSession(false))
	authed.GET("/me", s.me)
	authed.PUT("/update/:id", s.updateProfile)
	authed.PUT("/change-password/:id", s.changePassword)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func authResponse(res *services.AuthResult) gin.H {
	return gin.H{"user": res.User, "token": res.AccessToken, "refreshToken": res.RefreshToken}
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, badRequest("invalid request body"))
		return
	}

	res, err := s.svc.Accounts.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "Registered", "user_id", res.User.ID)
	c.JSON(http.StatusCreated, authResponse(res))
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, badRequest("invalid request body"))
		return
	}

	res, err := s.svc.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse(res))
}

func (s *Server) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		s.writeError(c, badRequest("refreshToken is required"))
		return
	}

	pair, err := s.svc.Accounts.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (s *Server) me(c *gin.Context) {
	u, err := s.svc.Accounts.Get(c.Request.Context(), sessionUserID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (s *Server) updateProfile(c *gin.Context) {
	id, err := s.actingAccount(c, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if err := s.parseForm(c); err != nil {
		s.writeError(c, err)
		return
	}

	var files formFiles
	defer files.Close()

	img, err := files.image(c, "profileImage")
	if err != nil {
		s.writeError(c, err)
		return
	}

	u, err := s.svc.Accounts.UpdateProfile(c.Request.Context(), id, models.ProfileUpdate{
		Name:         optionalForm(c, "name"),
		Email:        optionalForm(c, "email"),
		Address:      optionalForm(c, "address"),
		ProfileImage: img,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (s *Server) changePassword(c *gin.Context) {
	id, err := s.actingAccount(c, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, badRequest("invalid request body"))
		return
	}

	if err := s.svc.Accounts.ChangePassword(c.Request.Context(), id, req.OldPassword, req.NewPassword); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
