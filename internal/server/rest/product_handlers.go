package rest

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/printpeak/internal/server/models"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) productRoutes(api *gin.RouterGroup) {
	g := api.Group("/products")
	g.GET("", s.listProducts)
	g.GET("/:id", s.getProduct)

	admin := g.Group("", s.requireSession(false), s.requireAdmin())
	admin.POST("", s.createProduct)
	admin.PUT("/:id", s.updateProduct)
	admin.DELETE("/:id", s.deleteProduct)
}

func (s *Server) listProducts(c *gin.Context) {
	ps, err := s.svc.Catalog.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	if ps == nil {
		ps = []*models.Product{}
	}
	c.JSON(http.StatusOK, ps)
}

func (s *Server) getProduct(c *gin.Context) {
	p, err := s.svc.Catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) createProduct(c *gin.Context) {
	if err := s.parseForm(c); err != nil {
		s.writeError(c, err)
		return
	}

	var files formFiles
	defer files.Close()

	in := models.ProductInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
	}
	price, err := parsePrice("price", c.PostForm("price"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	in.Price = price

	if in.Image, err = files.image(c, "image"); err != nil {
		s.writeError(c, err)
		return
	}

	p, err := s.svc.Catalog.Create(c.Request.Context(), in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) updateProduct(c *gin.Context) {
	if err := s.parseForm(c); err != nil {
		s.writeError(c, err)
		return
	}

	var files formFiles
	defer files.Close()

	upd := models.ProductUpdate{
		Name:        optionalForm(c, "name"),
		Description: optionalForm(c, "description"),
	}
	if v := optionalForm(c, "price"); v != nil {
		price, err := parsePrice("price", *v)
		if err != nil {
			s.writeError(c, err)
			return
		}
		upd.Price = &price
	}

	var err error
	if upd.Image, err = files.image(c, "image"); err != nil {
		s.writeError(c, err)
		return
	}

	p, err := s.svc.Catalog.Update(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) deleteProduct(c *gin.Context) {
	if err := s.svc.Catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

func (s *Server) exportProducts(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.svc.Catalog.ExportXLSX(c.Request.Context(), &buf); err != nil {
		s.writeError(c, err)
		return
	}

	name := fmt.Sprintf("products-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
