package http

import (
	"github.com/gin-gonic/gin"

	"budgetdash/internal/core"
)

// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {object} Envelope{data=[]core.Category}
// @Router /categories [get]
func (s *Server) handleListCategories(c *gin.Context) {
	cats, err := s.svc.Categories.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	OK(c, cats)
}

// @Summary Get a category
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} Envelope{data=core.Category}
// @Failure 404 {object} Envelope
// @Router /categories/{id} [get]
func (s *Server) handleGetCategory(c *gin.Context) {
	cat, err := s.svc.Categories.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	OK(c, cat)
}

// @Summary Create a category
// @Tags categories
// @Accept json
// @Produce json
// @Param category body categoryRequest true "Category"
// @Success 201 {object} Envelope{data=core.Category}
// @Failure 400 {object} Envelope
// @Router /categories [post]
func (s *Server) handleCreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	cat, err := s.svc.Categories.Create(c.Request.Context(), req.draft())
	if err != nil {
		writeError(c, err)
		return
	}
	Created(c, cat)
}

// @Summary Update a category
// @Tags categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param patch body core.CategoryPatch true "Fields to change"
// @Success 200 {object} Envelope{data=core.Category}
// @Failure 400 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /categories/{id} [put]
func (s *Server) handleUpdateCategory(c *gin.Context) {
	var patch core.CategoryPatch
	if err := bindJSON(c, &patch); err != nil {
		writeError(c, err)
		return
	}
	cat, err := s.svc.Categories.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	OK(c, cat)
}

// @Summary Delete a category
// @Description Transactions in the category are kept and become uncategorized
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} Envelope{data=deletedResponse}
// @Failure 404 {object} Envelope
// @Router /categories/{id} [delete]
func (s *Server) handleDeleteCategory(c *gin.Context) {
	id := c.Param("id")
	if err := s.svc.Categories.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	OK(c, deletedResponse{ID: id})
}
