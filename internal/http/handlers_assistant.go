package http

import (
	"github.com/gin-gonic/gin"
)

// @Summary Run a natural-language request
// @Description Maps free text onto one budget operation and executes it
// @Tags assistant
// @Accept json
// @Produce json
// @Param intent body intentRequest true "Request text"
// @Success 200 {object} Envelope{data=assistant.Result}
// @Failure 400 {object} Envelope
// @Router /assistant/intent [post]
func (s *Server) handleIntent(c *gin.Context) {
	var req intentRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	res, err := s.assistant.Handle(c.Request.Context(), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	OK(c, res)
}
