package http

import (
	"github.com/gin-gonic/gin"

	"budgetdash/internal/core"
)

// @Summary List transactions
// @Description Transactions ordered by date, optionally filtered by an inclusive date range, category, type and fixed flag
// @Tags transactions
// @Produce json
// @Param startDate query string false "Inclusive lower bound (YYYY-MM-DD)"
// @Param endDate query string false "Inclusive upper bound (YYYY-MM-DD)"
// @Param categoryId query string false "Category id"
// @Param type query string false "expense, income or cc_payment"
// @Param isFixed query bool false "Only fixed or only variable transactions"
// @Success 200 {object} Envelope{data=[]core.Transaction}
// @Failure 400 {object} Envelope
// @Router /transactions [get]
func (s *Server) handleListTransactions(c *gin.Context) {
	var q transactionQuery
	if err := bindQuery(c, &q); err != nil {
		writeError(c, err)
		return
	}
	filter, err := q.filter()
	if err != nil {
		writeError(c, err)
		return
	}
	txs, err := s.svc.Transactions.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	OK(c, txs)
}

// @Summary Get a transaction
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} Envelope{data=core.Transaction}
// @Failure 404 {object} Envelope
// @Router /transactions/{id} [get]
func (s *Server) handleGetTransaction(c *gin.Context) {
	tx, err := s.svc.Transactions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	OK(c, tx)
}

// @Summary Create a transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Param transaction body transactionRequest true "Transaction"
// @Success 201 {object} Envelope{data=core.Transaction}
// @Failure 400 {object} Envelope
// @Router /transactions [post]
func (s *Server) handleCreateTransaction(c *gin.Context) {
	var req transactionRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	tx, err := s.svc.Transactions.Create(c.Request.Context(), req.draft())
	if err != nil {
		writeError(c, err)
		return
	}
	Created(c, tx)
}

// @Summary Create a recurring series
// @Description Creates one fixed transaction per month sharing a new group id. Days past the end of a month are clamped.
// @Tags transactions
// @Accept json
// @Produce json
// @Param series body recurringRequest true "Base transaction and number of months"
// @Success 201 {object} Envelope{data=[]core.Transaction}
// @Failure 400 {object} Envelope
// @Router /transactions/recurring [post]
func (s *Server) handleCreateRecurring(c *gin.Context) {
	var req recurringRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	txs, err := s.svc.Transactions.CreateRecurring(c.Request.Context(), req.Base.draft(), req.Months)
	if err != nil {
		writeError(c, err)
		return
	}
	Created(c, txs)
}

// @Summary Update a transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param patch body core.TransactionPatch true "Fields to change"
// @Success 200 {object} Envelope{data=core.Transaction}
// @Failure 400 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /transactions/{id} [put]
func (s *Server) handleUpdateTransaction(c *gin.Context) {
	var patch core.TransactionPatch
	if err := bindJSON(c, &patch); err != nil {
		writeError(c, err)
		return
	}
	tx, err := s.svc.Transactions.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	OK(c, tx)
}

// @Summary Delete a transaction
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} Envelope{data=deletedResponse}
// @Failure 404 {object} Envelope
// @Router /transactions/{id} [delete]
func (s *Server) handleDeleteTransaction(c *gin.Context) {
	id := c.Param("id")
	if err := s.svc.Transactions.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	OK(c, deletedResponse{ID: id})
}

// @Summary Update a recurrence group
// @Description Applies the patch to every member, or to members on or after fromDate when scope is future. Dates never change.
// @Tags transactions
// @Accept json
// @Produce json
// @Param groupId path string true "Group ID"
// @Param update body groupUpdateRequest true "Patch and scope"
// @Success 200 {object} Envelope{data=[]core.Transaction}
// @Failure 400 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /transactions/group/{groupId} [put]
func (s *Server) handleUpdateGroup(c *gin.Context) {
	var req groupUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	sel, err := core.NewGroupSelector(req.Scope, req.FromDate)
	if err != nil {
		writeError(c, err)
		return
	}
	txs, err := s.svc.Transactions.UpdateGroup(c.Request.Context(), c.Param("groupId"), sel, req.Updates)
	if err != nil {
		writeError(c, err)
		return
	}
	OK(c, txs)
}

// @Summary Delete a recurrence group
// @Tags transactions
// @Produce json
// @Param groupId path string true "Group ID"
// @Param scope query string false "all (default) or future"
// @Param fromDate query string false "Cutoff for scope future (YYYY-MM-DD)"
// @Success 200 {object} Envelope{data=groupDeletedResponse}
// @Failure 400 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /transactions/group/{groupId} [delete]
func (s *Server) handleDeleteGroup(c *gin.Context) {
	var q groupDeleteQuery
	if err := bindQuery(c, &q); err != nil {
		writeError(c, err)
		return
	}
	from, err := optionalDate("fromDate", q.FromDate)
	if err != nil {
		writeError(c, err)
		return
	}
	sel, err := core.NewGroupSelector(q.Scope, from)
	if err != nil {
		writeError(c, err)
		return
	}
	n, err := s.svc.Transactions.DeleteGroup(c.Request.Context(), c.Param("groupId"), sel)
	if err != nil {
		writeError(c, err)
		return
	}
	OK(c, groupDeletedResponse{Deleted: n})
}
