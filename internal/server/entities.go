package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	entitydomain "github.com/kliring/reinsadmin/internal/entity/domain"
	portaldomain "github.com/kliring/reinsadmin/internal/portal/domain"
)

func (s *Server) ListEntities(c *gin.Context) {
	items, err := s.store.List(c.Request.Context(), entitydomain.Type(c.Param("type")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetEntity(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid entity id"))
		return
	}

	snap, err := s.store.GetSnapshot(c.Request.Context(), entitydomain.Type(c.Param("type")), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": snap.Model})
}

func (s *Server) CreateContract(c *gin.Context) {
	var req portaldomain.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	contract, err := s.portalSvc.CreateContract(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": contract})
}

func (s *Server) ReviseContract(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid contract id"))
		return
	}

	var req portaldomain.ReviseContractRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ContractID = id

	contract, err := s.portalSvc.ReviseContract(c.Request.Context(), req, actorFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": contract})
}

func (s *Server) ListContractVersions(c *gin.Context) {
	versions, err := s.store.ListContractVersions(c.Request.Context(), c.Param("number"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": versions})
}

func (s *Server) CreateBatch(c *gin.Context) {
	var req portaldomain.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	batch, err := s.portalSvc.CreateBatch(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": batch})
}

func (s *Server) ListBatchDebtors(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid batch id"))
		return
	}
	debtors, err := s.store.DebtorsByBatch(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": debtors})
}

func (s *Server) ListBatchDocuments(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid batch id"))
		return
	}
	docs, err := s.store.DocumentsByBatch(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": docs})
}

func (s *Server) CreateDebtor(c *gin.Context) {
	var req portaldomain.CreateDebtorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	debtor, err := s.portalSvc.CreateDebtor(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": debtor})
}

func (s *Server) CreateDocument(c *gin.Context) {
	var req portaldomain.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	doc, err := s.portalSvc.CreateDocument(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": doc})
}

func (s *Server) CreateNota(c *gin.Context) {
	var req portaldomain.CreateNotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	nota, err := s.portalSvc.CreateNota(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": nota})
}

func (s *Server) CreateDebitCreditNote(c *gin.Context) {
	var req portaldomain.CreateDebitCreditNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	note, err := s.portalSvc.CreateDebitCreditNote(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": note})
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req portaldomain.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	invoice, err := s.portalSvc.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": invoice})
}

func (s *Server) SubmitPaymentIntent(c *gin.Context) {
	var req portaldomain.SubmitPaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	intent, warning, err := s.portalSvc.SubmitPaymentIntent(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := gin.H{"data": intent}
	if warning != nil {
		resp["warning"] = warning
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) RecordPayment(c *gin.Context) {
	var req portaldomain.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	payment, err := s.portalSvc.RecordPayment(c.Request.Context(), req, actorFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": payment})
}

func (s *Server) ReconcileInvoice(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid invoice id"))
		return
	}
	recon, err := s.reconciler.Run(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": recon})
}

func (s *Server) CreateClaim(c *gin.Context) {
	var req portaldomain.CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	claim, err := s.portalSvc.CreateClaim(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": claim})
}

func (s *Server) CreateSubrogation(c *gin.Context) {
	var req portaldomain.CreateSubrogationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	sub, err := s.portalSvc.CreateSubrogation(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": sub})
}
