package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davicafu/dddlab/internal/bookstore/application"
	"github.com/davicafu/dddlab/internal/bookstore/domain"
)

// CustomerHandler encapsula los endpoints HTTP relacionados con Customer.
type CustomerHandler struct {
	service *application.CustomerService
}

func NewCustomerHandler(service *application.CustomerService) *CustomerHandler {
	return &CustomerHandler{service: service}
}

// ---------------- Handlers ----------------

// RegisterCustomer endpoint POST /customers
func (h *CustomerHandler) RegisterCustomer(c *gin.Context) {
	var req struct {
		Name  string `json:"name" binding:"required"`
		Email string `json:"email" binding:"required,email"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer, err := h.service.RegisterCustomer(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCustomer):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrCustomerAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"error": "customer already exists"})
		default:
			// Fallo de persistencia o de commit: la transacción ya se
			// revirtió; aquí solo se traduce a respuesta fallida.
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, customer)
}

// GetCustomer endpoint GET /customers/:id
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
		return
	}

	customer, err := h.service.GetCustomer(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, customer)
}
