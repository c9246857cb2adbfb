package handlers

import (
	"net/http"
	"strings"

	"grc-backend/internal/database"
	"grc-backend/internal/models"

	"github.com/gin-gonic/gin"
)

func ListCustomers(c *gin.Context) {
	var customers []models.Customer
	if err := database.DB.Order("name asc").Find(&customers).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

type customerForm struct {
	Name         string `json:"name"`
	OrgType      string `json:"orgType"`
	Industry     string `json:"industry"`
	ContactName  string `json:"contactName"`
	ContactEmail string `json:"contactEmail"`
	ContactPhone string `json:"contactPhone"`
	Notes        string `json:"notes"`
}

func CreateCustomer(c *gin.Context) {
	var form customerForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	form.Name = strings.TrimSpace(form.Name)
	if len(form.Name) < 3 {
		badRequest(c, "customer name must be at least 3 characters")
		return
	}

	customer := models.Customer{
		Name:         form.Name,
		OrgType:      form.OrgType,
		Industry:     form.Industry,
		ContactName:  form.ContactName,
		ContactEmail: form.ContactEmail,
		ContactPhone: form.ContactPhone,
		Notes:        form.Notes,
	}

	if err := database.DB.Create(&customer).Error; err != nil {
		fail(c, err)
		return
	}

	if uid := currentUserID(c); uid != 0 {
		database.CreateAuditLog(uid, "customer", customer.ID, "create", "Created customer: "+customer.Name)
	}

	c.JSON(http.StatusCreated, customer)
}

func ShowCustomer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var customer models.Customer
	if err := database.DB.Preload("Scenarios").Preload("Controls").First(&customer, id).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}
