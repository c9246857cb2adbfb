package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"grc-backend/internal/database"
	"grc-backend/internal/models"

	"github.com/gin-gonic/gin"
)

func ListScenarios(c *gin.Context) {
	dbq := database.DB.Order("created_at desc")

	if cidStr := c.Query("customer_id"); cidStr != "" {
		if cid, err := strconv.Atoi(cidStr); err == nil && cid > 0 {
			dbq = dbq.Where("customer_id = ?", cid)
		}
	}

	var scenarios []models.Scenario
	if err := dbq.Find(&scenarios).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, scenarios)
}

type scenarioForm struct {
	CustomerID       uint     `json:"customerId"`
	Name             string   `json:"name"`
	Category         string   `json:"category"`
	Description      string   `json:"description"`
	FrequencyPerYear float64  `json:"frequencyPerYear"`
	ImpactEur        float64  `json:"impactEur"`
	Tags             []string `json:"tags"`
}

func CreateScenario(c *gin.Context) {
	var form scenarioForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	form.Name = strings.TrimSpace(form.Name)
	if form.Name == "" {
		badRequest(c, "name is required")
		return
	}
	if form.FrequencyPerYear < 0 || form.ImpactEur < 0 {
		badRequest(c, "frequency and impact must not be negative")
		return
	}

	var customer models.Customer
	if err := database.DB.First(&customer, form.CustomerID).Error; err != nil {
		fail(c, err)
		return
	}

	scenario := models.Scenario{
		CustomerID:       customer.ID,
		Name:             form.Name,
		Category:         form.Category,
		Description:      form.Description,
		FrequencyPerYear: form.FrequencyPerYear,
		ImpactEur:        form.ImpactEur,
		Tags:             form.Tags,
	}

	if err := database.DB.Create(&scenario).Error; err != nil {
		fail(c, err)
		return
	}

	if uid := currentUserID(c); uid != 0 {
		database.CreateAuditLog(uid, "scenario", scenario.ID, "create", "Created scenario: "+scenario.Name)
	}

	c.JSON(http.StatusCreated, scenario)
}

func DeleteScenario(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var scenario models.Scenario
	if err := database.DB.First(&scenario, id).Error; err != nil {
		fail(c, err)
		return
	}

	if by := currentUsername(c); by != "" {
		_ = database.DB.Model(&scenario).Update("deleted_by", by).Error
	}
	if err := database.DB.Delete(&scenario).Error; err != nil {
		fail(c, err)
		return
	}

	if uid := currentUserID(c); uid != 0 {
		database.CreateAuditLog(uid, "scenario", scenario.ID, "delete", "Deleted scenario: "+scenario.Name)
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func RestoreScenario(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := database.RestoreScenario(database.DB, id); err != nil {
		fail(c, err)
		return
	}

	if uid := currentUserID(c); uid != 0 {
		database.CreateAuditLog(uid, "scenario", id, "restore", "Restored scenario")
	}

	c.JSON(http.StatusOK, gin.H{"status": "restored"})
}
