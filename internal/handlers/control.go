package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"grc-backend/internal/database"
	"grc-backend/internal/models"

	"github.com/gin-gonic/gin"
)

//
// LIVE CONTROLS
//

func ListControls(c *gin.Context) {
	dbq := database.DB.Preload("Scenarios").Order("created_at desc")

	if cidStr := c.Query("customer_id"); cidStr != "" {
		if cid, err := strconv.Atoi(cidStr); err == nil && cid > 0 {
			dbq = dbq.Where("customer_id = ?", cid)
		}
	}
	if status := c.Query("status"); status != "" {
		if st, ok := models.ParseControlStatus(status); ok {
			dbq = dbq.Where("status = ?", st)
		}
	}

	var controls []models.Control
	if err := dbq.Find(&controls).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, controls)
}

type controlForm struct {
	CustomerID  uint   `json:"customerId"`
	Name        string `json:"name"`
	Standard    string `json:"standard"`
	Description string `json:"description"`
}

func CreateControl(c *gin.Context) {
	var form controlForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	var customer models.Customer
	if err := database.DB.First(&customer, form.CustomerID).Error; err != nil {
		fail(c, err)
		return
	}

	control, err := models.NewControl(customer.ID, strings.TrimSpace(form.Name))
	if err != nil {
		fail(c, err)
		return
	}
	control.Standard = form.Standard
	control.Description = form.Description

	if err := database.DB.Create(control).Error; err != nil {
		fail(c, err)
		return
	}

	if uid := currentUserID(c); uid != 0 {
		database.CreateAuditLog(uid, "control", control.ID, "create", "Created control: "+control.Name)
	}

	c.JSON(http.StatusCreated, control)
}

func ShowControl(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var control models.Control
	if err := database.DB.Preload("Scenarios").First(&control, id).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, control)
}

type controlMetricsForm struct {
	Implemented    *bool    `json:"implemented"`
	Coverage       *float64 `json:"coverage"`
	Maturity       *int     `json:"maturity"`
	EvidenceID     *uint    `json:"evidenceId"`
	EvidenceWeight *float64 `json:"evidenceWeight"`
	Freshness      *float64 `json:"freshness"`
	CostTotalEur   *float64 `json:"costTotalEur"`
	DeltaRiskEur   *float64 `json:"deltaRiskEur"`
	Score          *float64 `json:"score"`
	DueDate        *string  `json:"dueDate"` // YYYY-MM-DD, empty clears
}

// UpdateControlMetrics patches the readiness and cost figures. Partial
// payload: absent fields are left alone.
func UpdateControlMetrics(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var form controlMetricsForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	var control models.Control
	if err := database.DB.First(&control, id).Error; err != nil {
		fail(c, err)
		return
	}

	if form.Implemented != nil {
		control.Implemented = *form.Implemented
	}
	if form.Coverage != nil {
		control.Coverage = *form.Coverage
	}
	if form.Maturity != nil {
		control.Maturity = *form.Maturity
	}
	if form.EvidenceID != nil {
		if *form.EvidenceID == 0 {
			control.EvidenceID = nil
		} else {
			var ev models.Evidence
			if err := database.DB.First(&ev, *form.EvidenceID).Error; err != nil {
				fail(c, err)
				return
			}
			control.EvidenceID = form.EvidenceID
		}
	}
	if form.EvidenceWeight != nil {
		control.EvidenceWeight = *form.EvidenceWeight
	}
	if form.Freshness != nil {
		control.Freshness = *form.Freshness
	}
	if form.CostTotalEur != nil {
		control.CostTotalEur = *form.CostTotalEur
	}
	if form.DeltaRiskEur != nil {
		control.DeltaRiskEur = *form.DeltaRiskEur
	}
	if form.Score != nil {
		control.Score = *form.Score
	}
	if form.DueDate != nil {
		if *form.DueDate == "" {
			control.DueDate = nil
		} else {
			due, err := time.Parse("2006-01-02", *form.DueDate)
			if err != nil {
				badRequest(c, "invalid due date")
				return
			}
			control.DueDate = &due
		}
	}

	if err := control.Validate(); err != nil {
		fail(c, err)
		return
	}

	if err := database.SaveControlVersioned(database.DB, &control); err != nil {
		fail(c, err)
		return
	}

	if uid := currentUserID(c); uid != 0 {
		database.CreateAuditLog(uid, "control", control.ID, "update", "Updated control metrics: "+control.Name)
	}

	c.JSON(http.StatusOK, control)
}

//
// STATUS TRANSITIONS
//

type statusForm struct {
	Status string `json:"status"`
}

func ChangeControlStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var form statusForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	target, known := models.ParseControlStatus(form.Status)
	if !known || target == models.StatusNone {
		badRequest(c, "unknown status")
		return
	}

	var control models.Control
	if err := database.DB.First(&control, id).Error; err != nil {
		fail(c, err)
		return
	}

	lookup := database.EvidenceRepo{DB: database.DB}
	if err := control.TransitionTo(target, time.Now(), lookup); err != nil {
		fail(c, err)
		return
	}

	// version-guarded save: a stale read surfaces as 409, never a silent
	// overwrite
	if err := database.SaveControlVersioned(database.DB, &control); err != nil {
		fail(c, err)
		return
	}

	if uid := currentUserID(c); uid != 0 {
		database.CreateAuditLog(uid, "control", control.ID, "status_change", "Status changed to: "+string(target))
	}

	c.JSON(http.StatusOK, control)
}

// ControlReadiness reports every unmet activation precondition.
func ControlReadiness(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var control models.Control
	if err := database.DB.First(&control, id).Error; err != nil {
		fail(c, err)
		return
	}

	reasons, err := control.ActivationFailures(time.Now(), database.EvidenceRepo{DB: database.DB})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ready":              len(reasons) == 0,
		"reasons":            reasons,
		"allowedTransitions": models.AllowedTransitions(control.Status),
	})
}

//
// ATTACHED SETS
//

type scenarioSetForm struct {
	ScenarioIDs []uint `json:"scenarioIds"`
}

func SetControlScenarios(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var form scenarioSetForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	var control models.Control
	if err := database.DB.First(&control, id).Error; err != nil {
		fail(c, err)
		return
	}

	var scenarios []models.Scenario
	if len(form.ScenarioIDs) > 0 {
		if err := database.DB.Where("id IN ?", form.ScenarioIDs).Find(&scenarios).Error; err != nil {
			fail(c, err)
			return
		}
		if len(scenarios) != len(form.ScenarioIDs) {
			badRequest(c, "unknown scenario id")
			return
		}
	}

	if err := control.SetScenarios(scenarios); err != nil {
		fail(c, err)
		return
	}
	if err := database.SaveControlVersioned(database.DB, &control); err != nil {
		fail(c, err)
		return
	}
	if err := database.DB.Model(&control).Association("Scenarios").Replace(control.Scenarios); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, control)
}

type tagsForm struct {
	Tags []string `json:"tags"`
}

func SetControlTags(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var form tagsForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	var control models.Control
	if err := database.DB.First(&control, id).Error; err != nil {
		fail(c, err)
		return
	}

	control.SetTags(form.Tags)
	if err := database.SaveControlVersioned(database.DB, &control); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, control)
}

type industriesForm struct {
	Industries []string `json:"industries"`
}

func SetControlIndustries(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var form industriesForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	var control models.Control
	if err := database.DB.First(&control, id).Error; err != nil {
		fail(c, err)
		return
	}

	control.SetIndustries(form.Industries)
	if err := database.SaveControlVersioned(database.DB, &control); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, control)
}

//
// SOFT DELETE / RESTORE
//

func DeleteControl(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := database.SoftDeleteControl(database.DB, id, currentUsername(c)); err != nil {
		fail(c, err)
		return
	}

	if uid := currentUserID(c); uid != 0 {
		database.CreateAuditLog(uid, "control", id, "delete", "Deleted control")
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func RestoreControl(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := database.RestoreControl(database.DB, id); err != nil {
		fail(c, err)
		return
	}

	if uid := currentUserID(c); uid != 0 {
		database.CreateAuditLog(uid, "control", id, "restore", "Restored control")
	}

	c.JSON(http.StatusOK, gin.H{"status": "restored"})
}
