package handlers

import (
	"net/http"
	"strings"

	"grc-backend/internal/database"
	"grc-backend/internal/models"

	"github.com/gin-gonic/gin"
)

//
// LIBRARY CATALOG (templates, never customer-scoped)
//

func ListLibraryScenarios(c *gin.Context) {
	var tpls []models.LibraryScenario
	if err := database.DB.Order("code asc").Find(&tpls).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tpls)
}

type libraryScenarioForm struct {
	Code             string   `json:"code"`
	Name             string   `json:"name"`
	Category         string   `json:"category"`
	Description      string   `json:"description"`
	FrequencyPerYear float64  `json:"frequencyPerYear"`
	ImpactEur        float64  `json:"impactEur"`
	Tags             []string `json:"tags"`
}

func CreateLibraryScenario(c *gin.Context) {
	var form libraryScenarioForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	form.Code = strings.TrimSpace(form.Code)
	form.Name = strings.TrimSpace(form.Name)
	if form.Code == "" || form.Name == "" {
		badRequest(c, "code and name are required")
		return
	}
	if form.FrequencyPerYear < 0 || form.ImpactEur < 0 {
		badRequest(c, "frequency and impact must not be negative")
		return
	}

	tpl := models.LibraryScenario{
		Code:             form.Code,
		Name:             form.Name,
		Category:         form.Category,
		Description:      form.Description,
		FrequencyPerYear: form.FrequencyPerYear,
		ImpactEur:        form.ImpactEur,
		Tags:             form.Tags,
	}

	if err := database.DB.Create(&tpl).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, tpl)
}

func ListLibraryControls(c *gin.Context) {
	var tpls []models.LibraryControl
	if err := database.DB.Preload("Scenarios").Order("code asc").Find(&tpls).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tpls)
}

type libraryControlForm struct {
	Code               string  `json:"code"`
	Name               string  `json:"name"`
	Standard           string  `json:"standard"`
	Description        string  `json:"description"`
	BaselineOpexEur    float64 `json:"baselineOpexEur"`
	BaselineCapexEur   float64 `json:"baselineCapexEur"`
	EffortInternalDays float64 `json:"effortInternalDays"`
	EffortExternalDays float64 `json:"effortExternalDays"`
	ScenarioIDs        []uint  `json:"scenarioIds"` // mitigated scenario templates
}

func CreateLibraryControl(c *gin.Context) {
	var form libraryControlForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	form.Code = strings.TrimSpace(form.Code)
	form.Name = strings.TrimSpace(form.Name)
	if form.Code == "" || form.Name == "" {
		badRequest(c, "code and name are required")
		return
	}
	if form.BaselineOpexEur < 0 || form.BaselineCapexEur < 0 ||
		form.EffortInternalDays < 0 || form.EffortExternalDays < 0 {
		badRequest(c, "cost and effort figures must not be negative")
		return
	}

	var linked []models.LibraryScenario
	if len(form.ScenarioIDs) > 0 {
		if err := database.DB.Where("id IN ?", form.ScenarioIDs).Find(&linked).Error; err != nil {
			fail(c, err)
			return
		}
		if len(linked) != len(form.ScenarioIDs) {
			badRequest(c, "unknown scenario template id")
			return
		}
	}

	tpl := models.LibraryControl{
		Code:               form.Code,
		Name:               form.Name,
		Standard:           form.Standard,
		Description:        form.Description,
		BaselineOpexEur:    form.BaselineOpexEur,
		BaselineCapexEur:   form.BaselineCapexEur,
		EffortInternalDays: form.EffortInternalDays,
		EffortExternalDays: form.EffortExternalDays,
		Scenarios:          linked,
	}

	if err := database.DB.Create(&tpl).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, tpl)
}
