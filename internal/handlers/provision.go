package handlers

import (
	"net/http"

	"grc-backend/internal/database"
	"grc-backend/internal/provisioning"

	"github.com/gin-gonic/gin"
)

var provisionLogger = database.InitLogger()

type provisionForm struct {
	ScenarioTemplateIDs []uint `json:"scenarioTemplateIds"`
	ControlTemplateIDs  []uint `json:"controlTemplateIds"`
	Strategy            string `json:"strategy"` // clone_per_scenario | attach_first
	SeedTasks           bool   `json:"seedTasks"`
}

// ProvisionCustomer materializes the requested library templates for one
// customer. Safe to call repeatedly with the same inputs.
func ProvisionCustomer(c *gin.Context) {
	customerID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var form provisionForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	strategy, known := provisioning.ParseStrategy(form.Strategy)
	if !known {
		badRequest(c, "unknown attach strategy")
		return
	}

	engine := provisioning.NewEngine(database.DB, provisionLogger)
	result, err := engine.Provision(c.Request.Context(), provisioning.Input{
		CustomerID:          customerID,
		ScenarioTemplateIDs: form.ScenarioTemplateIDs,
		ControlTemplateIDs:  form.ControlTemplateIDs,
		Strategy:            strategy,
		SeedTasks:           form.SeedTasks,
		ActorID:             currentUserID(c),
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
