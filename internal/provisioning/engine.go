// Package provisioning materializes library templates into live,
// customer-scoped scenarios, controls and remediation tasks. Repeated runs
// with the same inputs converge on the same live entities: persisted map
// rows plus their unique indexes are the idempotency mechanism, and a
// duplicate-key loss against a concurrent run is resolved by retrying the
// whole transaction, which then finds the winner's rows.
package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"grc-backend/internal/database"
	"grc-backend/internal/models"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AttachStrategy string

const (
	// ClonePerScenario creates one control instance per linked scenario;
	// templates without any provisioned scenario get a single
	// scenario-less instance.
	ClonePerScenario AttachStrategy = "clone_per_scenario"
	// AttachFirst falls back to the customer's first provisioned scenario
	// when a template resolves no scenarios of its own.
	AttachFirst AttachStrategy = "attach_first"
)

// ParseStrategy canonicalizes user input; empty defaults to ClonePerScenario.
func ParseStrategy(s string) (AttachStrategy, bool) {
	switch AttachStrategy(s) {
	case "":
		return ClonePerScenario, true
	case ClonePerScenario:
		return ClonePerScenario, true
	case AttachFirst:
		return AttachFirst, true
	}
	return "", false
}

type Input struct {
	CustomerID          uint
	ScenarioTemplateIDs []uint
	ControlTemplateIDs  []uint
	Strategy            AttachStrategy
	SeedTasks           bool
	ActorID             uint // user for the audit trail, 0 = system
}

type Result struct {
	ScenariosCreated  int `json:"scenariosCreated"`
	ScenariosRestored int `json:"scenariosRestored"`
	ControlsCreated   int `json:"controlsCreated"`
	ControlsRestored  int `json:"controlsRestored"`
	TasksCreated      int `json:"tasksCreated"`
}

const maxConflictRetries = 3

type Engine struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewEngine(db *gorm.DB, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{db: db, log: log}
}

// Provision runs the full materialization inside one transaction. On a
// duplicate-key race against a concurrent run the transaction is rolled
// back and retried; the rerun reads the winner's map rows and converges.
func (e *Engine) Provision(ctx context.Context, in Input) (Result, error) {
	if in.Strategy == "" {
		in.Strategy = ClonePerScenario
	}
	runID := uuid.NewString()
	log := e.log.With(zap.String("run", runID), zap.Uint("customer", in.CustomerID))

	var res Result
	op := func() error {
		res = Result{}
		err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return e.provisionTx(ctx, tx, in, runID, &res)
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return err // lost an idempotency-map race, worth retrying
		}
		return backoff.Permanent(err)
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxConflictRetries), ctx)
	err := backoff.RetryNotify(op, bo, func(err error, wait time.Duration) {
		log.Warn("provisioning conflict, retrying", zap.Error(err), zap.Duration("wait", wait))
	})
	if err != nil {
		return Result{}, err
	}

	log.Info("provisioning finished",
		zap.Int("scenariosCreated", res.ScenariosCreated),
		zap.Int("scenariosRestored", res.ScenariosRestored),
		zap.Int("controlsCreated", res.ControlsCreated),
		zap.Int("controlsRestored", res.ControlsRestored),
		zap.Int("tasksCreated", res.TasksCreated))
	return res, nil
}

func (e *Engine) provisionTx(ctx context.Context, tx *gorm.DB, in Input, runID string, res *Result) error {
	var customer models.Customer
	if err := tx.First(&customer, in.CustomerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("customer %d: %w", in.CustomerID, models.ErrNotFound)
		}
		return err
	}

	now := time.Now()

	// Step 1: load requested, non-deleted templates. Unknown ids simply
	// do not resolve.
	var scenarioTpls []models.LibraryScenario
	if len(in.ScenarioTemplateIDs) > 0 {
		if err := tx.Where("id IN ?", in.ScenarioTemplateIDs).Find(&scenarioTpls).Error; err != nil {
			return err
		}
	}
	var controlTpls []models.LibraryControl
	if len(in.ControlTemplateIDs) > 0 {
		if err := tx.Preload("Scenarios").Where("id IN ?", in.ControlTemplateIDs).Find(&controlTpls).Error; err != nil {
			return err
		}
	}

	// Step 2: scenarios first, controls need the resolved live ids.
	liveScenarioByTpl := map[uint]uint{}
	for i := range scenarioTpls {
		if err := ctx.Err(); err != nil {
			return err
		}
		liveID, err := e.materializeScenario(tx, &scenarioTpls[i], in.CustomerID, res)
		if err != nil {
			return err
		}
		liveScenarioByTpl[scenarioTpls[i].ID] = liveID
	}

	// Step 3: controls, one instance per resolved scenario.
	type seeded struct {
		control *models.Control
		tpl     *models.LibraryControl
	}
	var newControls []seeded
	for i := range controlTpls {
		if err := ctx.Err(); err != nil {
			return err
		}
		tpl := &controlTpls[i]

		var scenarioIDs []uint
		for _, linked := range tpl.Scenarios {
			if liveID, ok := liveScenarioByTpl[linked.ID]; ok {
				scenarioIDs = append(scenarioIDs, liveID)
			}
		}

		if len(scenarioIDs) == 0 && in.Strategy == AttachFirst {
			if first, ok, err := firstProvisionedScenario(tx, in.CustomerID); err != nil {
				return err
			} else if ok {
				scenarioIDs = []uint{first}
			}
		}

		if len(scenarioIDs) == 0 {
			control, created, err := e.materializeDetachedControl(tx, tpl, in.CustomerID, res)
			if err != nil {
				return err
			}
			if created {
				newControls = append(newControls, seeded{control: control, tpl: tpl})
			}
			continue
		}

		for _, sid := range scenarioIDs {
			control, created, err := e.materializeControlForScenario(tx, tpl, in.CustomerID, sid, res)
			if err != nil {
				return err
			}
			if created {
				newControls = append(newControls, seeded{control: control, tpl: tpl})
			}
		}
	}

	// Step 4: seed remediation tasks for newly created controls only.
	if in.SeedTasks {
		for _, nc := range newControls {
			n, err := seedTasks(tx, nc.control, nc.tpl, now)
			if err != nil {
				return err
			}
			res.TasksCreated += n
		}
	}

	if in.ActorID != 0 {
		entry := models.AuditLog{
			UserID:   in.ActorID,
			Entity:   "customer",
			EntityID: in.CustomerID,
			Action:   "provision",
			Details: fmt.Sprintf("run %s: %d scenario / %d control templates, strategy %s",
				runID, len(in.ScenarioTemplateIDs), len(in.ControlTemplateIDs), in.Strategy),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
	}

	return ctx.Err()
}

// materializeScenario resolves or creates the live scenario for one
// template, restoring a soft-deleted instance instead of duplicating it.
func (e *Engine) materializeScenario(tx *gorm.DB, tpl *models.LibraryScenario, customerID uint, res *Result) (uint, error) {
	var mapped models.ProvisionedScenarioMap
	err := tx.Where("customer_id = ? AND library_scenario_id = ?", customerID, tpl.ID).First(&mapped).Error
	haveMap := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	if haveMap {
		var live models.Scenario
		err := tx.Unscoped().First(&live, mapped.ScenarioID).Error
		switch {
		case err == nil && live.DeletedAt.Valid:
			if err := database.RestoreScenario(tx, live.ID); err != nil {
				return 0, err
			}
			res.ScenariosRestored++
			return live.ID, nil
		case err == nil:
			return live.ID, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return 0, err
		}
		// dangling map row, fall through and re-point it
	}

	live := models.FromLibraryScenario(tpl, customerID)
	if err := tx.Create(live).Error; err != nil {
		return 0, err
	}
	res.ScenariosCreated++

	if haveMap {
		if err := tx.Model(&mapped).Update("scenario_id", live.ID).Error; err != nil {
			return 0, err
		}
	} else {
		row := models.ProvisionedScenarioMap{
			CustomerID:        customerID,
			LibraryScenarioID: tpl.ID,
			ScenarioID:        live.ID,
		}
		if err := tx.Create(&row).Error; err != nil {
			return 0, err // duplicate key here means a concurrent run won
		}
	}
	return live.ID, nil
}

// materializeControlForScenario resolves or creates the live control for a
// (template, scenario) pair. Returns created=true only for a brand-new
// instance, never for a reuse or restore.
func (e *Engine) materializeControlForScenario(tx *gorm.DB, tpl *models.LibraryControl, customerID, scenarioID uint, res *Result) (*models.Control, bool, error) {
	var mapped models.ProvisionedControlMap
	err := tx.Where("customer_id = ? AND library_control_id = ? AND scenario_id = ?",
		customerID, tpl.ID, scenarioID).First(&mapped).Error
	haveMap := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if haveMap {
		var live models.Control
		err := tx.Unscoped().First(&live, mapped.ControlID).Error
		switch {
		case err == nil && live.DeletedAt.Valid:
			if err := database.RestoreControl(tx, live.ID); err != nil {
				return nil, false, err
			}
			res.ControlsRestored++
			return &live, false, nil
		case err == nil:
			return &live, false, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, false, err
		}
		// dangling map row, fall through and re-point it
	}

	// Defend against a missing map row: an existing live control attached
	// to exactly this scenario is reused, not duplicated.
	var existing models.Control
	err = tx.Joins("JOIN control_scenarios cs ON cs.control_id = controls.id").
		Where("controls.customer_id = ? AND controls.library_control_id = ? AND cs.scenario_id = ?",
			customerID, tpl.ID, scenarioID).
		First(&existing).Error
	if err == nil {
		if err := writeControlMap(tx, &mapped, haveMap, customerID, tpl.ID, &scenarioID, existing.ID); err != nil {
			return nil, false, err
		}
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	live := models.FromLibraryControl(tpl, customerID)
	if err := tx.Create(live).Error; err != nil {
		return nil, false, err
	}
	var scenario models.Scenario
	if err := tx.First(&scenario, scenarioID).Error; err != nil {
		return nil, false, err
	}
	if err := tx.Model(live).Association("Scenarios").Append(&scenario); err != nil {
		return nil, false, err
	}
	if err := writeControlMap(tx, &mapped, haveMap, customerID, tpl.ID, &scenarioID, live.ID); err != nil {
		return nil, false, err
	}
	res.ControlsCreated++
	return live, true, nil
}

// materializeDetachedControl handles templates that resolved no scenarios:
// the absence of a scenario link is itself the distinguishing key.
func (e *Engine) materializeDetachedControl(tx *gorm.DB, tpl *models.LibraryControl, customerID uint, res *Result) (*models.Control, bool, error) {
	var mapped models.ProvisionedControlMap
	err := tx.Where("customer_id = ? AND library_control_id = ? AND scenario_id IS NULL",
		customerID, tpl.ID).First(&mapped).Error
	haveMap := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if haveMap {
		var live models.Control
		err := tx.Unscoped().First(&live, mapped.ControlID).Error
		switch {
		case err == nil && live.DeletedAt.Valid:
			if err := database.RestoreControl(tx, live.ID); err != nil {
				return nil, false, err
			}
			res.ControlsRestored++
			return &live, false, nil
		case err == nil:
			return &live, false, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, false, err
		}
	}

	var existing models.Control
	err = tx.Unscoped().
		Where("customer_id = ? AND library_control_id = ?", customerID, tpl.ID).
		Where("NOT EXISTS (SELECT 1 FROM control_scenarios cs WHERE cs.control_id = controls.id)").
		First(&existing).Error
	if err == nil {
		if existing.DeletedAt.Valid {
			if err := database.RestoreControl(tx, existing.ID); err != nil {
				return nil, false, err
			}
			res.ControlsRestored++
		}
		if err := writeControlMap(tx, &mapped, haveMap, customerID, tpl.ID, nil, existing.ID); err != nil {
			return nil, false, err
		}
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	live := models.FromLibraryControl(tpl, customerID)
	if err := tx.Create(live).Error; err != nil {
		return nil, false, err
	}
	if err := writeControlMap(tx, &mapped, haveMap, customerID, tpl.ID, nil, live.ID); err != nil {
		return nil, false, err
	}
	res.ControlsCreated++
	return live, true, nil
}

func writeControlMap(tx *gorm.DB, mapped *models.ProvisionedControlMap, haveMap bool, customerID, tplID uint, scenarioID *uint, controlID uint) error {
	if haveMap {
		return tx.Model(mapped).Update("control_id", controlID).Error
	}
	row := models.ProvisionedControlMap{
		CustomerID:       customerID,
		LibraryControlID: tplID,
		ScenarioID:       scenarioID,
		ControlID:        controlID,
	}
	return tx.Create(&row).Error
}

func firstProvisionedScenario(tx *gorm.DB, customerID uint) (uint, bool, error) {
	var row models.ProvisionedScenarioMap
	err := tx.Where("customer_id = ?", customerID).Order("id asc").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return row.ScenarioID, true, nil
}

// seedTasks creates the kickoff chain for a freshly materialized control:
// an assessment task and an implementation task depending on it.
func seedTasks(tx *gorm.DB, control *models.Control, tpl *models.LibraryControl, startedAt time.Time) (int, error) {
	assess, err := models.NewToDo(control.ID, "Assess current state: "+control.Name, 1, 0)
	if err != nil {
		return 0, err
	}
	assess.StartDate = &startedAt
	if err := tx.Create(assess).Error; err != nil {
		return 0, err
	}

	implement, err := models.NewToDo(control.ID, "Implement: "+control.Name, tpl.EffortInternalDays, tpl.EffortExternalDays)
	if err != nil {
		return 1, err
	}
	// safe by construction, assess was just created without a parent
	if err := implement.SetDependencyUnchecked(&assess.ID); err != nil {
		return 1, err
	}
	if err := tx.Create(implement).Error; err != nil {
		return 1, err
	}
	return 2, nil
}
