package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"grc-backend/internal/database"
	"grc-backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

//
// REMEDIATION TASKS
//

func ListToDos(c *gin.Context) {
	dbq := database.DB.Order("created_at asc")

	if ctrlStr := c.Query("control_id"); ctrlStr != "" {
		if cid, err := strconv.Atoi(ctrlStr); err == nil && cid > 0 {
			dbq = dbq.Where("control_id = ?", cid)
		}
	}
	if statusStr := c.Query("status"); statusStr != "" {
		if st, ok := models.ParseToDoStatus(statusStr); ok {
			dbq = dbq.Where("status = ?", st)
		}
	}

	var todos []models.ToDo
	if err := dbq.Find(&todos).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, todos)
}

type todoForm struct {
	ControlID          uint    `json:"controlId"`
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	EffortInternalDays float64 `json:"effortInternalDays"`
	EffortExternalDays float64 `json:"effortExternalDays"`
	Assignee           string  `json:"assignee"`
}

func CreateToDo(c *gin.Context) {
	var form todoForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	var control models.Control
	if err := database.DB.First(&control, form.ControlID).Error; err != nil {
		fail(c, err)
		return
	}

	todo, err := models.NewToDo(control.ID, strings.TrimSpace(form.Title),
		form.EffortInternalDays, form.EffortExternalDays)
	if err != nil {
		fail(c, err)
		return
	}
	todo.Description = form.Description
	todo.Assignee = form.Assignee

	if err := database.DB.Create(todo).Error; err != nil {
		fail(c, err)
		return
	}

	if uid := currentUserID(c); uid != 0 {
		database.CreateAuditLog(uid, "todo", todo.ID, "create", "Created todo: "+todo.Title)
	}

	c.JSON(http.StatusCreated, todo)
}

// resolvers the dependency validator walks with
func todoParentOf(id uint) (*uint, error) {
	var t models.ToDo
	if err := database.DB.Select("depends_on_id").First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return t.DependsOnID, nil
}

func todoScopeOf(id uint) (uint, error) {
	var t models.ToDo
	if err := database.DB.Select("control_id").First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, models.ErrNotFound
		}
		return 0, err
	}
	return t.ControlID, nil
}

type dependencyForm struct {
	DependsOnID *uint `json:"dependsOnId"` // null clears the dependency
}

func SetToDoDependency(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var form dependencyForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	var todo models.ToDo
	if err := database.DB.First(&todo, id).Error; err != nil {
		fail(c, err)
		return
	}

	err := todo.SetDependency(form.DependsOnID, todoParentOf, todoScopeOf,
		true, models.DefaultMaxDependencyHops)
	if err != nil {
		fail(c, err)
		return
	}

	if err := database.DB.Model(&todo).Select("depends_on_id", "updated_at").Updates(&todo).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

type scheduleForm struct {
	StartDate *string `json:"startDate"` // YYYY-MM-DD
	EndDate   *string `json:"endDate"`
}

func ScheduleToDo(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var form scheduleForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	parseDate := func(s *string) (*time.Time, bool) {
		if s == nil || *s == "" {
			return nil, true
		}
		t, err := time.Parse("2006-01-02", *s)
		if err != nil {
			return nil, false
		}
		return &t, true
	}

	start, ok := parseDate(form.StartDate)
	if !ok {
		badRequest(c, "invalid start date")
		return
	}
	end, ok := parseDate(form.EndDate)
	if !ok {
		badRequest(c, "invalid end date")
		return
	}

	var todo models.ToDo
	if err := database.DB.First(&todo, id).Error; err != nil {
		fail(c, err)
		return
	}

	if err := todo.Schedule(start, end); err != nil {
		fail(c, err)
		return
	}

	if err := database.DB.Save(&todo).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func CompleteToDo(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var todo models.ToDo
	if err := database.DB.First(&todo, id).Error; err != nil {
		fail(c, err)
		return
	}

	if err := todo.MarkDone(time.Now()); err != nil {
		fail(c, err)
		return
	}

	if err := database.DB.Save(&todo).Error; err != nil {
		fail(c, err)
		return
	}

	if uid := currentUserID(c); uid != 0 {
		database.CreateAuditLog(uid, "todo", todo.ID, "complete", "Completed todo: "+todo.Title)
	}

	c.JSON(http.StatusOK, todo)
}

func DeleteToDo(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var todo models.ToDo
	if err := database.DB.First(&todo, id).Error; err != nil {
		fail(c, err)
		return
	}

	if by := currentUsername(c); by != "" {
		_ = database.DB.Model(&todo).Update("deleted_by", by).Error
	}
	if err := database.DB.Delete(&todo).Error; err != nil {
		fail(c, err)
		return
	}

	if uid := currentUserID(c); uid != 0 {
		database.CreateAuditLog(uid, "todo", todo.ID, "delete", "Deleted todo: "+todo.Title)
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func RestoreToDo(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := database.RestoreToDo(database.DB, id); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "restored"})
}
