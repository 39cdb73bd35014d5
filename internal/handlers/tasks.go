package handlers

import (
	"net/http"
	"strconv"

	"dienstplan/internal/models"
	"dienstplan/internal/response"
	"dienstplan/internal/storage"

	"github.com/gin-gonic/gin"
)

type TaskRequest struct {
	Title string `json:"title" binding:"required"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// @Summary		Список видов деятельности пользователя
// @Tags			tasks
// @Produce		json
// @Security		BearerAuth
// @Success		200	{array}		models.Task				"Виды деятельности текущего аккаунта"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/tasks [get]
func GetTasksHandler(c *gin.Context) {
	userID := c.GetUint("userID")

	var tasks []models.Task
	if err := storage.DB.Where("account_id = ?", userID).Order("title ASC").Find(&tasks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки видов деятельности",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// @Summary		Создание вида деятельности
// @Tags			tasks
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			task	body		TaskRequest				true	"Данные вида деятельности"
// @Success		201		{object}	models.Task				"Создано"
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/tasks [post]
func CreateTaskHandler(c *gin.Context) {
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	task := models.Task{
		Title:     req.Title,
		Color:     req.Color,
		Icon:      req.Icon,
		AccountID: c.GetUint("userID"),
	}

	if err := storage.DB.Create(&task).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при создании вида деятельности",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, task)
}

func loadOwnTask(c *gin.Context) (models.Task, bool) {
	var task models.Task
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_TASK_ID",
			Message: "Неверный идентификатор вида деятельности",
		})
		return task, false
	}

	if err := storage.DB.Where("id = ? AND account_id = ?", id, c.GetUint("userID")).First(&task).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "TASK_NOT_FOUND",
			Message: "Вид деятельности не найден",
		})
		return task, false
	}
	return task, true
}

// @Summary		Получение вида деятельности
// @Tags			tasks
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		string	true	"ID вида деятельности"
// @Success		200	{object}	models.Task				"Вид деятельности"
// @Failure		404	{object}	response.ErrorResponse	"Не найден (TASK_NOT_FOUND)"
// @Router			/api/tasks/{id} [get]
func GetTaskHandler(c *gin.Context) {
	task, ok := loadOwnTask(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary		Изменение вида деятельности
// @Tags			tasks
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			id		path		string					true	"ID вида деятельности"
// @Param			task	body		TaskRequest				true	"Данные вида деятельности"
// @Success		200		{object}	models.Task				"Обновлено"
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		404		{object}	response.ErrorResponse	"Не найден (TASK_NOT_FOUND)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/tasks/{id} [patch]
func UpdateTaskHandler(c *gin.Context) {
	task, ok := loadOwnTask(c)
	if !ok {
		return
	}

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	task.Title = req.Title
	task.Color = req.Color
	task.Icon = req.Icon

	if err := storage.DB.Save(&task).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при сохранении вида деятельности",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, task)
}

// @Summary		Удаление вида деятельности
// @Description	Вид деятельности с привязанными бронями удалить нельзя
// @Tags			tasks
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		string	true	"ID вида деятельности"
// @Success		200	{object}	response.SuccessResponse	"Удалено"
// @Failure		400	{object}	response.ErrorResponse		"Есть привязанные брони (TASK_IN_USE)"
// @Failure		404	{object}	response.ErrorResponse		"Не найден (TASK_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse		"Ошибка сервера (DB_ERROR)"
// @Router			/api/tasks/{id} [delete]
func DeleteTaskHandler(c *gin.Context) {
	task, ok := loadOwnTask(c)
	if !ok {
		return
	}

	var count int64
	storage.DB.Model(&models.Schedule{}).Where("task_id = ?", task.ID).Count(&count)
	if count > 0 {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "TASK_IN_USE",
			Message: "К виду деятельности привязаны брони, удаление невозможно",
		})
		return
	}

	if err := storage.DB.Delete(&task).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при удалении вида деятельности",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Вид деятельности успешно удалён"})
}
