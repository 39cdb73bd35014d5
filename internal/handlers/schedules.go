package handlers

import (
	"net/http"
	"strconv"
	"time"

	"dienstplan/internal/models"
	"dienstplan/internal/response"
	"dienstplan/internal/storage"
	"dienstplan/internal/timesheet"
	"dienstplan/internal/ws"

	"github.com/gin-gonic/gin"
)

type ScheduleRequest struct {
	LocationID uint      `json:"locationId" binding:"required"`
	TaskID     uint      `json:"taskId" binding:"required"`
	TimeFrom   time.Time `json:"timeFrom" binding:"required"`
	TimeTo     time.Time `json:"timeTo" binding:"required"`
	Remark     string    `json:"remark"`
}

// validateScheduleTimes проверяет инварианты брони при создании и изменении.
// Существующие записи при чтении не перепроверяются.
func validateScheduleTimes(c *gin.Context, req ScheduleRequest) bool {
	if !req.TimeTo.After(req.TimeFrom) {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "TIME_ORDER",
			Message: "Окончание не может быть раньше начала",
		})
		return false
	}
	if !timesheet.SameDay(req.TimeFrom, req.TimeTo) {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "NOT_SAME_DAY",
			Message: "Начало и окончание должны быть в один календарный день",
		})
		return false
	}
	return true
}

// checkOwnReferences проверяет, что место и вид деятельности принадлежат аккаунту.
func checkOwnReferences(c *gin.Context, req ScheduleRequest) bool {
	userID := c.GetUint("userID")

	var location models.Location
	if err := storage.DB.Where("id = ? AND account_id = ?", req.LocationID, userID).First(&location).Error; err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "LOCATION_NOT_FOUND",
			Message: "Место не найдено",
		})
		return false
	}
	var task models.Task
	if err := storage.DB.Where("id = ? AND account_id = ?", req.TaskID, userID).First(&task).Error; err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "TASK_NOT_FOUND",
			Message: "Вид деятельности не найден",
		})
		return false
	}
	return true
}

// @Summary		Список броней пользователя
// @Description	Брони текущего аккаунта с вычисленным флагом конфликта
// @Tags			schedules
// @Produce		json
// @Security		BearerAuth
// @Param			untransferred	query		string	false	"true — только не выгруженные записи"
// @Success		200				{array}		models.Schedule			"Брони с флагом hasConflict"
// @Failure		500				{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/schedules [get]
func GetSchedulesHandler(c *gin.Context) {
	userID := c.GetUint("userID")

	var schedules []models.Schedule
	if err := storage.DB.
		Preload("Location").
		Preload("Task").
		Preload("Account").
		Where("account_id = ?", userID).
		Order("time_from ASC").
		Find(&schedules).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки броней",
			Details: err.Error(),
		})
		return
	}

	// Флаг конфликта вычисляется заново при каждой выборке, по всем броням
	// аккаунта: выгруженная запись тоже участвует в пересечениях.
	schedules = timesheet.DetectConflicts(schedules)

	if c.Query("untransferred") == "true" {
		filtered := make([]models.Schedule, 0, len(schedules))
		for _, s := range schedules {
			if !s.IsTransferred {
				filtered = append(filtered, s)
			}
		}
		schedules = filtered
	}

	c.JSON(http.StatusOK, schedules)
}

// @Summary		Создание брони
// @Description	Начало и окончание должны быть в пределах одного календарного дня
// @Tags			schedules
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			schedule	body		ScheduleRequest			true	"Данные брони"
// @Success		201			{object}	models.Schedule			"Созданная бронь"
// @Failure		400			{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR, TIME_ORDER, NOT_SAME_DAY)"
// @Failure		500			{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/schedules [post]
func CreateScheduleHandler(c *gin.Context) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}
	if !validateScheduleTimes(c, req) || !checkOwnReferences(c, req) {
		return
	}

	userID := c.GetUint("userID")
	schedule := models.Schedule{
		AccountID:  userID,
		LocationID: req.LocationID,
		TaskID:     req.TaskID,
		TimeFrom:   req.TimeFrom,
		TimeTo:     req.TimeTo,
		Remark:     req.Remark,
	}

	if err := storage.DB.Create(&schedule).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при создании брони",
			Details: err.Error(),
		})
		return
	}

	invalidateReportCache(schedule.LocationID, schedule.TimeFrom)
	ws.HubInstance.BroadcastWSMessage(ws.WSMessage{
		EventType: "schedule_created",
		AccountID: strconv.Itoa(int(userID)),
		Data:      map[string]interface{}{"schedule_id": schedule.ID},
	})

	c.JSON(http.StatusCreated, schedule)
}

func loadOwnSchedule(c *gin.Context) (models.Schedule, bool) {
	var schedule models.Schedule
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_SCHEDULE_ID",
			Message: "Неверный идентификатор брони",
		})
		return schedule, false
	}

	if err := storage.DB.
		Preload("Location").
		Preload("Task").
		Where("id = ? AND account_id = ?", id, c.GetUint("userID")).
		First(&schedule).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "SCHEDULE_NOT_FOUND",
			Message: "Бронь не найдена",
		})
		return schedule, false
	}
	return schedule, true
}

// @Summary		Получение брони
// @Tags			schedules
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		string	true	"ID брони"
// @Success		200	{object}	models.Schedule			"Бронь"
// @Failure		404	{object}	response.ErrorResponse	"Бронь не найдена (SCHEDULE_NOT_FOUND)"
// @Router			/api/schedules/{id} [get]
func GetScheduleHandler(c *gin.Context) {
	schedule, ok := loadOwnSchedule(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, schedule)
}

// @Summary		Изменение брони
// @Description	Выгруженная в отчёт бронь доступна только для чтения
// @Tags			schedules
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			id			path		string					true	"ID брони"
// @Param			schedule	body		ScheduleRequest			true	"Данные брони"
// @Success		200			{object}	models.Schedule			"Обновлённая бронь"
// @Failure		400			{object}	response.ErrorResponse	"Ошибка валидации или запись уже выгружена (ALREADY_TRANSFERRED)"
// @Failure		404			{object}	response.ErrorResponse	"Бронь не найдена (SCHEDULE_NOT_FOUND)"
// @Failure		500			{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/schedules/{id} [patch]
func UpdateScheduleHandler(c *gin.Context) {
	schedule, ok := loadOwnSchedule(c)
	if !ok {
		return
	}
	if schedule.IsTransferred {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "ALREADY_TRANSFERRED",
			Message: "Бронь уже выгружена в отчёт и недоступна для изменения",
		})
		return
	}

	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}
	if !validateScheduleTimes(c, req) || !checkOwnReferences(c, req) {
		return
	}

	// Сбрасываем кэш и для старого месяца/места, если бронь переносится.
	invalidateReportCache(schedule.LocationID, schedule.TimeFrom)

	schedule.LocationID = req.LocationID
	schedule.TaskID = req.TaskID
	schedule.TimeFrom = req.TimeFrom
	schedule.TimeTo = req.TimeTo
	schedule.Remark = req.Remark

	if err := storage.DB.Save(&schedule).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при сохранении брони",
			Details: err.Error(),
		})
		return
	}

	invalidateReportCache(schedule.LocationID, schedule.TimeFrom)
	ws.HubInstance.BroadcastWSMessage(ws.WSMessage{
		EventType: "schedule_updated",
		AccountID: strconv.Itoa(int(schedule.AccountID)),
		Data:      map[string]interface{}{"schedule_id": schedule.ID},
	})

	c.JSON(http.StatusOK, schedule)
}

// @Summary		Удаление брони
// @Description	Выгруженная в отчёт бронь недоступна для удаления
// @Tags			schedules
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		string	true	"ID брони"
// @Success		200	{object}	response.SuccessResponse	"Бронь удалена"
// @Failure		400	{object}	response.ErrorResponse		"Запись уже выгружена (ALREADY_TRANSFERRED)"
// @Failure		404	{object}	response.ErrorResponse		"Бронь не найдена (SCHEDULE_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse		"Ошибка сервера (DB_ERROR)"
// @Router			/api/schedules/{id} [delete]
func DeleteScheduleHandler(c *gin.Context) {
	schedule, ok := loadOwnSchedule(c)
	if !ok {
		return
	}
	if schedule.IsTransferred {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "ALREADY_TRANSFERRED",
			Message: "Бронь уже выгружена в отчёт и недоступна для удаления",
		})
		return
	}

	if err := storage.DB.Delete(&schedule).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при удалении брони",
			Details: err.Error(),
		})
		return
	}

	invalidateReportCache(schedule.LocationID, schedule.TimeFrom)
	ws.HubInstance.BroadcastWSMessage(ws.WSMessage{
		EventType: "schedule_deleted",
		AccountID: strconv.Itoa(int(schedule.AccountID)),
		Data:      map[string]interface{}{"schedule_id": schedule.ID},
	})

	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Бронь успешно удалена"})
}

type PDFStatusRequest struct {
	IDs []uint `json:"ids" binding:"required"`
}

// @Summary		Пометка броней как выгруженных
// @Description	Массовая установка isTransferred после подтверждения экспорта
// @Tags			schedules
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			ids	body		PDFStatusRequest		true	"ID броней"
// @Success		200	{array}		integer					"ID обновлённых броней"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/schedules/pdfStatus [patch]
func UpdateSchedulesPDFStatusHandler(c *gin.Context) {
	var req PDFStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	userID := c.GetUint("userID")
	ids, err := MarkTransferred(userID, req.IDs, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при обновлении статуса броней",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, ids)
}

// MarkTransferred помечает не выгруженные брони аккаунта как выгруженные и
// возвращает ID фактически обновлённых записей. Отдельный шаг после экспорта:
// построение отчёта само по себе ничего не записывает.
// Пакет обновляется одним запросом: либо все записи, либо ни одной.
func MarkTransferred(accountID uint, ids []uint, fileID *uint) ([]uint, error) {
	var schedules []models.Schedule
	if err := storage.DB.
		Where("account_id = ? AND id IN ? AND is_transferred = false", accountID, ids).
		Find(&schedules).Error; err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		return []uint{}, nil
	}

	updated := make([]uint, 0, len(schedules))
	for _, s := range schedules {
		updated = append(updated, s.ID)
	}

	updates := map[string]interface{}{"is_transferred": true}
	if fileID != nil {
		updates["file_id"] = *fileID
	}
	if err := storage.DB.Model(&models.Schedule{}).Where("id IN ?", updated).Updates(updates).Error; err != nil {
		return nil, err
	}

	for _, s := range schedules {
		invalidateReportCache(s.LocationID, s.TimeFrom)
	}
	return updated, nil
}
