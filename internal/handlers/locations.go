package handlers

import (
	"net/http"
	"strconv"

	"dienstplan/internal/models"
	"dienstplan/internal/response"
	"dienstplan/internal/storage"

	"github.com/gin-gonic/gin"
)

type LocationRequest struct {
	Title             string `json:"title" binding:"required"`
	Color             string `json:"color"`
	Icon              string `json:"icon"`
	ShowCompleteMonth bool   `json:"showCompleteMonth"`
}

// @Summary		Список мест пользователя
// @Tags			locations
// @Produce		json
// @Security		BearerAuth
// @Success		200	{array}		models.Location			"Места текущего аккаунта"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/locations [get]
func GetLocationsHandler(c *gin.Context) {
	userID := c.GetUint("userID")

	var locations []models.Location
	if err := storage.DB.Where("account_id = ?", userID).Order("title ASC").Find(&locations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки мест",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, locations)
}

// @Summary		Создание места
// @Tags			locations
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			location	body		LocationRequest			true	"Данные места"
// @Success		201			{object}	models.Location			"Созданное место"
// @Failure		400			{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		500			{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/locations [post]
func CreateLocationHandler(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	location := models.Location{
		Title:             req.Title,
		Color:             req.Color,
		Icon:              req.Icon,
		ShowCompleteMonth: req.ShowCompleteMonth,
		AccountID:         c.GetUint("userID"),
	}

	if err := storage.DB.Create(&location).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при создании места",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, location)
}

// loadOwnLocation загружает место по ID из URL с проверкой владельца.
func loadOwnLocation(c *gin.Context) (models.Location, bool) {
	var location models.Location
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_LOCATION_ID",
			Message: "Неверный идентификатор места",
		})
		return location, false
	}

	if err := storage.DB.Where("id = ? AND account_id = ?", id, c.GetUint("userID")).First(&location).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "LOCATION_NOT_FOUND",
			Message: "Место не найдено",
		})
		return location, false
	}
	return location, true
}

// @Summary		Получение места
// @Tags			locations
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		string	true	"ID места"
// @Success		200	{object}	models.Location			"Место"
// @Failure		404	{object}	response.ErrorResponse	"Место не найдено (LOCATION_NOT_FOUND)"
// @Router			/api/locations/{id} [get]
func GetLocationHandler(c *gin.Context) {
	location, ok := loadOwnLocation(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, location)
}

// @Summary		Изменение места
// @Tags			locations
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			id			path		string					true	"ID места"
// @Param			location	body		LocationRequest			true	"Данные места"
// @Success		200			{object}	models.Location			"Обновлённое место"
// @Failure		400			{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		404			{object}	response.ErrorResponse	"Место не найдено (LOCATION_NOT_FOUND)"
// @Failure		500			{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/locations/{id} [patch]
func UpdateLocationHandler(c *gin.Context) {
	location, ok := loadOwnLocation(c)
	if !ok {
		return
	}

	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	location.Title = req.Title
	location.Color = req.Color
	location.Icon = req.Icon
	location.ShowCompleteMonth = req.ShowCompleteMonth

	if err := storage.DB.Save(&location).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при сохранении места",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, location)
}

// @Summary		Удаление места
// @Description	Место с привязанными бронями удалить нельзя
// @Tags			locations
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		string	true	"ID места"
// @Success		200	{object}	response.SuccessResponse	"Место удалено"
// @Failure		400	{object}	response.ErrorResponse		"Есть привязанные брони (LOCATION_IN_USE)"
// @Failure		404	{object}	response.ErrorResponse		"Место не найдено (LOCATION_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse		"Ошибка сервера (DB_ERROR)"
// @Router			/api/locations/{id} [delete]
func DeleteLocationHandler(c *gin.Context) {
	location, ok := loadOwnLocation(c)
	if !ok {
		return
	}

	var count int64
	storage.DB.Model(&models.Schedule{}).Where("location_id = ?", location.ID).Count(&count)
	if count > 0 {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "LOCATION_IN_USE",
			Message: "К месту привязаны брони, удаление невозможно",
		})
		return
	}

	if err := storage.DB.Delete(&location).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при удалении места",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Место успешно удалено"})
}
