package handlers

import (
	"net/http"
	"strconv"

	"dienstplan/internal/models"
	"dienstplan/internal/response"
	"dienstplan/internal/storage"
	"dienstplan/internal/timesheet"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type AccountRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password"`
	Role      string `json:"role" binding:"omitempty,oneof=User Admin"`
}

// @Summary		Список аккаунтов
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Success		200	{array}		models.Account			"Все аккаунты"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/admin/accounts [get]
func GetAccountsHandler(c *gin.Context) {
	var accounts []models.Account
	if err := storage.DB.Order("last_name ASC").Find(&accounts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки аккаунтов",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, accounts)
}

// @Summary		Создание аккаунта администратором
// @Tags			admin
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			account	body		AccountRequest			true	"Данные аккаунта"
// @Success		201		{object}	models.Account			"Созданный аккаунт"
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR, EMAIL_EXISTS, PASSWORD_REQUIRED)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка сервера (PASSWORD_HASH_ERROR, DB_ERROR)"
// @Router			/api/admin/accounts [post]
func CreateAccountHandler(c *gin.Context) {
	var req AccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}
	if req.Password == "" {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "PASSWORD_REQUIRED",
			Message: "Пароль обязателен при создании аккаунта",
		})
		return
	}

	var existing models.Account
	if err := storage.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "EMAIL_EXISTS",
			Message: "Пользователь с таким email уже существует",
		})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "PASSWORD_HASH_ERROR",
			Message: "Ошибка при хешировании пароля",
		})
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	account := models.Account{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}

	if err := storage.DB.Create(&account).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при создании аккаунта",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, account)
}

func loadAccount(c *gin.Context) (models.Account, bool) {
	var account models.Account
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_ACCOUNT_ID",
			Message: "Неверный идентификатор аккаунта",
		})
		return account, false
	}

	if err := storage.DB.First(&account, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "ACCOUNT_NOT_FOUND",
			Message: "Аккаунт не найден",
		})
		return account, false
	}
	return account, true
}

// @Summary		Получение аккаунта
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		string	true	"ID аккаунта"
// @Success		200	{object}	models.Account			"Аккаунт"
// @Failure		404	{object}	response.ErrorResponse	"Аккаунт не найден (ACCOUNT_NOT_FOUND)"
// @Router			/api/admin/accounts/{id} [get]
func GetAccountHandler(c *gin.Context) {
	account, ok := loadAccount(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, account)
}

// @Summary		Изменение аккаунта
// @Description	Пустой пароль оставляет текущий пароль без изменений
// @Tags			admin
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			id		path		string					true	"ID аккаунта"
// @Param			account	body		AccountRequest			true	"Данные аккаунта"
// @Success		200		{object}	models.Account			"Обновлённый аккаунт"
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		404		{object}	response.ErrorResponse	"Аккаунт не найден (ACCOUNT_NOT_FOUND)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка сервера (PASSWORD_HASH_ERROR, DB_ERROR)"
// @Router			/api/admin/accounts/{id} [patch]
func UpdateAccountHandler(c *gin.Context) {
	account, ok := loadAccount(c)
	if !ok {
		return
	}

	var req AccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	account.FirstName = req.FirstName
	account.LastName = req.LastName
	account.Email = req.Email
	if req.Role != "" {
		account.Role = req.Role
	}
	if req.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorResponse{
				Code:    "PASSWORD_HASH_ERROR",
				Message: "Ошибка при хешировании пароля",
			})
			return
		}
		account.PasswordHash = string(hashedPassword)
	}

	if err := storage.DB.Save(&account).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при сохранении аккаунта",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, account)
}

// @Summary		Удаление аккаунта
// @Description	Аккаунт с бронями удалить нельзя
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		string	true	"ID аккаунта"
// @Success		200	{object}	response.SuccessResponse	"Аккаунт удалён"
// @Failure		400	{object}	response.ErrorResponse		"Есть привязанные брони (ACCOUNT_IN_USE)"
// @Failure		404	{object}	response.ErrorResponse		"Аккаунт не найден (ACCOUNT_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse		"Ошибка сервера (DB_ERROR)"
// @Router			/api/admin/accounts/{id} [delete]
func DeleteAccountHandler(c *gin.Context) {
	account, ok := loadAccount(c)
	if !ok {
		return
	}

	var count int64
	storage.DB.Model(&models.Schedule{}).Where("account_id = ?", account.ID).Count(&count)
	if count > 0 {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "ACCOUNT_IN_USE",
			Message: "У аккаунта есть брони, удаление невозможно",
		})
		return
	}

	if err := storage.DB.Delete(&account).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при удалении аккаунта",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Аккаунт успешно удалён"})
}

// @Summary		Все брони всех аккаунтов
// @Description	Полный список с вычисленными конфликтами; пересечения разных аккаунтов конфликтом не считаются
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Success		200	{array}		models.Schedule			"Брони с флагом hasConflict"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/admin/schedules [get]
func GetAllSchedulesHandler(c *gin.Context) {
	var schedules []models.Schedule
	if err := storage.DB.
		Preload("Account").
		Preload("Location").
		Preload("Task").
		Order("time_from ASC").
		Find(&schedules).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки броней",
			Details: err.Error(),
		})
		return
	}

	schedules = timesheet.DetectConflicts(schedules)

	c.JSON(http.StatusOK, schedules)
}
