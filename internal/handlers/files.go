package handlers

import (
	"net/http"
	"os"

	"dienstplan/internal/models"
	"dienstplan/internal/response"
	"dienstplan/internal/storage"

	"github.com/gin-gonic/gin"
)

// @Summary		Список файлов отчётов пользователя
// @Tags			files
// @Produce		json
// @Security		BearerAuth
// @Success		200	{array}		models.ReportFile		"Сформированные отчёты"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/files [get]
func GetFilesHandler(c *gin.Context) {
	userID := c.GetUint("userID")

	var files []models.ReportFile
	if err := storage.DB.Where("account_id = ?", userID).Order("created_at DESC").Find(&files).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки файлов",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, files)
}

func loadOwnFile(c *gin.Context) (models.ReportFile, bool) {
	var file models.ReportFile
	if err := storage.DB.
		Where("public_id = ? AND account_id = ?", c.Param("id"), c.GetUint("userID")).
		First(&file).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "FILE_NOT_FOUND",
			Message: "Файл не найден",
		})
		return file, false
	}
	return file, true
}

// @Summary		Скачивание файла отчёта
// @Tags			files
// @Produce		application/pdf
// @Security		BearerAuth
// @Param			id	path		string	true	"Публичный ID файла"
// @Success		200	{file}		file	"PDF-документ"
// @Failure		404	{object}	response.ErrorResponse	"Файл не найден (FILE_NOT_FOUND)"
// @Router			/api/files/{id} [get]
func DownloadFileHandler(c *gin.Context) {
	file, ok := loadOwnFile(c)
	if !ok {
		return
	}

	if _, err := os.Stat(file.Path); err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "FILE_NOT_FOUND",
			Message: "Файл отсутствует на диске",
		})
		return
	}

	c.FileAttachment(file.Path, file.Name)
}

// @Summary		Удаление файла отчёта
// @Description	Удаляет запись и файл на диске; пометка isTransferred у броней сохраняется
// @Tags			files
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		string	true	"Публичный ID файла"
// @Success		200	{object}	response.SuccessResponse	"Файл удалён"
// @Failure		404	{object}	response.ErrorResponse		"Файл не найден (FILE_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse		"Ошибка сервера (DB_ERROR)"
// @Router			/api/files/{id} [delete]
func DeleteFileHandler(c *gin.Context) {
	file, ok := loadOwnFile(c)
	if !ok {
		return
	}

	// Отвязываем брони от файла, статус выгрузки при этом не сбрасывается.
	if err := storage.DB.Model(&models.Schedule{}).
		Where("file_id = ?", file.ID).
		Update("file_id", nil).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка отвязки броней от файла",
			Details: err.Error(),
		})
		return
	}

	if err := storage.DB.Delete(&file).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при удалении файла",
			Details: err.Error(),
		})
		return
	}
	os.Remove(file.Path)

	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Файл успешно удалён"})
}
