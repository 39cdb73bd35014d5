package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dienstplan/internal/models"
	"dienstplan/internal/pdf"
	"dienstplan/internal/response"
	"dienstplan/internal/storage"
	"dienstplan/internal/timesheet"
	"dienstplan/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RemarkItem — примечание к одному дню в хвостовой секции отчёта.
type RemarkItem struct {
	Date   string `json:"date"`
	Remark string `json:"remark"`
}

// MonthSection — одна секция отчёта: месяц со строками и суммой.
type MonthSection struct {
	Month   string          `json:"month"` // "März 2024"
	Rows    []timesheet.Row `json:"rows"`
	Total   string          `json:"total"` // "8:00 Std."
	Remarks []RemarkItem    `json:"remarks,omitempty"`
}

// ReportResponse — предпросмотр отчёта по месту.
type ReportResponse struct {
	LocationID    uint           `json:"locationId"`
	LocationTitle string         `json:"locationTitle"`
	Sections      []MonthSection `json:"sections"`
}

func reportCacheKey(locationID uint, month string) string {
	if month == "" {
		month = "all"
	}
	return fmt.Sprintf("report_%d_%s", locationID, month)
}

// invalidateReportCache сбрасывает кэш предпросмотра после изменения броней.
func invalidateReportCache(locationID uint, timeFrom time.Time) {
	storage.RedisClient.Del(storage.Ctx,
		reportCacheKey(locationID, timeFrom.Format("2006-01")),
		reportCacheKey(locationID, ""))
}

// fetchReportSchedules загружает не выгруженные брони аккаунта по месту,
// опционально ограниченные одним месяцем.
func fetchReportSchedules(accountID, locationID uint, month string) ([]models.Schedule, error) {
	query := storage.DB.
		Preload("Location").
		Preload("Task").
		Where("account_id = ? AND location_id = ? AND is_transferred = false", accountID, locationID).
		Order("time_from ASC")

	if month != "" {
		start, err := time.ParseInLocation("2006-01", month, time.Local)
		if err != nil {
			return nil, err
		}
		query = query.Where("time_from >= ? AND time_from < ?", start, start.AddDate(0, 1, 0))
	}

	var schedules []models.Schedule
	if err := query.Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

func buildSections(location models.Location, groups []timesheet.MonthGroup) []MonthSection {
	sections := make([]MonthSection, 0, len(groups))
	for _, g := range groups {
		section := MonthSection{
			Month: g.Key.Label(),
			Rows:  timesheet.BuildRows(g.Entries, location.ShowCompleteMonth),
			Total: g.TotalLabel(),
		}
		for _, e := range g.Remarks {
			section.Remarks = append(section.Remarks, RemarkItem{
				Date:   fmt.Sprintf("%02d.%02d.", e.TimeFrom.Day(), int(e.TimeFrom.Month())),
				Remark: e.Remark,
			})
		}
		sections = append(sections, section)
	}
	return sections
}

// @Summary		Предпросмотр отчёта по месту
// @Description	Секции по месяцам для не выгруженных броней, кэшируется в Redis
// @Tags			reports
// @Produce		json
// @Security		BearerAuth
// @Param			locationId	path		string	true	"ID места"
// @Param			month		query		string	false	"Месяц в формате YYYY-MM; без параметра — все месяцы"
// @Success		200			{object}	ReportResponse			"Данные отчёта"
// @Failure		400			{object}	response.ErrorResponse	"Неверный месяц (INVALID_MONTH)"
// @Failure		404			{object}	response.ErrorResponse	"Место не найдено (LOCATION_NOT_FOUND)"
// @Failure		500			{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/reports/{locationId} [get]
func GetReportHandler(c *gin.Context) {
	userID := c.GetUint("userID")
	locationID, err := strconv.Atoi(c.Param("locationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_LOCATION_ID",
			Message: "Неверный идентификатор места",
		})
		return
	}
	month := c.Query("month")

	// Сначала проверяем владельца: кэш общий по месту и не должен
	// выдаваться до подтверждения принадлежности места аккаунту.
	var location models.Location
	if err := storage.DB.Where("id = ? AND account_id = ?", locationID, userID).First(&location).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "LOCATION_NOT_FOUND",
			Message: "Место не найдено",
		})
		return
	}

	// Проверка кэша
	cacheKey := reportCacheKey(location.ID, month)
	cached, err := storage.RedisClient.Get(storage.Ctx, cacheKey).Result()
	if err == nil && cached != "" {
		var report ReportResponse
		if err := json.Unmarshal([]byte(cached), &report); err == nil {
			c.JSON(http.StatusOK, report)
			return
		}
	}

	schedules, err := fetchReportSchedules(userID, location.ID, month)
	if err != nil {
		if _, parseErr := time.ParseInLocation("2006-01", month, time.Local); month != "" && parseErr != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "INVALID_MONTH",
				Message: "Месяц должен быть в формате YYYY-MM",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки броней",
			Details: err.Error(),
		})
		return
	}

	report := ReportResponse{
		LocationID:    location.ID,
		LocationTitle: location.Title,
		Sections:      buildSections(location, timesheet.GroupByMonth(schedules)),
	}

	// Кэширование результата на 10 минут
	if payload, err := json.Marshal(report); err == nil {
		storage.RedisClient.Set(storage.Ctx, cacheKey, string(payload), 10*time.Minute)
	}

	c.JSON(http.StatusOK, report)
}

// ExportResponse — результат выгрузки отчёта.
type ExportResponse struct {
	FileID      string `json:"fileId"`
	FileName    string `json:"fileName"`
	Transferred []uint `json:"transferred"` // ID броней, помеченных как выгруженные
}

// @Summary		Выгрузка отчёта в PDF
// @Description	Формирует лист учёта рабочего времени, сохраняет файл и помечает брони как выгруженные
// @Tags			reports
// @Produce		json
// @Security		BearerAuth
// @Param			locationId	path		string	true	"ID места"
// @Param			month		query		string	false	"Месяц в формате YYYY-MM"
// @Success		201			{object}	ExportResponse			"Файл сформирован"
// @Failure		400			{object}	response.ErrorResponse	"Брони в разных месяцах (NOT_SAME_MONTH) или неверный месяц (INVALID_MONTH)"
// @Failure		404			{object}	response.ErrorResponse	"Нет данных для выгрузки (NO_DATA) или место не найдено (LOCATION_NOT_FOUND)"
// @Failure		500			{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR, PDF_ERROR, FILE_ERROR)"
// @Router			/api/reports/{locationId}/export [post]
func ExportReportHandler(c *gin.Context) {
	userID := c.GetUint("userID")
	locationID, err := strconv.Atoi(c.Param("locationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_LOCATION_ID",
			Message: "Неверный идентификатор места",
		})
		return
	}
	month := c.Query("month")
	if month != "" {
		if _, err := time.ParseInLocation("2006-01", month, time.Local); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "INVALID_MONTH",
				Message: "Месяц должен быть в формате YYYY-MM",
			})
			return
		}
	}

	var account models.Account
	if err := storage.DB.First(&account, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "ACCOUNT_NOT_FOUND",
			Message: "Аккаунт не найден",
		})
		return
	}

	var location models.Location
	if err := storage.DB.Where("id = ? AND account_id = ?", locationID, userID).First(&location).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "LOCATION_NOT_FOUND",
			Message: "Место не найдено",
		})
		return
	}

	schedules, err := fetchReportSchedules(userID, location.ID, month)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки броней",
			Details: err.Error(),
		})
		return
	}
	if len(schedules) == 0 {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "NO_DATA",
			Message: "Нет данных для выгрузки",
		})
		return
	}

	groups := timesheet.GroupByMonth(schedules)
	// Один документ — один месяц, как в исходной печатной форме.
	if len(groups) > 1 {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "NOT_SAME_MONTH",
			Message: "Брони находятся в разных месяцах, укажите параметр month",
		})
		return
	}

	sheet := pdf.Sheet{
		Employer: os.Getenv("REPORT_EMPLOYER"),
		Account:  account,
		Location: location,
		Groups:   groups,
	}
	data, err := sheet.Render()
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "PDF_ERROR",
			Message: "Ошибка формирования PDF",
			Details: err.Error(),
		})
		return
	}

	first := groups[0].Entries[0].TimeFrom
	fileName := fmt.Sprintf("%s_%s.pdf",
		strings.ReplaceAll(strings.ToLower(location.Title), " ", "_"),
		first.Format("2006_01"))

	dir := os.Getenv("FILES_DIR")
	if dir == "" {
		dir = "files"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "FILE_ERROR",
			Message: "Ошибка создания каталога файлов",
			Details: err.Error(),
		})
		return
	}

	publicID := uuid.NewString()
	path := filepath.Join(dir, publicID+".pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "FILE_ERROR",
			Message: "Ошибка записи файла отчёта",
			Details: err.Error(),
		})
		return
	}

	file := models.ReportFile{
		PublicID:   publicID,
		Name:       fileName,
		Path:       path,
		AccountID:  userID,
		LocationID: location.ID,
		Month:      groups[0].Key.Label(),
	}
	if err := storage.DB.Create(&file).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка сохранения файла отчёта",
			Details: err.Error(),
		})
		return
	}

	ids := make([]uint, 0, len(schedules))
	for _, s := range schedules {
		ids = append(ids, s.ID)
	}
	transferred, err := MarkTransferred(userID, ids, &file.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при обновлении статуса броней",
			Details: err.Error(),
		})
		return
	}

	ws.HubInstance.BroadcastWSMessage(ws.WSMessage{
		EventType: "report_exported",
		AccountID: strconv.Itoa(int(userID)),
		Data: map[string]interface{}{
			"file_id":   publicID,
			"file_name": fileName,
		},
	})

	c.JSON(http.StatusCreated, ExportResponse{
		FileID:      publicID,
		FileName:    fileName,
		Transferred: transferred,
	})
}
