package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"dienstplan/internal/handlers"
	"dienstplan/internal/models"
	"dienstplan/internal/storage"
	"dienstplan/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func AuthMiddlewareTest() gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDStr := c.Request.Header.Get("X-Test-UserID")
		if userIDStr == "" {
			// Значение по умолчанию
			c.Set("userID", uint(1))
		} else {
			id, err := strconv.Atoi(userIDStr)
			if err != nil {
				c.Set("userID", uint(1))
			} else {
				c.Set("userID", uint(id))
			}
		}
		c.Next()
	}
}

func setupTestServer(t *testing.T) *httptest.Server {
	key := os.Getenv("ENV_CHEK")
	if key == "" {
		fmt.Println("Подключение к .env")
		err := godotenv.Load("../.env")
		if err != nil {
			log.Fatal("Ошибка получения .env")
		}
	}

	storage.ConnectTestingDatabase()

	if err := storage.DB.AutoMigrate(
		&models.Account{},
		&models.Location{},
		&models.Task{},
		&models.Schedule{},
		&models.ReportFile{},
	); err != nil {
		log.Fatal("Ошибка при миграции... ", err.Error())
	}
	storage.DB.Exec("TRUNCATE TABLE accounts, locations, tasks, schedules, report_files RESTART IDENTITY CASCADE;")

	storage.InitRedis()

	os.Setenv("FILES_DIR", t.TempDir())
	os.Setenv("REPORT_EMPLOYER", "Gemeinde Musterstadt")

	go ws.HubInstance.Run()

	r := gin.Default()

	api := r.Group("/api", AuthMiddlewareTest())
	{
		api.GET("/locations", handlers.GetLocationsHandler)
		api.POST("/locations", handlers.CreateLocationHandler)

		api.POST("/tasks", handlers.CreateTaskHandler)

		api.GET("/schedules", handlers.GetSchedulesHandler)
		api.POST("/schedules", handlers.CreateScheduleHandler)
		api.PATCH("/schedules/:id", handlers.UpdateScheduleHandler)
		api.DELETE("/schedules/:id", handlers.DeleteScheduleHandler)
		api.PATCH("/schedules/pdfStatus", handlers.UpdateSchedulesPDFStatusHandler)

		api.GET("/reports/:locationId", handlers.GetReportHandler)
		api.POST("/reports/:locationId/export", handlers.ExportReportHandler)

		api.GET("/files", handlers.GetFilesHandler)
		api.GET("/files/:id", handlers.DownloadFileHandler)
	}

	return httptest.NewServer(r)
}

func doJSON(t *testing.T, ts *httptest.Server, method, path string, userID uint, body interface{}) *http.Response {
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &payload)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-UserID", strconv.Itoa(int(userID)))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestReportFlow(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	// Тестовые аккаунты создаём напрямую в базе.
	require.NoError(t, storage.DB.Create(&models.Account{
		FirstName: "Jürgen", LastName: "Müller", Email: "mueller@example.com",
		PasswordHash: "x", Role: models.RoleUser,
	}).Error)
	require.NoError(t, storage.DB.Create(&models.Account{
		FirstName: "Anna", LastName: "Schmidt", Email: "schmidt@example.com",
		PasswordHash: "x", Role: models.RoleUser,
	}).Error)

	// 1. Место и вид деятельности.
	var location models.Location
	resp := doJSON(t, ts, http.MethodPost, "/api/locations", 1, gin.H{"title": "Gemeindehaus"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &location)

	var task models.Task
	resp = doJSON(t, ts, http.MethodPost, "/api/tasks", 1, gin.H{"title": "Putzen"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &task)

	day := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.Local)
	makeSchedule := func(userID uint, fromH, toH int) *http.Response {
		return doJSON(t, ts, http.MethodPost, "/api/schedules", userID, gin.H{
			"locationId": location.ID,
			"taskId":     task.ID,
			"timeFrom":   day.Add(time.Duration(fromH) * time.Hour).Format(time.RFC3339),
			"timeTo":     day.Add(time.Duration(toH) * time.Hour).Format(time.RFC3339),
		})
	}

	// 2. Две пересекающиеся брони одного аккаунта.
	resp = makeSchedule(1, 9, 12)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	resp = makeSchedule(1, 11, 14)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var schedules []models.Schedule
	resp = doJSON(t, ts, http.MethodGet, "/api/schedules", 1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &schedules)
	require.Len(t, schedules, 2)
	assert.True(t, schedules[0].HasConflict)
	assert.True(t, schedules[1].HasConflict)

	// 3. Валидация времени.
	resp = makeSchedule(1, 14, 14)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// 4. Предпросмотр отчёта.
	var report struct {
		LocationTitle string `json:"locationTitle"`
		Sections      []struct {
			Month string `json:"month"`
			Total string `json:"total"`
			Rows  []struct {
				Date string `json:"date"`
			} `json:"rows"`
		} `json:"sections"`
	}
	resp = doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/reports/%d", location.ID), 1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &report)
	require.Len(t, report.Sections, 1)
	assert.Equal(t, "Gemeindehaus", report.LocationTitle)
	assert.Equal(t, "März 2024", report.Sections[0].Month)
	assert.Equal(t, "6:00 Std.", report.Sections[0].Total)
	require.Len(t, report.Sections[0].Rows, 2)
	assert.Equal(t, "Di 05.03.", report.Sections[0].Rows[0].Date)

	// 5. Выгрузка в PDF.
	var export struct {
		FileID      string `json:"fileId"`
		FileName    string `json:"fileName"`
		Transferred []uint `json:"transferred"`
	}
	resp = doJSON(t, ts, http.MethodPost, fmt.Sprintf("/api/reports/%d/export", location.ID), 1, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &export)
	assert.Equal(t, "gemeindehaus_2024_03.pdf", export.FileName)
	assert.Len(t, export.Transferred, 2)

	// 6. Выгруженная бронь недоступна для изменения и удаления.
	resp = doJSON(t, ts, http.MethodPatch, fmt.Sprintf("/api/schedules/%d", schedules[0].ID), 1, gin.H{
		"locationId": location.ID,
		"taskId":     task.ID,
		"timeFrom":   day.Add(9 * time.Hour).Format(time.RFC3339),
		"timeTo":     day.Add(10 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
	resp = doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/api/schedules/%d", schedules[0].ID), 1, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// 7. Повторная выгрузка без новых броней.
	resp = doJSON(t, ts, http.MethodPost, fmt.Sprintf("/api/reports/%d/export", location.ID), 1, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// 8. Файл доступен для скачивания владельцу.
	var files []models.ReportFile
	resp = doJSON(t, ts, http.MethodGet, "/api/files", 1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &files)
	require.Len(t, files, 1)

	resp = doJSON(t, ts, http.MethodGet, "/api/files/"+export.FileID, 1, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), export.FileName)
	resp.Body.Close()

	// Чужой аккаунт файл не видит.
	resp = doJSON(t, ts, http.MethodGet, "/api/files/"+export.FileID, 2, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestReportPreviewIsOwnerScoped(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	require.NoError(t, storage.DB.Create(&models.Account{
		FirstName: "Jürgen", LastName: "Müller", Email: "mueller@example.com",
		PasswordHash: "x", Role: models.RoleUser,
	}).Error)
	require.NoError(t, storage.DB.Create(&models.Account{
		FirstName: "Anna", LastName: "Schmidt", Email: "schmidt@example.com",
		PasswordHash: "x", Role: models.RoleUser,
	}).Error)

	var location models.Location
	resp := doJSON(t, ts, http.MethodPost, "/api/locations", 1, gin.H{"title": "Gemeindehaus"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &location)

	var task models.Task
	resp = doJSON(t, ts, http.MethodPost, "/api/tasks", 1, gin.H{"title": "Putzen"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &task)

	day := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.Local)
	resp = doJSON(t, ts, http.MethodPost, "/api/schedules", 1, gin.H{
		"locationId": location.ID,
		"taskId":     task.ID,
		"timeFrom":   day.Add(9 * time.Hour).Format(time.RFC3339),
		"timeTo":     day.Add(12 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Владелец прогревает кэш предпросмотра.
	resp = doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/reports/%d", location.ID), 1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Чужой аккаунт не получает отчёт даже при прогретом кэше.
	resp = doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/reports/%d", location.ID), 2, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var errResp struct {
		Code string `json:"code"`
	}
	decode(t, resp, &errResp)
	assert.Equal(t, "LOCATION_NOT_FOUND", errResp.Code)
}

func TestPDFStatusBatchAndConflictVisibility(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	require.NoError(t, storage.DB.Create(&models.Account{
		FirstName: "Jürgen", LastName: "Müller", Email: "mueller@example.com",
		PasswordHash: "x", Role: models.RoleUser,
	}).Error)

	var location models.Location
	resp := doJSON(t, ts, http.MethodPost, "/api/locations", 1, gin.H{"title": "Gemeindehaus"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &location)

	var task models.Task
	resp = doJSON(t, ts, http.MethodPost, "/api/tasks", 1, gin.H{"title": "Putzen"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &task)

	day := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.Local)
	for _, hours := range [][2]int{{9, 12}, {11, 14}} {
		resp = doJSON(t, ts, http.MethodPost, "/api/schedules", 1, gin.H{
			"locationId": location.ID,
			"taskId":     task.ID,
			"timeFrom":   day.Add(time.Duration(hours[0]) * time.Hour).Format(time.RFC3339),
			"timeTo":     day.Add(time.Duration(hours[1]) * time.Hour).Format(time.RFC3339),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	var schedules []models.Schedule
	resp = doJSON(t, ts, http.MethodGet, "/api/schedules", 1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &schedules)
	require.Len(t, schedules, 2)

	// Пакетная пометка первой брони как выгруженной.
	var marked []uint
	resp = doJSON(t, ts, http.MethodPatch, "/api/schedules/pdfStatus", 1, gin.H{
		"ids": []uint{schedules[0].ID},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &marked)
	assert.Equal(t, []uint{schedules[0].ID}, marked)

	// Повторная пометка тех же ID ничего не обновляет.
	resp = doJSON(t, ts, http.MethodPatch, "/api/schedules/pdfStatus", 1, gin.H{
		"ids": []uint{schedules[0].ID},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &marked)
	assert.Empty(t, marked)

	// Фильтр untransferred скрывает выгруженную бронь, но конфликт с ней
	// по-прежнему виден на оставшейся.
	resp = doJSON(t, ts, http.MethodGet, "/api/schedules?untransferred=true", 1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &schedules)
	require.Len(t, schedules, 1)
	assert.False(t, schedules[0].IsTransferred)
	assert.True(t, schedules[0].HasConflict, "конфликт с выгруженной бронью должен быть виден")
}

func TestConflictsAreScopedToAccount(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	require.NoError(t, storage.DB.Create(&models.Account{
		FirstName: "Jürgen", LastName: "Müller", Email: "mueller@example.com",
		PasswordHash: "x", Role: models.RoleUser,
	}).Error)
	require.NoError(t, storage.DB.Create(&models.Account{
		FirstName: "Anna", LastName: "Schmidt", Email: "schmidt@example.com",
		PasswordHash: "x", Role: models.RoleUser,
	}).Error)

	day := time.Date(2024, time.April, 8, 0, 0, 0, 0, time.Local)
	for userID := uint(1); userID <= 2; userID++ {
		var location models.Location
		resp := doJSON(t, ts, http.MethodPost, "/api/locations", userID, gin.H{"title": "Sporthalle"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		decode(t, resp, &location)

		var task models.Task
		resp = doJSON(t, ts, http.MethodPost, "/api/tasks", userID, gin.H{"title": "Aufsicht"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		decode(t, resp, &task)

		// Одинаковое время у обоих аккаунтов.
		resp = doJSON(t, ts, http.MethodPost, "/api/schedules", userID, gin.H{
			"locationId": location.ID,
			"taskId":     task.ID,
			"timeFrom":   day.Add(9 * time.Hour).Format(time.RFC3339),
			"timeTo":     day.Add(12 * time.Hour).Format(time.RFC3339),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	for userID := uint(1); userID <= 2; userID++ {
		var schedules []models.Schedule
		resp := doJSON(t, ts, http.MethodGet, "/api/schedules", userID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decode(t, resp, &schedules)
		require.Len(t, schedules, 1)
		assert.False(t, schedules[0].HasConflict, "пересечения разных аккаунтов не конфликт")
	}
}
