package tasks

import (
	"log"
	"os"
	"strconv"
	"time"

	"dienstplan/internal/models"
	"dienstplan/internal/storage"
	"dienstplan/internal/timesheet"

	"github.com/robfig/cron/v3"
)

// retentionDays возвращает срок хранения файлов отчётов в днях.
func retentionDays() int {
	if v := os.Getenv("FILE_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			return days
		}
	}
	return 730
}

// CleanOldReportFiles удаляет файлы отчётов старше срока хранения вместе с записями в базе.
func CleanOldReportFiles() {
	cutoff := time.Now().AddDate(0, 0, -retentionDays())

	var files []models.ReportFile
	if err := storage.DB.Where("created_at < ?", cutoff).Find(&files).Error; err != nil {
		log.Println("Ошибка при поиске устаревших файлов:", err)
		return
	}

	if len(files) == 0 {
		log.Println("Устаревших файлов отчётов не найдено.")
		return
	}

	for _, file := range files {
		if err := storage.DB.Model(&models.Schedule{}).
			Where("file_id = ?", file.ID).
			Update("file_id", nil).Error; err != nil {
			log.Println("Ошибка отвязки броней от файла", file.Name, ":", err)
			continue
		}
		if err := storage.DB.Delete(&file).Error; err != nil {
			log.Println("Ошибка удаления записи файла", file.Name, ":", err)
			continue
		}
		if err := os.Remove(file.Path); err != nil && !os.IsNotExist(err) {
			log.Println("Ошибка удаления файла с диска", file.Path, ":", err)
		} else {
			log.Printf("Файл '%s' удалён по сроку хранения.\n", file.Name)
		}
	}
}

// SweepConflicts пересчитывает конфликты по всем аккаунтам и пишет итог в лог.
// Данные при этом не изменяются, флаг конфликта вычисляется при каждой выдаче.
func SweepConflicts() {
	var schedules []models.Schedule
	if err := storage.DB.Where("is_transferred = false").Find(&schedules).Error; err != nil {
		log.Println("Ошибка при загрузке броней для проверки конфликтов:", err)
		return
	}

	schedules = timesheet.DetectConflicts(schedules)

	accounts := map[uint]int{}
	for _, s := range schedules {
		if s.HasConflict {
			accounts[s.AccountID]++
		}
	}

	if len(accounts) == 0 {
		log.Println("Конфликтов броней не обнаружено.")
		return
	}
	for accountID, count := range accounts {
		log.Printf("Аккаунт %d: конфликтующих броней %d\n", accountID, count)
	}
}

// InitScheduler инициализирует планировщик cron-задач.
func InitScheduler() *cron.Cron {
	c := cron.New(cron.WithSeconds())

	// Очистка устаревших файлов отчётов каждый день в 03:00.
	_, err := c.AddFunc("0 0 3 * * *", CleanOldReportFiles)
	if err != nil {
		log.Println("Ошибка запуска cron-задачи CleanOldReportFiles:", err)
	}

	// Проверка конфликтов каждый час.
	_, err = c.AddFunc("0 0 * * * *", SweepConflicts)
	if err != nil {
		log.Println("Ошибка запуска cron-задачи SweepConflicts:", err)
	}

	c.Start()
	return c
}
