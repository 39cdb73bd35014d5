package main

import (
	"fmt"
	"log"
	"os"

	_ "dienstplan/docs"
	"dienstplan/internal/auth"
	"dienstplan/internal/handlers"
	"dienstplan/internal/models"
	"dienstplan/internal/storage"
	"dienstplan/internal/tasks"
	"dienstplan/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @Title						Dienstplan: учёт рабочего времени и бронирований
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	key := os.Getenv("ENV_CHEK")
	if key == "" {
		fmt.Println("Подключение к .env")
		err := godotenv.Load()
		if err != nil {
			log.Fatal("Ошибка получения .env")
		}
	}

	storage.ConnectDatabase()

	if err := storage.DB.AutoMigrate(
		&models.Account{},
		&models.Location{},
		&models.Task{},
		&models.Schedule{},
		&models.ReportFile{},
	); err != nil {
		log.Fatal("Ошибка при миграции... ", err.Error())
	}

	storage.InitRedis()

	tasks.InitScheduler()

	go ws.HubInstance.Run()

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", handlers.Register)
		authGroup.POST("/login", handlers.Login)
		authGroup.POST("/refresh", handlers.RefreshToken)
	}

	api := r.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.GET("/profile", handlers.GetProfile)

		api.GET("/locations", handlers.GetLocationsHandler)
		api.POST("/locations", handlers.CreateLocationHandler)
		api.GET("/locations/:id", handlers.GetLocationHandler)
		api.PATCH("/locations/:id", handlers.UpdateLocationHandler)
		api.DELETE("/locations/:id", handlers.DeleteLocationHandler)

		api.GET("/tasks", handlers.GetTasksHandler)
		api.POST("/tasks", handlers.CreateTaskHandler)
		api.GET("/tasks/:id", handlers.GetTaskHandler)
		api.PATCH("/tasks/:id", handlers.UpdateTaskHandler)
		api.DELETE("/tasks/:id", handlers.DeleteTaskHandler)

		api.GET("/schedules", handlers.GetSchedulesHandler)
		api.POST("/schedules", handlers.CreateScheduleHandler)
		api.GET("/schedules/:id", handlers.GetScheduleHandler)
		api.PATCH("/schedules/:id", handlers.UpdateScheduleHandler)
		api.DELETE("/schedules/:id", handlers.DeleteScheduleHandler)
		api.PATCH("/schedules/pdfStatus", handlers.UpdateSchedulesPDFStatusHandler)

		api.GET("/reports/:locationId", handlers.GetReportHandler)
		api.POST("/reports/:locationId/export", handlers.ExportReportHandler)

		api.GET("/files", handlers.GetFilesHandler)
		api.GET("/files/:id", handlers.DownloadFileHandler)
		api.DELETE("/files/:id", handlers.DeleteFileHandler)

		api.GET("/ws", ws.ScheduleWebSocketHandler)
	}

	admin := r.Group("/api/admin")
	admin.Use(auth.AuthMiddleware(), auth.AdminMiddleware())
	{
		admin.GET("/accounts", handlers.GetAccountsHandler)
		admin.POST("/accounts", handlers.CreateAccountHandler)
		admin.GET("/accounts/:id", handlers.GetAccountHandler)
		admin.PATCH("/accounts/:id", handlers.UpdateAccountHandler)
		admin.DELETE("/accounts/:id", handlers.DeleteAccountHandler)
		admin.GET("/schedules", handlers.GetAllSchedulesHandler)
	}

	if err := r.Run(":8080"); err != nil {
		log.Fatal("Ошибка запуска сервера...", err.Error())
	}
}
