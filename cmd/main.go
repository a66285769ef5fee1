package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlekseyZapadovnikov/review-calibration/conf"
	"github.com/AlekseyZapadovnikov/review-calibration/internal/repository"
	"github.com/AlekseyZapadovnikov/review-calibration/internal/service"
	"github.com/AlekseyZapadovnikov/review-calibration/internal/web"
)

// main конфигурирует сервис, поднимает хранилище, сервисы и HTTP-сервер, а затем управляет их жизненным циклом.
func main() {
	// Берём путь до конфигурации из окружения либо используем значение по умолчанию.
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "./conf/config.json"
	}

	// Загружаем конфигурацию.
	config := conf.MustLoad(cfgPath)
	slog.Info("Configuration loaded successfully", "config_path", cfgPath)
	slog.Info("Database configuration", "host", config.DBConf.Host, "port", config.DBConf.Port, "user", config.DBConf.User, "database", config.DBConf.Name)

	// Создаём подключение к базе данных.
	ctx := context.Background()
	storage, err := repository.NewStorage(ctx, &config.DBConf)
	if err != nil {
		slog.Error("Database initialization failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database storage initialized successfully")

	// Storage одновременно реализует хранилища, справочник и провайдер материалов.
	mappingManager := service.NewMappingManager(storage, storage, storage)
	slog.Info("Mapping manager created successfully")

	calibrationManager := service.NewCalibrationManager(storage, storage, storage, storage)
	slog.Info("Calibration manager created successfully")

	// Поднимаем HTTP-сервер.
	server := web.New(config.HTTPServConf, calibrationManager, mappingManager)
	slog.Info("HTTP server created successfully", "address", server.Address)

	// Запускаем сервер в отдельной горутине.
	go func() {
		if err := server.Start(); err != nil && err.Error() != "http: Server closed" {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Review calibration service started successfully", "address", server.Address)

	// Ожидаем сигнал остановки для плавного завершения работы.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	// Выполняем корректное завершение сервера с тайм-аутом.
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	storage.Close()
	slog.Info("Server exited properly")
}
