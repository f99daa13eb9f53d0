package api

import (
	"log/slog"

	"github.com/shaiso/Admitto/internal/service"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	service *service.AdmissionService
	logger  *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Service *service.AdmissionService
	Logger  *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: cfg.Service,
		logger:  logger,
	}
}
