package logging

import (
	"fmt"
	"os"
	"sort"
	"sync"
)

// Компоненты генератора с собственными файлами логов
const (
	ComponentWorld  = "world"
	ComponentRender = "render"
	ComponentAPI    = "api"
	ComponentEvents = "events"
)

// LoggerManager хранит по одному логгеру на компонент и общий консольный уровень
type LoggerManager struct {
	mu           sync.Mutex
	loggers      map[string]*Logger
	consoleLevel LogLevel
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// NewLoggerManager создает пустой менеджер с консольным уровнем INFO
func NewLoggerManager() *LoggerManager {
	return &LoggerManager{
		loggers:      make(map[string]*Logger),
		consoleLevel: INFO,
	}
}

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = NewLoggerManager()
	})
	return globalManager
}

// GetLogger возвращает логгер компонента, при первом вызове открывая его файл
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if logger, ok := lm.loggers[component]; ok {
		return logger, nil
	}

	logger, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("логгер компонента %s: %w", component, err)
	}
	logger.minConsoleLevel = lm.consoleLevel

	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger возвращает логгер компонента; если файл не открылся - только консоль
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err == nil {
		return logger
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if cached, ok := lm.loggers[component]; ok {
		return cached
	}
	fallback := NewConsoleLogger(component, os.Stdout, lm.consoleLevel)
	fallback.Warn("Файл логов недоступен, пишем только в консоль: %v", err)
	lm.loggers[component] = fallback
	return fallback
}

// SetConsoleLevel меняет консольный уровень у всех компонентов, включая будущие.
// Файлы продолжают писать всё начиная с TRACE.
func (lm *LoggerManager) SetConsoleLevel(level LogLevel) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lm.consoleLevel = level
	for _, logger := range lm.loggers {
		logger.minConsoleLevel = level
	}
}

// SetLogLevel устанавливает уровни одного компонента
func (lm *LoggerManager) SetLogLevel(component string, consoleLevel, fileLevel LogLevel) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	logger, ok := lm.loggers[component]
	if !ok {
		return fmt.Errorf("логгер компонента %s не создан", component)
	}
	logger.SetLevels(consoleLevel, fileLevel)
	return nil
}

// ListComponents возвращает имена созданных логгеров по алфавиту
func (lm *LoggerManager) ListComponents() []string {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	components := make([]string, 0, len(lm.loggers))
	for component := range lm.loggers {
		components = append(components, component)
	}
	sort.Strings(components)
	return components
}

// CloseAll закрывает файлы всех компонентов и забывает их
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var lastErr error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			lastErr = fmt.Errorf("закрытие логгера %s: %w", component, err)
		}
	}
	lm.loggers = make(map[string]*Logger)
	return lastErr
}

func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetWorldLogger() *Logger  { return GetComponentLogger(ComponentWorld) }
func GetRenderLogger() *Logger { return GetComponentLogger(ComponentRender) }
func GetAPILogger() *Logger    { return GetComponentLogger(ComponentAPI) }
func GetEventsLogger() *Logger { return GetComponentLogger(ComponentEvents) }
