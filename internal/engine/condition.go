package engine

import (
	"sort"
	"sync"
)

// Имена стандартных условий.
const (
	// CondIQScoreAboveThreshold — числовое значение строго больше 75.
	CondIQScoreAboveThreshold = "iq_score_above_threshold"

	// CondInterviewPassed — строковое значение равно "passed_interview".
	CondInterviewPassed = "interview_passed"
)

// iqThreshold — проходной балл IQ-теста.
const iqThreshold = 75

// Predicate — чистая функция-условие над значением поля payload.
// Никогда не исполняемый код: условие выбирается по имени из реестра.
type Predicate func(value any) bool

// Condition — ссылка задачи на условие.
//
// Name — имя предиката в реестре условий, Var — имя поля payload,
// значение которого предикат получает на вход.
type Condition struct {
	// Name — имя зарегистрированного предиката.
	Name string `json:"name"`

	// Var — поле payload с проверяемым значением.
	Var string `json:"var"`
}

// Conditions — реестр условий.
//
// Позволяет регистрировать и получать предикаты по имени.
// Потокобезопасен: читается при каждом выполнении задачи,
// пополняется на старте процесса.
type Conditions struct {
	mu    sync.RWMutex
	preds map[string]Predicate
}

// NewConditions создаёт пустой реестр условий.
func NewConditions() *Conditions {
	return &Conditions{
		preds: make(map[string]Predicate),
	}
}

// DefaultConditions создаёт реестр со стандартными условиями
// приёмного процесса.
func DefaultConditions() *Conditions {
	c := NewConditions()

	c.Register(CondIQScoreAboveThreshold, func(value any) bool {
		score, ok := toFloat(value)
		return ok && score > iqThreshold
	})

	c.Register(CondInterviewPassed, func(value any) bool {
		decision, ok := value.(string)
		return ok && decision == "passed_interview"
	})

	return c
}

// Register регистрирует предикат под именем.
// Если имя уже занято, предикат будет перезаписан.
func (c *Conditions) Register(name string, p Predicate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.preds[name] = p
}

// Get возвращает предикат по имени.
func (c *Conditions) Get(name string) (Predicate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.preds[name]
	return p, ok
}

// Has проверяет, зарегистрировано ли условие.
func (c *Conditions) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.preds[name]
	return ok
}

// Names возвращает отсортированный список имён условий.
func (c *Conditions) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.preds))
	for name := range c.preds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count возвращает количество зарегистрированных условий.
func (c *Conditions) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.preds)
}

// toFloat приводит значение из JSON payload к float64.
// JSON-декодер отдаёт числа как float64, но задачи могут
// выполняться и с программно собранным payload.
func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	default:
		return 0, false
	}
}
