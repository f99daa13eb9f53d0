package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// FlowRegistry — реестр анкет: пользователь → его Flow.
//
// Реестр единолично владеет всеми анкетами: создаёт при регистрации
// пользователя, уничтожает при удалении. Внутренних блокировок нет —
// как и Flow, реестр рассчитан на сериализацию со стороны сервисного
// слоя (см. AdmissionService).
type FlowRegistry struct {
	flows map[uuid.UUID]*Flow
	conds *Conditions
}

// CustomStep — описание шага для анкеты с нестандартным набором шагов.
type CustomStep struct {
	// Name — имя шага.
	Name string

	// Tasks — задачи шага. Пустой список заменяется одной задачей
	// с именем шага (см. Flow.AddStep).
	Tasks []*Task
}

// NewFlowRegistry создаёт пустой реестр поверх реестра условий.
func NewFlowRegistry(conds *Conditions) *FlowRegistry {
	return &FlowRegistry{
		flows: make(map[uuid.UUID]*Flow),
		conds: conds,
	}
}

// Create создаёт анкету со стандартным набором шагов приёмного
// процесса. Возвращает ErrUserExists, если анкета уже есть.
func (r *FlowRegistry) Create(userID uuid.UUID) (*Flow, error) {
	if _, ok := r.flows[userID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrUserExists, userID)
	}

	flow := NewFlow(userID, DefaultSteps(), r.conds)
	r.flows[userID] = flow
	return flow, nil
}

// CreateCustom создаёт анкету с переданным набором шагов.
// Шаги добавляются по порядку (индексы 0..n-1) с полной валидацией;
// любая ошибка оставляет реестр без новой анкеты.
func (r *FlowRegistry) CreateCustom(userID uuid.UUID, steps []CustomStep) (*Flow, error) {
	if _, ok := r.flows[userID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrUserExists, userID)
	}

	flow := NewFlow(userID, nil, r.conds)
	for _, s := range steps {
		if _, err := flow.AddStep(s.Name, s.Tasks, nil); err != nil {
			return nil, err
		}
	}

	r.flows[userID] = flow
	return flow, nil
}

// Get возвращает анкету пользователя.
func (r *FlowRegistry) Get(userID uuid.UUID) (*Flow, error) {
	flow, ok := r.flows[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	return flow, nil
}

// Delete уничтожает анкету пользователя.
func (r *FlowRegistry) Delete(userID uuid.UUID) error {
	if _, ok := r.flows[userID]; !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	delete(r.flows, userID)
	return nil
}

// Len возвращает количество анкет в реестре.
func (r *FlowRegistry) Len() int {
	return len(r.flows)
}
