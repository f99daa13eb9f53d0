package engine

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shaiso/Admitto/internal/domain"
)

// Flow — упорядоченная последовательность шагов одного пользователя.
//
// Шаги упорядочены по Index по возрастанию; после удалений в нумерации
// допускаются разрывы — инвариант именно порядок, а не плотность.
// Flow не содержит внутренних блокировок: все мутации для одного
// пользователя обязан сериализовать вызывающий слой.
type Flow struct {
	// UserID — владелец анкеты.
	UserID uuid.UUID `json:"user_id"`

	// Steps — шаги анкеты, отсортированы по Index.
	Steps []*Step `json:"steps"`

	// conds — реестр условий, общий для всех анкет процесса.
	conds *Conditions
}

// Selector — выбор шага ровно одним способом: по имени или по индексу.
type Selector struct {
	// StepName — имя искомого шага.
	StepName *string

	// Index — индекс искомого шага.
	Index *int
}

// validate проверяет, что задан ровно один способ выбора.
func (s Selector) validate() error {
	if s.StepName != nil && s.Index != nil {
		return ErrAmbiguousSelector
	}
	if s.StepName == nil && s.Index == nil {
		return ErrMissingSelector
	}
	return nil
}

// NewFlow создаёт анкету из готового набора шагов.
// Шаги сортируются по Index; их валидность обеспечивает вызывающий
// (шаблон или AddStep).
func NewFlow(userID uuid.UUID, steps []*Step, conds *Conditions) *Flow {
	f := &Flow{
		UserID: userID,
		Steps:  steps,
		conds:  conds,
	}
	f.sortSteps()
	return f
}

// FindStep возвращает шаг по имени.
func (f *Flow) FindStep(name string) (*Step, error) {
	for _, s := range f.Steps {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrStepNotFound, name)
}

// CurrentStepAndTask возвращает текущий шаг (наименьший индекс среди
// невыполненных) и его текущую задачу (первая невыполненная в порядке
// вставки). Если все шаги выполнены — ErrFlowComplete; вызывающий
// слой превращает его в терминальный ответ «всё пройдено».
func (f *Flow) CurrentStepAndTask() (*Step, *Task, error) {
	for _, s := range f.Steps {
		if task := s.CurrentTask(); task != nil {
			return s, task, nil
		}
	}
	return nil, nil, ErrFlowComplete
}

// CompleteTask выполняет задачу в указанном шаге.
func (f *Flow) CompleteTask(stepName, taskName string, payload map[string]any) error {
	step, err := f.FindStep(stepName)
	if err != nil {
		return err
	}
	return step.CompleteTask(taskName, payload, f.conds)
}

// CompleteStep выполняет задачи шага целиком (см. Step.CompleteAll:
// всё или ничего).
func (f *Flow) CompleteStep(stepName string, stepPayload map[string]map[string]any) error {
	step, err := f.FindStep(stepName)
	if err != nil {
		return err
	}
	return step.CompleteAll(stepPayload, f.conds)
}

// AddStep вставляет новый шаг.
//
// Без индекса шаг добавляется в конец: max(Index)+1, либо 0 для пустой
// анкеты. С индексом: если позиция занята, все шаги с Index >= index
// сдвигаются на единицу вверх (стабильная перенумерация, никогда не
// перезаписывает); свободная позиция — в том числе за пределами
// максимума — занимается как есть. Пустой список задач заменяется
// одной задачей с именем шага без обязательных полей.
//
// Возвращает индекс, на который встал шаг.
func (f *Flow) AddStep(name string, tasks []*Task, index *int) (int, error) {
	if name == "" {
		return 0, NewValidationError("", "", "step_name",
			"Step name cannot be empty", ErrEmptyStepName)
	}
	if _, err := f.FindStep(name); err == nil {
		return 0, fmt.Errorf("%w: %q", ErrDuplicateStepName, name)
	}
	if len(tasks) == 0 {
		tasks = []*Task{NewTask(name, nil, nil)}
	}
	if err := validateTasks(tasks, f.conds); err != nil {
		return 0, err
	}

	var idx int
	switch {
	case index == nil:
		idx = f.nextIndex()
	case *index < 0:
		return 0, NewValidationError(name, "", "index",
			"Index out of range", ErrIndexOutOfRange)
	default:
		idx = *index
		if f.indexTaken(idx) {
			f.shiftFrom(idx)
		}
	}

	f.Steps = append(f.Steps, &Step{Name: name, Index: idx, Tasks: tasks})
	f.sortSteps()
	return idx, nil
}

// RemoveStep удаляет шаг по селектору. Оставшиеся индексы не
// уплотняются. Текущий (проходимый) шаг удалить нельзя.
// Возвращает удалённый шаг.
func (f *Flow) RemoveStep(sel Selector) (*Step, error) {
	if err := sel.validate(); err != nil {
		return nil, err
	}

	pos, step, err := f.locate(sel)
	if err != nil {
		return nil, err
	}

	if current, _, cErr := f.CurrentStepAndTask(); cErr == nil && current == step {
		return nil, fmt.Errorf("%w: %q", ErrStepInProgress, step.Name)
	}

	f.Steps = append(f.Steps[:pos], f.Steps[pos+1:]...)
	return step, nil
}

// ModifyStep переименовывает шаг и, если передан список задач,
// целиком заменяет его задачи свежими (прежний прогресс задач
// отбрасывается — это замена, а не слияние). Индекс шага не меняется.
// Возвращает изменённый шаг.
func (f *Flow) ModifyStep(newName string, sel Selector, tasks []*Task) (*Step, error) {
	if err := sel.validate(); err != nil {
		return nil, err
	}
	if newName == "" {
		return nil, NewValidationError("", "", "new_step_name",
			"Step name cannot be empty", ErrEmptyStepName)
	}

	_, step, err := f.locate(sel)
	if err != nil {
		return nil, err
	}

	if other, fErr := f.FindStep(newName); fErr == nil && other != step {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateStepName, newName)
	}

	if tasks != nil {
		if err := validateTasks(tasks, f.conds); err != nil {
			return nil, err
		}
	}

	step.Name = newName
	if tasks != nil {
		step.Tasks = tasks
	}
	return step, nil
}

// Status вычисляет сводный статус анкеты:
// ни одной выполненной задачи — Not Started; все шаги выполнены —
// Completed; иначе — In Progress. Правила проверяются по порядку,
// поэтому пустая анкета отчитывается как Not Started.
func (f *Flow) Status() domain.FlowStatus {
	anyCompleted := false
	allStepsCompleted := true

	for _, s := range f.Steps {
		for _, t := range s.Tasks {
			if t.Status.IsCompleted() {
				anyCompleted = true
			} else {
				allStepsCompleted = false
			}
		}
	}

	switch {
	case !anyCompleted:
		return domain.FlowStatusNotStarted
	case allStepsCompleted:
		return domain.FlowStatusCompleted
	default:
		return domain.FlowStatusInProgress
	}
}

// locate находит шаг по валидному селектору.
func (f *Flow) locate(sel Selector) (int, *Step, error) {
	if sel.StepName != nil {
		for i, s := range f.Steps {
			if s.Name == *sel.StepName {
				return i, s, nil
			}
		}
		return 0, nil, fmt.Errorf("%w: %q", ErrStepNotFound, *sel.StepName)
	}

	for i, s := range f.Steps {
		if s.Index == *sel.Index {
			return i, s, nil
		}
	}
	return 0, nil, fmt.Errorf("%w: no step at index %d", ErrStepNotFound, *sel.Index)
}

// nextIndex возвращает индекс для добавления в конец.
func (f *Flow) nextIndex() int {
	if len(f.Steps) == 0 {
		return 0
	}
	return f.Steps[len(f.Steps)-1].Index + 1
}

// indexTaken проверяет, занята ли позиция.
func (f *Flow) indexTaken(idx int) bool {
	for _, s := range f.Steps {
		if s.Index == idx {
			return true
		}
	}
	return false
}

// shiftFrom сдвигает все шаги с Index >= idx на единицу вверх.
func (f *Flow) shiftFrom(idx int) {
	for _, s := range f.Steps {
		if s.Index >= idx {
			s.Index++
		}
	}
}

// sortSteps сортирует шаги по Index.
func (f *Flow) sortSteps() {
	sort.SliceStable(f.Steps, func(i, j int) bool {
		return f.Steps[i].Index < f.Steps[j].Index
	})
}
