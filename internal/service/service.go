package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Admitto/internal/domain"
	"github.com/shaiso/Admitto/internal/engine"
	"github.com/shaiso/Admitto/internal/mq"
	"github.com/shaiso/Admitto/internal/repo"
	"github.com/shaiso/Admitto/internal/telemetry"
)

// AdmissionService — сервисный слой приёмной кампании.
//
// Сервис владеет идентичностью пользователей и сериализует доступ
// к движку: у движка нет собственных блокировок, поэтому все операции
// над анкетой пользователя проходят через его персональный RWMutex.
// Анкеты разных пользователей полностью независимы.
//
// Память сервиса — источник истины. Снимки в Postgres и события
// в RabbitMQ — необязательные побочные эффекты: их ошибки логируются
// и никогда не роняют операцию.
type AdmissionService struct {
	// Идентичность: пользователи, занятые email, персональные блокировки.
	// Сами карты защищены mu; содержимое анкеты — блокировкой пользователя.
	mu     sync.RWMutex
	users  map[uuid.UUID]*domain.User
	emails map[string]uuid.UUID
	locks  map[uuid.UUID]*sync.RWMutex

	// Реестр анкет (движок).
	registry *engine.FlowRegistry

	// Внешние зависимости (опциональны).
	snapshots *repo.SnapshotRepo
	publisher *mq.Publisher

	logger *slog.Logger
}

// Config — конфигурация AdmissionService.
type Config struct {
	// Registry — реестр анкет. Если nil, создаётся новый
	// с условиями по умолчанию.
	Registry *engine.FlowRegistry

	// Snapshots — операционное зеркало в Postgres (опционально).
	Snapshots *repo.SnapshotRepo

	// Publisher — публикация событий в RabbitMQ (опционально).
	Publisher *mq.Publisher

	// Logger
	Logger *slog.Logger
}

// New создаёт новый AdmissionService.
func New(cfg Config) *AdmissionService {
	registry := cfg.Registry
	if registry == nil {
		registry = engine.NewFlowRegistry(engine.DefaultConditions())
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &AdmissionService{
		users:     make(map[uuid.UUID]*domain.User),
		emails:    make(map[string]uuid.UUID),
		locks:     make(map[uuid.UUID]*sync.RWMutex),
		registry:  registry,
		snapshots: cfg.Snapshots,
		publisher: cfg.Publisher,
		logger:    logger,
	}
}

// StepView — срез шага для чтения без удержания блокировки.
type StepView struct {
	Name   string
	Index  int
	Status domain.StepStatus
}

// CurrentView — текущая позиция пользователя в анкете.
type CurrentView struct {
	StepName   string
	StepIndex  int
	StepStatus domain.StepStatus
	TaskName   string
	TaskStatus domain.TaskStatus
}

// --- Пользователи ---

// CreateUser заводит пользователя и создаёт ему анкету.
// customSteps пустой — пользователь получает шаблон по умолчанию.
func (s *AdmissionService) CreateUser(ctx context.Context, email string, customSteps []engine.CustomStep) (*domain.User, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:        uuid.New(),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created := *user

	s.mu.Lock()
	if _, taken := s.emails[email]; taken {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrEmailExists, email)
	}

	var (
		flow *engine.Flow
		err  error
	)
	if len(customSteps) > 0 {
		flow, err = s.registry.CreateCustom(user.ID, customSteps)
	} else {
		flow, err = s.registry.Create(user.ID)
	}
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	// Блокировку берём до публикации карт: конкурирующее
	// удаление дождётся записи снимка.
	lock := &sync.RWMutex{}
	lock.RLock()
	s.users[user.ID] = user
	s.emails[email] = user.ID
	s.locks[user.ID] = lock
	s.mu.Unlock()

	telemetry.UsersCreated.Inc()
	s.logger.Info("user created", "user_id", user.ID, "email", email)

	s.saveSnapshot(ctx, user, flow)
	lock.RUnlock()

	if s.publisher != nil {
		if err := s.publisher.PublishUserCreated(ctx, user.ID, email); err != nil {
			s.logger.Warn("failed to publish user.created", "user_id", user.ID, "error", err)
		}
	}

	return &created, nil
}

// GetUser возвращает копию пользователя.
func (s *AdmissionService) GetUser(userID uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	user, ok := s.users[userID]
	lock := s.locks[userID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", engine.ErrUserNotFound, userID)
	}

	lock.RLock()
	u := *user
	lock.RUnlock()
	return &u, nil
}

// ListUsers возвращает копии всех пользователей,
// отсортированные по времени создания.
func (s *AdmissionService) ListUsers() []domain.User {
	type entry struct {
		user *domain.User
		lock *sync.RWMutex
	}

	s.mu.RLock()
	entries := make([]entry, 0, len(s.users))
	for id, user := range s.users {
		entries = append(entries, entry{user: user, lock: s.locks[id]})
	}
	s.mu.RUnlock()

	users := make([]domain.User, 0, len(entries))
	for _, e := range entries {
		e.lock.RLock()
		users = append(users, *e.user)
		e.lock.RUnlock()
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID.String() < users[j].ID.String()
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users
}

// UpdateEmail меняет email пользователя с проверкой уникальности.
func (s *AdmissionService) UpdateEmail(ctx context.Context, userID uuid.UUID, email string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}

	user, lock, flow, err := s.handles(userID)
	if err != nil {
		return err
	}

	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	if _, still := s.users[userID]; !still {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", engine.ErrUserNotFound, userID)
	}
	if owner, taken := s.emails[email]; taken && owner != userID {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrEmailExists, email)
	}
	delete(s.emails, user.Email)
	s.emails[email] = userID
	s.mu.Unlock()

	user.ChangeEmail(email)
	s.logger.Info("email updated", "user_id", userID)

	s.saveSnapshot(ctx, user, flow)

	if s.publisher != nil {
		if err := s.publisher.PublishEmailUpdated(ctx, userID, email); err != nil {
			s.logger.Warn("failed to publish user.email_updated", "user_id", userID, "error", err)
		}
	}
	return nil
}

// DeleteUser удаляет пользователя вместе с анкетой.
func (s *AdmissionService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	s.mu.RLock()
	user, ok := s.users[userID]
	lock := s.locks[userID]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %q", engine.ErrUserNotFound, userID)
	}

	// Дожидаемся активных операций над анкетой
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	if _, still := s.users[userID]; !still {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", engine.ErrUserNotFound, userID)
	}
	delete(s.users, userID)
	delete(s.emails, user.Email)
	delete(s.locks, userID)
	_ = s.registry.Delete(userID)
	s.mu.Unlock()

	telemetry.UsersDeleted.Inc()
	s.logger.Info("user deleted", "user_id", userID)

	if s.snapshots != nil {
		if err := s.snapshots.Delete(ctx, userID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			s.logger.Warn("failed to delete snapshot", "user_id", userID, "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishUserDeleted(ctx, userID); err != nil {
			s.logger.Warn("failed to publish user.deleted", "user_id", userID, "error", err)
		}
	}
	return nil
}

// --- Чтение анкеты ---

// GetFlow возвращает шаги анкеты в порядке индексов.
func (s *AdmissionService) GetFlow(userID uuid.UUID) ([]StepView, error) {
	_, lock, flow, err := s.handles(userID)
	if err != nil {
		return nil, err
	}

	lock.RLock()
	defer lock.RUnlock()

	views := make([]StepView, 0, len(flow.Steps))
	for _, step := range flow.Steps {
		views = append(views, StepView{
			Name:   step.Name,
			Index:  step.Index,
			Status: step.Status(),
		})
	}
	return views, nil
}

// CurrentStep возвращает текущий шаг и задачу.
// Для полностью пройденной анкеты — engine.ErrFlowComplete.
func (s *AdmissionService) CurrentStep(userID uuid.UUID) (*CurrentView, error) {
	_, lock, flow, err := s.handles(userID)
	if err != nil {
		return nil, err
	}

	lock.RLock()
	defer lock.RUnlock()

	step, task, err := flow.CurrentStepAndTask()
	if err != nil {
		return nil, err
	}
	return &CurrentView{
		StepName:   step.Name,
		StepIndex:  step.Index,
		StepStatus: step.Status(),
		TaskName:   task.Name,
		TaskStatus: task.Status,
	}, nil
}

// FlowStatus возвращает статус анкеты пользователя.
func (s *AdmissionService) FlowStatus(userID uuid.UUID) (domain.FlowStatus, error) {
	_, lock, flow, err := s.handles(userID)
	if err != nil {
		return "", err
	}

	lock.RLock()
	defer lock.RUnlock()
	return flow.Status(), nil
}

// --- Прохождение анкеты ---

// CompleteTask выполняет задачу шага: формат значений проверяется
// до обращения к движку, сам движок проверяет присутствие полей
// и условие.
func (s *AdmissionService) CompleteTask(ctx context.Context, userID uuid.UUID, stepName, taskName string, payload map[string]any) error {
	user, lock, flow, err := s.handles(userID)
	if err != nil {
		return err
	}

	lock.Lock()
	defer lock.Unlock()

	step, err := flow.FindStep(stepName)
	if err != nil {
		return err
	}
	task, err := step.FindTask(taskName)
	if err != nil {
		return err
	}

	if err := precheckPayload(stepName, task, payload); err != nil {
		return err
	}

	// Повторное выполнение задачи обновляет payload; счётчики
	// и события отражают только переходы в Completed.
	wasTaskDone := task.Status.IsCompleted()
	wasStepDone := step.Status().IsCompleted()
	wasFlowDone := flow.Status() == domain.FlowStatusCompleted

	if err := flow.CompleteTask(stepName, taskName, payload); err != nil {
		if errors.Is(err, engine.ErrConditionNotMet) {
			telemetry.ConditionFailures.Inc()
		}
		return err
	}

	user.MarkActivity()
	if !wasTaskDone {
		telemetry.TasksCompleted.Inc()
	}
	s.logger.Info("task completed",
		"user_id", userID,
		"step_name", stepName,
		"task_name", taskName,
	)

	var completed []string
	if !wasTaskDone {
		completed = []string{taskName}
	}
	stepDone := !wasStepDone && step.Status().IsCompleted()
	flowDone := !wasFlowDone && flow.Status() == domain.FlowStatusCompleted
	if stepDone {
		telemetry.StepsCompleted.Inc()
	}
	if flowDone {
		telemetry.FlowsCompleted.Inc()
	}

	s.saveSnapshot(ctx, user, flow)
	s.publishProgress(ctx, userID, stepName, completed, stepDone, flowDone)
	return nil
}

// CompleteStep выполняет все невыполненные задачи шага разом,
// по принципу «всё или ничего».
func (s *AdmissionService) CompleteStep(ctx context.Context, userID uuid.UUID, stepName string, stepPayload map[string]map[string]any) error {
	user, lock, flow, err := s.handles(userID)
	if err != nil {
		return err
	}

	lock.Lock()
	defer lock.Unlock()

	step, err := flow.FindStep(stepName)
	if err != nil {
		return err
	}

	// Формат значений — в порядке задач. Отсутствие payload для
	// невыполненной задачи и неизвестные имена проверит движок.
	var completing []string
	for _, task := range step.Tasks {
		payload, given := stepPayload[task.Name]
		if !given {
			if !task.Status.IsCompleted() {
				break
			}
			continue
		}
		if !task.Status.IsCompleted() {
			completing = append(completing, task.Name)
		}
		if err := precheckPayload(stepName, task, payload); err != nil {
			return err
		}
	}

	wasStepDone := step.Status().IsCompleted()
	wasFlowDone := flow.Status() == domain.FlowStatusCompleted

	if err := flow.CompleteStep(stepName, stepPayload); err != nil {
		if errors.Is(err, engine.ErrConditionNotMet) {
			telemetry.ConditionFailures.Inc()
		}
		return err
	}

	user.MarkActivity()
	telemetry.TasksCompleted.Add(float64(len(completing)))
	s.logger.Info("step completed",
		"user_id", userID,
		"step_name", stepName,
		"tasks", len(completing),
	)

	stepDone := !wasStepDone && step.Status().IsCompleted()
	flowDone := !wasFlowDone && flow.Status() == domain.FlowStatusCompleted
	if stepDone {
		telemetry.StepsCompleted.Inc()
	}
	if flowDone {
		telemetry.FlowsCompleted.Inc()
	}

	s.saveSnapshot(ctx, user, flow)
	s.publishProgress(ctx, userID, stepName, completing, stepDone, flowDone)
	return nil
}

// --- Перестройка анкеты ---

// AddStep добавляет шаг в анкету. Возвращает занятый индекс.
func (s *AdmissionService) AddStep(ctx context.Context, userID uuid.UUID, stepName string, tasks []*engine.Task, index *int) (int, error) {
	user, lock, flow, err := s.handles(userID)
	if err != nil {
		return 0, err
	}

	lock.Lock()
	defer lock.Unlock()

	idx, err := flow.AddStep(stepName, tasks, index)
	if err != nil {
		return 0, err
	}

	user.MarkActivity()
	s.logger.Info("step added", "user_id", userID, "step_name", stepName, "index", idx)
	s.saveSnapshot(ctx, user, flow)
	return idx, nil
}

// RemoveStep удаляет шаг анкеты по имени или индексу.
func (s *AdmissionService) RemoveStep(ctx context.Context, userID uuid.UUID, sel engine.Selector) error {
	user, lock, flow, err := s.handles(userID)
	if err != nil {
		return err
	}

	lock.Lock()
	defer lock.Unlock()

	removed, err := flow.RemoveStep(sel)
	if err != nil {
		return err
	}

	user.MarkActivity()
	s.logger.Info("step removed", "user_id", userID, "step_name", removed.Name)
	s.saveSnapshot(ctx, user, flow)
	return nil
}

// ModifyStep переименовывает шаг и (опционально) заменяет его задачи.
func (s *AdmissionService) ModifyStep(ctx context.Context, userID uuid.UUID, newName string, sel engine.Selector, tasks []*engine.Task) error {
	user, lock, flow, err := s.handles(userID)
	if err != nil {
		return err
	}

	lock.Lock()
	defer lock.Unlock()

	modified, err := flow.ModifyStep(newName, sel, tasks)
	if err != nil {
		return err
	}

	user.MarkActivity()
	s.logger.Info("step modified", "user_id", userID, "step_name", modified.Name)
	s.saveSnapshot(ctx, user, flow)
	return nil
}

// --- Внутреннее ---

// handles возвращает пользователя, его блокировку и анкету.
func (s *AdmissionService) handles(userID uuid.UUID) (*domain.User, *sync.RWMutex, *engine.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %q", engine.ErrUserNotFound, userID)
	}
	flow, err := s.registry.Get(userID)
	if err != nil {
		return nil, nil, nil, err
	}
	return user, s.locks[userID], flow, nil
}

// precheckPayload повторяет порядок проверок движка, добавляя проверку
// формата: сначала отсутствующие поля, затем формат каждого значения.
func precheckPayload(stepName string, task *engine.Task, payload map[string]any) error {
	var missing []string
	for _, field := range task.RequiredFields {
		if _, ok := payload[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return engine.NewMissingFieldsError(stepName, task.Name, missing)
	}

	for _, field := range task.RequiredFields {
		if err := ValidateFieldValue(field, payload[field]); err != nil {
			var vErr *engine.ValidationError
			if errors.As(err, &vErr) {
				vErr.Step = stepName
				vErr.Task = task.Name
			}
			return err
		}
	}
	return nil
}

// saveSnapshot пишет операционное зеркало анкеты. Ошибки не фатальны.
// Вызывается под блокировкой пользователя.
func (s *AdmissionService) saveSnapshot(ctx context.Context, user *domain.User, flow *engine.Flow) {
	if s.snapshots == nil {
		return
	}

	state, err := json.Marshal(flow.Steps)
	if err != nil {
		s.logger.Warn("failed to marshal flow state", "user_id", user.ID, "error", err)
		return
	}

	var current string
	if step, _, err := flow.CurrentStepAndTask(); err == nil {
		current = step.Name
	}

	snap := &domain.FlowSnapshot{
		UserID:      user.ID,
		Email:       user.Email,
		Status:      flow.Status(),
		CurrentStep: current,
		State:       state,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
	if err := s.snapshots.Save(ctx, snap); err != nil {
		s.logger.Warn("failed to save snapshot", "user_id", user.ID, "error", err)
	}
}

// publishProgress публикует события о ходе анкеты. Ошибки не фатальны.
func (s *AdmissionService) publishProgress(ctx context.Context, userID uuid.UUID, stepName string, tasks []string, stepDone, flowDone bool) {
	if s.publisher == nil {
		return
	}

	for _, taskName := range tasks {
		err := s.publisher.PublishTaskCompleted(ctx, mq.TaskCompletedPayload{
			UserID:   userID,
			StepName: stepName,
			TaskName: taskName,
		})
		if err != nil {
			s.logger.Warn("failed to publish task.completed", "user_id", userID, "error", err)
		}
	}

	if stepDone {
		err := s.publisher.PublishStepCompleted(ctx, mq.StepCompletedPayload{
			UserID:   userID,
			StepName: stepName,
		})
		if err != nil {
			s.logger.Warn("failed to publish step.completed", "user_id", userID, "error", err)
		}
	}

	if flowDone {
		if err := s.publisher.PublishFlowCompleted(ctx, userID); err != nil {
			s.logger.Warn("failed to publish flow.completed", "user_id", userID, "error", err)
		}
	}
}
