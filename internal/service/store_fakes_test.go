package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Xfluence-org/xfluence-app-sub002/internal/model/entity"
	"github.com/Xfluence-org/xfluence-app-sub002/internal/repository"
	"github.com/google/uuid"
)

// memStore 内存存储，实现各服务的存储契约，用于不依赖数据库的测试。
// 锁语义与仓储层的条件更新一致：同一阶段的并发变更只有一个赢家。
type memStore struct {
	mu          sync.Mutex
	tasks       map[string]*entity.Task
	states      map[string]*entity.WorkflowState
	transitions []entity.WorkflowTransition
	drafts      map[string]*entity.ContentDraft
	reviews     []entity.ContentReview
	published   map[string]*entity.PublishedContent
	activities  []entity.ActivityLog

	failAppend bool
}

func newMemStore() *memStore {
	return &memStore{
		tasks:     make(map[string]*entity.Task),
		states:    make(map[string]*entity.WorkflowState),
		drafts:    make(map[string]*entity.ContentDraft),
		published: make(map[string]*entity.PublishedContent),
	}
}

func (m *memStore) seedTask(id, campaignID, influencerID string) *entity.Task {
	task := &entity.Task{
		ID:           id,
		CampaignID:   campaignID,
		InfluencerID: influencerID,
		Title:        "test task",
		Status:       entity.TaskStatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.tasks[id] = task
	return task
}

func stateKey(taskID, phase string) string {
	return taskID + "/" + phase
}

// --- WorkflowStore ---

func (m *memStore) ListByTask(ctx context.Context, taskID string) ([]entity.WorkflowState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []entity.WorkflowState
	for _, phase := range entity.PhaseOrder {
		if st, ok := m.states[stateKey(taskID, phase)]; ok {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (m *memStore) FindByTaskPhase(ctx context.Context, taskID, phase string) (*entity.WorkflowState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[stateKey(taskID, phase)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (m *memStore) CreateIfAbsent(ctx context.Context, state *entity.WorkflowState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := stateKey(state.TaskID, state.Phase)
	if _, ok := m.states[key]; ok {
		return nil
	}
	cp := *state
	m.states[key] = &cp
	return nil
}

func (m *memStore) UpdateStatusIf(ctx context.Context, taskID, phase, expectedStatus, newStatus, actorID string) (*entity.WorkflowState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[stateKey(taskID, phase)]
	if !ok || st.Status != expectedStatus {
		return nil, repository.ErrStaleStatus
	}

	now := time.Now()
	st.Status = newStatus
	st.UpdatedAt = now
	if newStatus == entity.WorkflowStatusInProgress && expectedStatus != entity.WorkflowStatusInProgress {
		st.StartedAt = &now
	}
	if newStatus == entity.WorkflowStatusCompleted {
		st.CompletedAt = &now
	}

	m.transitions = append(m.transitions, entity.WorkflowTransition{
		ID:         uuid.New().String()[:32],
		TaskID:     taskID,
		Phase:      phase,
		FromStatus: expectedStatus,
		ToStatus:   newStatus,
		ActorID:    actorID,
		CreatedAt:  now,
	})

	cp := *st
	return &cp, nil
}

func (m *memStore) ListTransitions(ctx context.Context, taskID string) ([]entity.WorkflowTransition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []entity.WorkflowTransition
	for _, tr := range m.transitions {
		if tr.TaskID == taskID {
			out = append(out, tr)
		}
	}
	return out, nil
}

func (m *memStore) CountCompleted(ctx context.Context, taskID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, phase := range entity.PhaseOrder {
		if st, ok := m.states[stateKey(taskID, phase)]; ok && st.Status == entity.WorkflowStatusCompleted {
			n++
		}
	}
	return n, nil
}

// --- TaskStore ---

func (m *memStore) FindByID(ctx context.Context, id string) (*entity.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *task
	return &cp, nil
}

func (m *memStore) UpdateProgress(ctx context.Context, id string, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return repository.ErrNotFound
	}
	task.Progress = progress
	task.UpdatedAt = time.Now()
	return nil
}

func (m *memStore) Update(ctx context.Context, task *entity.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[task.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *task
	m.tasks[task.ID] = &cp
	return nil
}

// --- DraftStore ---

type draftStore struct {
	m *memStore
}

func (m *memStore) FindDraftByID(ctx context.Context, id string) (*entity.ContentDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	draft, ok := m.drafts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *draft
	return &cp, nil
}

func (m *memStore) CreateDraft(ctx context.Context, draft *entity.ContentDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *draft
	m.drafts[draft.ID] = &cp
	return nil
}

func (m *memStore) MarkShared(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	draft, ok := m.drafts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !draft.Shared {
		now := time.Now()
		draft.Shared = true
		draft.SharedAt = &now
	}
	return nil
}

func (m *memStore) ListDraftsByTask(ctx context.Context, taskID string) ([]entity.ContentDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []entity.ContentDraft
	for _, d := range m.drafts {
		if d.TaskID == taskID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) FindCurrentByTask(ctx context.Context, taskID string) (*entity.ContentDraft, error) {
	drafts, _ := m.ListDraftsByTask(ctx, taskID)
	if len(drafts) == 0 {
		return nil, repository.ErrNotFound
	}
	cp := drafts[len(drafts)-1]
	return &cp, nil
}

func (f draftStore) FindByID(ctx context.Context, id string) (*entity.ContentDraft, error) {
	return f.m.FindDraftByID(ctx, id)
}

func (f draftStore) Create(ctx context.Context, draft *entity.ContentDraft) error {
	return f.m.CreateDraft(ctx, draft)
}

func (f draftStore) MarkShared(ctx context.Context, id string) error {
	return f.m.MarkShared(ctx, id)
}

func (f draftStore) ListByTask(ctx context.Context, taskID string) ([]entity.ContentDraft, error) {
	return f.m.ListDraftsByTask(ctx, taskID)
}

func (f draftStore) FindCurrentByTask(ctx context.Context, taskID string) (*entity.ContentDraft, error) {
	return f.m.FindCurrentByTask(ctx, taskID)
}

// --- ReviewStore ---

type reviewStore struct {
	m *memStore
}

func (f reviewStore) Create(ctx context.Context, review *entity.ContentReview) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()

	f.m.reviews = append(f.m.reviews, *review)
	return nil
}

func (f reviewStore) ListByTask(ctx context.Context, taskID string) ([]entity.ContentReview, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()

	var out []entity.ContentReview
	for _, r := range f.m.reviews {
		if r.TaskID == taskID {
			out = append(out, r)
		}
	}
	return out, nil
}

// --- PublishedStore ---

type publishedStore struct {
	m *memStore
}

func (f publishedStore) Upsert(ctx context.Context, content *entity.PublishedContent) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()

	key := content.TaskID + "/" + content.InfluencerID
	if existing, ok := f.m.published[key]; ok {
		existing.URL = content.URL
		existing.Platform = content.Platform
		existing.Status = content.Status
		existing.UpdatedAt = time.Now()
		return nil
	}
	cp := *content
	f.m.published[key] = &cp
	return nil
}

func (f publishedStore) FindByTaskInfluencer(ctx context.Context, taskID, influencerID string) (*entity.PublishedContent, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()

	content, ok := f.m.published[taskID+"/"+influencerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *content
	return &cp, nil
}

// --- ActivityStore ---

type activityStore struct {
	m *memStore
}

func (f activityStore) Append(ctx context.Context, log *entity.ActivityLog) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()

	if f.m.failAppend {
		return fmt.Errorf("activity sink unavailable")
	}
	f.m.activities = append(f.m.activities, *log)
	return nil
}

func (f activityStore) ListByTask(ctx context.Context, taskID string) ([]entity.ActivityLog, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()

	var out []entity.ActivityLog
	for _, a := range f.m.activities {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f activityStore) ListByCampaign(ctx context.Context, campaignID string, page, pageSize int) ([]entity.ActivityLog, int64, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()

	var all []entity.ActivityLog
	for _, a := range f.m.activities {
		if a.CampaignID == campaignID {
			all = append(all, a)
		}
	}

	start := (page - 1) * pageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}
