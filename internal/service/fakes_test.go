package service

import (
	"context"
	"time"

	"gena-go/internal/entitlement"
	"gena-go/internal/model"
	"gena-go/internal/repository"
	"gena-go/pkg/llm"
)

// 本文件定义了服务层测试共用的仓库与客户端替身。

type fakeUserRepo struct {
	users   map[int64]*model.User
	creates int
	fail    bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User)}
}

func (r *fakeUserRepo) GetOrCreate(userID int64) (*model.User, error) {
	if r.fail {
		return nil, repository.ErrStorageUnavailable
	}
	if u, ok := r.users[userID]; ok {
		return u, nil
	}
	u := &model.User{UserID: userID, CreatedAt: time.Now()}
	r.users[userID] = u
	r.creates++
	return u, nil
}

func (r *fakeUserRepo) FindByID(userID int64) (*model.User, error) {
	if u, ok := r.users[userID]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Count() (int64, error) { return int64(len(r.users)), nil }

func (r *fakeUserRepo) Delete(userID int64) error {
	delete(r.users, userID)
	return nil
}

type fakePlanRepo struct {
	plans map[int64]*model.Plan
	fail  bool
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[int64]*model.Plan)}
}

func (r *fakePlanRepo) Get(userID int64) (*model.Plan, error) {
	if r.fail {
		return nil, repository.ErrStorageUnavailable
	}
	if p, ok := r.plans[userID]; ok {
		copied := *p
		return &copied, nil
	}
	return &model.Plan{UserID: userID, Tier: entitlement.TierFree}, nil
}

func (r *fakePlanRepo) Set(userID int64, tier string, expiration *time.Time) error {
	if r.fail {
		return repository.ErrStorageUnavailable
	}
	r.plans[userID] = &model.Plan{UserID: userID, Tier: tier, Expiration: expiration}
	return nil
}

func (r *fakePlanRepo) Distribution() (map[string]int64, error) {
	dist := make(map[string]int64)
	for _, p := range r.plans {
		dist[p.Tier]++
	}
	return dist, nil
}

type fakeSettingsRepo struct {
	settings map[int64]*model.Settings
	updates  []map[string]interface{}
	fail     bool
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: make(map[int64]*model.Settings)}
}

func (r *fakeSettingsRepo) Get(userID int64) (*model.Settings, error) {
	if r.fail {
		return nil, repository.ErrStorageUnavailable
	}
	if s, ok := r.settings[userID]; ok {
		copied := *s
		return &copied, nil
	}
	return &model.Settings{
		UserID:  userID,
		Model:   entitlement.DefaultModel(entitlement.TierFree),
		Persona: entitlement.DefaultPersona(entitlement.TierFree),
	}, nil
}

func (r *fakeSettingsRepo) Update(userID int64, fields map[string]interface{}) error {
	if r.fail {
		return repository.ErrStorageUnavailable
	}
	r.updates = append(r.updates, fields)
	s, ok := r.settings[userID]
	if !ok {
		s = &model.Settings{UserID: userID}
		r.settings[userID] = s
	}
	if v, ok := fields["model"]; ok {
		s.Model = v.(string)
	}
	if v, ok := fields["persona"]; ok {
		s.Persona = v.(string)
	}
	if v, ok := fields["system_instruction"]; ok {
		s.SystemInstruction = v.(string)
	}
	return nil
}

func (r *fakeSettingsRepo) PersonaCounts() (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, s := range r.settings {
		counts[s.Persona]++
	}
	return counts, nil
}

type fakeUsageRepo struct {
	usage    map[int64]*model.Usage
	failGet  bool
	failSave bool
	saves    int
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{usage: make(map[int64]*model.Usage)}
}

func (r *fakeUsageRepo) Get(userID int64) (*model.Usage, error) {
	if r.failGet {
		return nil, repository.ErrStorageUnavailable
	}
	if u, ok := r.usage[userID]; ok {
		copied := *u
		return &copied, nil
	}
	return &model.Usage{UserID: userID}, nil
}

func (r *fakeUsageRepo) Save(usage *model.Usage) error {
	if r.failSave {
		return repository.ErrStorageUnavailable
	}
	copied := *usage
	r.usage[usage.UserID] = &copied
	r.saves++
	return nil
}

type fakeHistoryRepo struct {
	entries map[int64][]model.MessageHistory
	fail    bool
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{entries: make(map[int64][]model.MessageHistory)}
}

func (r *fakeHistoryRepo) Append(userID int64, userMessage, botResponse string) error {
	if r.fail {
		return repository.ErrStorageUnavailable
	}
	r.entries[userID] = append(r.entries[userID], model.MessageHistory{
		UserID:      userID,
		UserMessage: userMessage,
		BotResponse: botResponse,
		CreatedAt:   time.Now(),
	})
	return nil
}

func (r *fakeHistoryRepo) Recent(userID int64, limit int) ([]model.MessageHistory, error) {
	if r.fail {
		return nil, repository.ErrStorageUnavailable
	}
	all := r.entries[userID]
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (r *fakeHistoryRepo) Clear(userID int64) error {
	delete(r.entries, userID)
	return nil
}

func (r *fakeHistoryRepo) Count() (int64, error) {
	var total int64
	for _, e := range r.entries {
		total += int64(len(e))
	}
	return total, nil
}

func (r *fakeHistoryRepo) TopUsers(limit int) ([]repository.UserMessageCount, error) {
	return nil, nil
}

func (r *fakeHistoryRepo) DailyCounts(since time.Time) (map[string]int64, error) {
	return map[string]int64{}, nil
}

type fakeTurnLock struct {
	busy     bool
	acquired int
	released int
}

func (l *fakeTurnLock) Acquire(ctx context.Context, userID int64) (func(), error) {
	if l.busy {
		return nil, repository.ErrTurnBusy
	}
	l.acquired++
	return func() { l.released++ }, nil
}

// fakeLLM 按调用次数依次返回预置的结果。
type fakeLLM struct {
	answers []string
	errs    []error
	calls   int
	// 记录每次调用的请求内容，供断言上下文深度
	contents     [][]llm.Content
	instructions []string
	models       []string
}

func (c *fakeLLM) GenerateContent(ctx context.Context, model string, contents []llm.Content, systemInstruction string) (string, error) {
	i := c.calls
	c.calls++
	c.contents = append(c.contents, contents)
	c.instructions = append(c.instructions, systemInstruction)
	c.models = append(c.models, model)
	if i < len(c.errs) && c.errs[i] != nil {
		return "", c.errs[i]
	}
	if i < len(c.answers) {
		return c.answers[i], nil
	}
	return "ok", nil
}

func (c *fakeLLM) StreamGenerateContent(ctx context.Context, model string, contents []llm.Content, systemInstruction string, writer llm.MessageWriter) error {
	return nil
}
