package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"gena-go/internal/entitlement"
	"gena-go/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatFixture struct {
	userRepo    *fakeUserRepo
	planRepo    *fakePlanRepo
	usageRepo   *fakeUsageRepo
	settings    *fakeSettingsRepo
	historyRepo *fakeHistoryRepo
	lock        *fakeTurnLock
	llm         *fakeLLM
	svc         ChatService
	now         time.Time
}

func newChatFixture() *chatFixture {
	f := &chatFixture{
		userRepo:    newFakeUserRepo(),
		planRepo:    newFakePlanRepo(),
		usageRepo:   newFakeUsageRepo(),
		settings:    newFakeSettingsRepo(),
		historyRepo: newFakeHistoryRepo(),
		lock:        &fakeTurnLock{},
		llm:         &fakeLLM{},
		now:         time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
	userSvc := newTestUserService(f.userRepo, f.planRepo, &f.now)
	limiter := &limiterService{
		usageRepo: f.usageRepo,
		now:       func() time.Time { return f.now },
		locks:     make(map[int64]*sync.Mutex),
	}
	f.svc = NewChatService(
		f.lock, userSvc, limiter, NewSettingsService(f.settings),
		f.historyRepo, f.llm, nil, nil,
	)
	return f
}

func TestHandleTextHappyPath(t *testing.T) {
	f := newChatFixture()
	f.llm.answers = []string{"hello there"}

	answer, err := f.svc.HandleText(context.Background(), 1, "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", answer)

	// 一轮问答落入历史
	entries := f.historyRepo.entries[1]
	require.Len(t, entries, 1)
	assert.Equal(t, "hi", entries[0].UserMessage)
	assert.Equal(t, "hello there", entries[0].BotResponse)

	// 锁取得并释放
	assert.Equal(t, 1, f.lock.acquired)
	assert.Equal(t, 1, f.lock.released)
}

func TestTurnPipelineDoesNotReprovisionUser(t *testing.T) {
	f := newChatFixture()
	f.llm.answers = []string{"hello there"}

	_, err := f.svc.HandleText(context.Background(), 1, "hi")
	require.NoError(t, err)

	// 建档由分发层负责，管线内不再额外查写用户表
	assert.Equal(t, 0, f.userRepo.creates)
}

func TestFreeTierSendsNoContext(t *testing.T) {
	f := newChatFixture()
	for i := 0; i < 3; i++ {
		require.NoError(t, f.historyRepo.Append(1, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)))
	}

	_, err := f.svc.HandleText(context.Background(), 1, "hi")
	require.NoError(t, err)

	// Free 档位回看 0 轮，contents 只有当前消息
	require.Len(t, f.llm.contents, 1)
	assert.Len(t, f.llm.contents[0], 1)
}

func TestContextDepthFollowsPlan(t *testing.T) {
	f := newChatFixture()
	require.NoError(t, f.planRepo.Set(1, entitlement.TierBasic, nil))
	for i := 0; i < 5; i++ {
		require.NoError(t, f.historyRepo.Append(1, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)))
	}

	_, err := f.svc.HandleText(context.Background(), 1, "hi")
	require.NoError(t, err)

	// Basic 回看 3 轮：3*2 条历史 + 1 条当前消息
	require.Len(t, f.llm.contents, 1)
	contents := f.llm.contents[0]
	require.Len(t, contents, 7)
	// 回看窗口取的是最近的轮次，顺序为旧到新
	assert.Equal(t, "q2", contents[0].Parts[0].Text)
	assert.Equal(t, "a2", contents[1].Parts[0].Text)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "hi", contents[6].Parts[0].Text)
}

func TestPersonaInstructionIsApplied(t *testing.T) {
	f := newChatFixture()
	require.NoError(t, f.planRepo.Set(1, entitlement.TierVIP, nil))
	require.NoError(t, f.settings.Update(1, map[string]interface{}{
		"model": "gemini-1.5-pro", "persona": "mystic",
	}))

	_, err := f.svc.HandleText(context.Background(), 1, "hi")
	require.NoError(t, err)

	require.Len(t, f.llm.instructions, 1)
	assert.Equal(t, entitlement.PersonaInstruction("mystic"), f.llm.instructions[0])
	assert.Equal(t, "gemini-1.5-pro", f.llm.models[0])
}

func TestRemoteFailureIsRetriedOnce(t *testing.T) {
	f := newChatFixture()
	f.llm.errs = []error{llm.ErrRemoteAPI, nil}
	f.llm.answers = []string{"", "recovered"}

	answer, err := f.svc.HandleText(context.Background(), 1, "hi")
	require.NoError(t, err)
	assert.Equal(t, "recovered", answer)
	assert.Equal(t, 2, f.llm.calls)
}

func TestRepeatedRemoteFailureDropsTurn(t *testing.T) {
	f := newChatFixture()
	f.llm.errs = []error{llm.ErrRemoteAPI, llm.ErrRemoteAPI}

	_, err := f.svc.HandleText(context.Background(), 1, "hi")
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Equal(t, 2, f.llm.calls)

	// 失败的轮次不进入历史
	assert.Empty(t, f.historyRepo.entries[1])
}

func TestRateLimitedTurnSkipsModelCall(t *testing.T) {
	f := newChatFixture()
	for i := 0; i < 5; i++ {
		f.llm.answers = append(f.llm.answers, "ok")
	}
	for i := 0; i < 5; i++ {
		_, err := f.svc.HandleText(context.Background(), 1, "hi")
		require.NoError(t, err)
	}

	_, err := f.svc.HandleText(context.Background(), 1, "one more")
	rl, ok := AsRateLimited(err)
	require.True(t, ok)
	assert.Equal(t, "message", rl.Scope)

	// 被限流的轮次不调用模型，也不写历史
	assert.Equal(t, 5, f.llm.calls)
	assert.Len(t, f.historyRepo.entries[1], 5)
}

func TestBusyUserIsRejected(t *testing.T) {
	f := newChatFixture()
	f.lock.busy = true

	_, err := f.svc.HandleText(context.Background(), 1, "hi")
	assert.Error(t, err)
	assert.Equal(t, 0, f.llm.calls)
}

func TestHandleImageConsumesBothWindows(t *testing.T) {
	f := newChatFixture()
	f.llm.answers = []string{"a cat", "a dog", "a bird", "?"}

	// Free 档位每天 3 张图
	for i := 0; i < 3; i++ {
		_, err := f.svc.HandleImage(context.Background(), 1, "what is this", []byte{1, 2}, "image/jpeg")
		require.NoError(t, err)
	}

	_, err := f.svc.HandleImage(context.Background(), 1, "what is this", []byte{1, 2}, "image/jpeg")
	rl, ok := AsRateLimited(err)
	require.True(t, ok)
	assert.Equal(t, "image", rl.Scope)

	// 图片同时占用分钟窗口
	assert.Equal(t, 4, f.usageRepo.usage[1].MinuteCount)
	assert.Equal(t, 3, f.usageRepo.usage[1].ImageCount)
}

func TestHandleImageSendsInlineData(t *testing.T) {
	f := newChatFixture()
	f.llm.answers = []string{"a cat"}

	_, err := f.svc.HandleImage(context.Background(), 1, "", []byte{0xFF, 0xD8}, "image/jpeg")
	require.NoError(t, err)

	require.Len(t, f.llm.contents, 1)
	current := f.llm.contents[0][len(f.llm.contents[0])-1]
	require.Len(t, current.Parts, 2)
	assert.Equal(t, "Describe this image.", current.Parts[0].Text)
	require.NotNil(t, current.Parts[1].InlineData)
	assert.Equal(t, "image/jpeg", current.Parts[1].InlineData.MimeType)
	assert.NotEmpty(t, current.Parts[1].InlineData.Data)
}

func TestClearHistoryIsIdempotent(t *testing.T) {
	f := newChatFixture()
	require.NoError(t, f.historyRepo.Append(1, "q", "a"))

	require.NoError(t, f.svc.ClearHistory(1))
	assert.Empty(t, f.historyRepo.entries[1])

	// 没有历史时清除同样成功
	assert.NoError(t, f.svc.ClearHistory(1))
}
