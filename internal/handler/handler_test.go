package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/jobs"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/metrics"
)

type memoryStore struct {
	mu   sync.Mutex
	jobs map[string]domain.GenerationJob
}

func (m *memoryStore) Save(ctx context.Context, job *domain.GenerationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *memoryStore) Get(ctx context.Context, id string) (*domain.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, jobs.ErrJobNotFound
	}
	return &job, nil
}

type recordPublisher struct {
	mu     sync.Mutex
	queues []string
	bodies [][]byte
}

func (p *recordPublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queues = append(p.queues, key)
	p.bodies = append(p.bodies, msg.Body)
	return nil
}

type testEnv struct {
	handler   *Handler
	store     *memoryStore
	publisher *recordPublisher
}

func newTestEnv(t *testing.T, overrides ...func(cfg *config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.InitialAdmin.Username = "admin"
	cfg.InitialAdmin.Password = "secret"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 1
	cfg.Scheduler.PopulationSize = 20
	cfg.Scheduler.MaxGenerations = 10
	cfg.Scheduler.CrossoverRate = 0.7
	cfg.Scheduler.MutationRate = 0.2
	cfg.Scheduler.SwapRate = 0.2
	cfg.Scheduler.VenueRate = 0.5
	cfg.Scheduler.TournamentSize = 3
	cfg.Scheduler.Timeout = 10
	cfg.Redis.OperationExpiration = 5
	cfg.RabbitMQ.PublishTimeout = 5
	for _, override := range overrides {
		override(cfg)
	}

	env := &testEnv{
		store:     &memoryStore{jobs: make(map[string]domain.GenerationJob)},
		publisher: &recordPublisher{},
	}

	h, err := NewHandler(cfg, nil, env.publisher, env.store)
	require.NoError(t, err)
	h.RegisterRoutes()
	env.handler = h

	return env
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path, body string, header http.Header) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range header {
		req.Header[k] = v
	}

	rec := httptest.NewRecorder()
	e.handler.Mux.ServeHTTP(rec, req)

	var resp envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

const fourTeamBody = `{
	"teams": ["A", "B", "C", "D"],
	"venues": ["V1", "V2"],
	"timeSlots": ["2025-03-01T18:00", "2025-03-08T18:00"],
	"teamStrengths": {"A": 5, "B": 5, "C": 1, "D": 1},
	"seed": 1
}`

func TestGenerateSchedule(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/schedules/generate", fourTeamBody, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success, resp.Message)

	var result domain.LeagueSchedule
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Len(t, result.Schedule, 2)
	assert.Len(t, result.TimeSlots, 2)
	assert.Equal(t, int64(1), result.Seed)
	assert.Len(t, result.GenerationStats, 11)
	for _, round := range result.Schedule {
		assert.Len(t, round, 2)
	}
}

func TestGenerateSchedule_Deterministic(t *testing.T) {
	env := newTestEnv(t)

	_, first := env.do(t, http.MethodPost, "/schedules/generate", fourTeamBody, nil)
	_, second := env.do(t, http.MethodPost, "/schedules/generate", fourTeamBody, nil)

	var a, b domain.LeagueSchedule
	require.NoError(t, json.Unmarshal(first.Data, &a))
	require.NoError(t, json.Unmarshal(second.Data, &b))
	assert.Equal(t, a.Schedule, b.Schedule)
	assert.Equal(t, a.Fitness, b.Fitness)
}

func TestGenerateSchedule_Rejected(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{
			name:    "odd team count",
			body:    `{"teams":["A","B","C"],"venues":["V1"],"timeSlots":["2025-03-01T18:00"],"teamStrengths":{"A":1,"B":1,"C":1}}`,
			message: "偶数",
		},
		{
			name:    "missing strength",
			body:    `{"teams":["A","B"],"venues":["V1"],"timeSlots":["2025-03-01T18:00"],"teamStrengths":{"A":1}}`,
			message: "实力评分",
		},
		{
			name: "bad time slot",
			body: `{"teams":["A","B"],"venues":["V1"],"timeSlots":["2025/03/01"],"teamStrengths":{"A":1,"B":1}}`,
		},
		{
			name:    "unordered time slots",
			body:    `{"teams":["A","B"],"venues":["V1"],"timeSlots":["2025-03-08T18:00","2025-03-01T18:00"],"teamStrengths":{"A":1,"B":1}}`,
			message: "必须晚于",
		},
		{
			name: "no venues",
			body: `{"teams":["A","B"],"venues":[],"timeSlots":["2025-03-01T18:00"],"teamStrengths":{"A":1,"B":1}}`,
		},
		{
			name:    "empty body",
			body:    "",
			message: "请求体不能为空",
		},
		{
			name:    "malformed json",
			body:    `{"teams":`,
			message: "JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := env.do(t, http.MethodPost, "/schedules/generate", tt.body, nil)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Message, tt.message)
		})
	}
}

func TestCheckSchedule(t *testing.T) {
	env := newTestEnv(t)

	body := `{
		"schedule": [[{"home":"A","away":"B","venue":"V1"},{"home":"A","away":"C","venue":"V1"}]],
		"teamStrengths": {"A": 5, "B": 5, "C": 1}
	}`
	_, resp := env.do(t, http.MethodPost, "/schedules/check", body, nil)
	require.True(t, resp.Success, resp.Message)

	var result domain.ScheduleCheckResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.False(t, result.Feasible)
	assert.NotEmpty(t, result.Violations)

	body = `{
		"schedule": [[{"home":"A","away":"B","venue":"V1"},{"home":"C","away":"D","venue":"V2"}]],
		"teamStrengths": {"A": 5, "B": 1, "C": 3, "D": 3}
	}`
	_, resp = env.do(t, http.MethodPost, "/schedules/check", body, nil)
	require.True(t, resp.Success, resp.Message)
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.True(t, result.Feasible)
	assert.Empty(t, result.Violations)
	assert.Equal(t, 4.0, result.Fitness)

	body = `{"schedule": [[{"home":"A","away":"X","venue":"V1"}]], "teamStrengths": {"A": 5}}`
	_, resp = env.do(t, http.MethodPost, "/schedules/check", body, nil)
	assert.False(t, resp.Success)
}

func TestScheduleJobs(t *testing.T) {
	env := newTestEnv(t)

	body := strings.Replace(fourTeamBody, `"seed": 1`, `"seed": 1, "notifyEmail": "coach@example.com"`, 1)
	_, resp := env.do(t, http.MethodPost, "/schedules/jobs/", body, nil)
	require.True(t, resp.Success, resp.Message)

	var job domain.GenerationJob
	require.NoError(t, json.Unmarshal(resp.Data, &job))
	assert.Equal(t, domain.JobStatusPending, job.Status)
	assert.Equal(t, "coach@example.com", job.NotifyEmail)

	require.Len(t, env.publisher.queues, 1)
	assert.Equal(t, jobs.ScheduleQueue, env.publisher.queues[0])

	_, resp = env.do(t, http.MethodGet, "/schedules/jobs/"+job.ID, "", nil)
	require.True(t, resp.Success, resp.Message)

	var fetched domain.GenerationJob
	require.NoError(t, json.Unmarshal(resp.Data, &fetched))
	assert.Equal(t, job.ID, fetched.ID)
	assert.Equal(t, []string{"A", "B", "C", "D"}, fetched.Request.Teams)

	_, resp = env.do(t, http.MethodGet, "/schedules/jobs/9b2f6f0e-4c39-4f0e-8a43-0c0f2e6a9d11", "", nil)
	assert.False(t, resp.Success)
	assert.Equal(t, jobs.ErrJobNotFound.Error(), resp.Message)

	_, resp = env.do(t, http.MethodGet, "/schedules/jobs/not-a-uuid", "", nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "任务ID无效", resp.Message)
}

func TestScheduleJobs_InvalidInputIsNotQueued(t *testing.T) {
	env := newTestEnv(t)

	body := `{"teams":["A","B","C"],"venues":["V1"],"timeSlots":["2025-03-01T18:00"],"teamStrengths":{"A":1,"B":1,"C":1}}`
	_, resp := env.do(t, http.MethodPost, "/schedules/jobs/", body, nil)

	assert.False(t, resp.Success)
	assert.Empty(t, env.publisher.queues)
	assert.Empty(t, env.store.jobs)
}

func TestGenerationOptionsConflictingWithConfig(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Scheduler.EliteCount = 4
	})
	body := strings.Replace(fourTeamBody, `"seed": 1`, `"seed": 1, "populationSize": 3`, 1)

	rec, resp := env.do(t, http.MethodPost, "/schedules/generate", body, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "精英数量")

	rec, resp = env.do(t, http.MethodPost, "/schedules/jobs/", body, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "精英数量")
	assert.Empty(t, env.publisher.queues)
	assert.Empty(t, env.store.jobs)

	// 不覆盖种群大小时使用配置中的 20，精英数量 4 合法
	_, resp = env.do(t, http.MethodPost, "/schedules/generate", fourTeamBody, nil)
	assert.True(t, resp.Success, resp.Message)
}

func signToken(t *testing.T, secret, role string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Subject:   "admin",
		},
	})
	ss, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return ss
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t)

	_, resp := env.do(t, http.MethodGet, "/teams/", "", nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "用户未登录", resp.Message)

	_, resp = env.do(t, http.MethodPost, "/auth/login", `{"username":"admin","password":"wrong"}`, nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "用户名不存在或密码错误", resp.Message)

	_, resp = env.do(t, http.MethodPost, "/auth/login", `{"username":"root","password":"secret"}`, nil)
	assert.False(t, resp.Success)

	rec, resp := env.do(t, http.MethodPost, "/auth/login", `{"username":"admin","password":"secret"}`, nil)
	require.True(t, resp.Success, resp.Message)

	var cookieFound bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == tokenCookieName {
			cookieFound = true
			assert.True(t, c.HttpOnly)
			assert.NotEmpty(t, c.Value)
		}
	}
	assert.True(t, cookieFound)

	bearer := func(token string) http.Header {
		return http.Header{"Authorization": []string{"Bearer " + token}}
	}

	_, resp = env.do(t, http.MethodGet, "/teams/", "", bearer(signToken(t, "other-secret", string(domain.RoleAdmin))))
	assert.False(t, resp.Success)
	assert.Equal(t, "无效的令牌", resp.Message)

	_, resp = env.do(t, http.MethodGet, "/teams/", "", bearer(signToken(t, "test-secret", "viewer")))
	assert.False(t, resp.Success)
	assert.Equal(t, "权限不足", resp.Message)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.RegisterDefault()
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/schedules/generate", fourTeamBody, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	env.handler.Mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, `schedule_runs_total{outcome=`)
}

func TestReadJSON_BodyTooLarge(t *testing.T) {
	env := newTestEnv(t)

	body := `{"teams":["` + string(bytes.Repeat([]byte("A"), maxBodyBytes)) + `"]}`
	_, resp := env.do(t, http.MethodPost, "/schedules/generate", body, nil)

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "请求体不能超过")
}
