package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tgparser/internal/domain"
	"tgparser/internal/service"
	"tgparser/internal/testutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// mockParser is a mock for the Parser interface
type mockParser struct {
	mock.Mock
}

func (m *mockParser) StartEnumeration(ctx context.Context, groupLink string) (*domain.GroupInfo, error) {
	args := m.Called(ctx, groupLink)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GroupInfo), args.Error(1)
}

func (m *mockParser) GetMembers(ctx context.Context, groupID string) ([]domain.MemberRecord, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MemberRecord), args.Error(1)
}

func (m *mockParser) GroupInfo(groupID string) (*domain.GroupInfo, error) {
	args := m.Called(groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GroupInfo), args.Error(1)
}

func (m *mockParser) Progress(groupID string) (int, domain.JobState, bool) {
	args := m.Called(groupID)
	return args.Int(0), args.Get(1).(domain.JobState), args.Bool(2)
}

// mockStatus is a mock for the PoolStatusProvider interface
type mockStatus struct {
	mock.Mock
}

func (m *mockStatus) Status() domain.PoolStatus {
	args := m.Called()
	return args.Get(0).(domain.PoolStatus)
}

func newTestServer(parser Parser, status PoolStatusProvider) *echo.Echo {
	e := echo.New()
	h := NewHandler(parser, status, testutil.NewTestLogger())
	h.Register(e)
	return e
}

func TestHandler_ParseGroup(t *testing.T) {
	parser := new(mockParser)
	e := newTestServer(parser, new(mockStatus))

	group := testutil.NewTestGroup("-1001234567890", "Test Group", 120)
	parser.On("StartEnumeration", mock.Anything, "https://t.me/mygroup").Return(group, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/parse-group?group_link=https%3A%2F%2Ft.me%2Fmygroup", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, true, got["success"])

	data := got["data"].(map[string]any)
	assert.Equal(t, "-1001234567890", data["group_id"])
	assert.Equal(t, "Test Group", data["name"])

	parser.AssertExpectations(t)
}

func TestHandler_ParseGroup_AccessDenied(t *testing.T) {
	parser := new(mockParser)
	e := newTestServer(parser, new(mockStatus))

	parser.On("StartEnumeration", mock.Anything, "@private").Return(nil, service.ErrGroupAccessDenied)

	req := httptest.NewRequest(http.MethodPost, "/api/parse-group?group_link=%40private", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, false, got["success"])
	assert.Contains(t, got["error"], "admin rights")
}

func TestHandler_ParseGroup_InvalidLink(t *testing.T) {
	parser := new(mockParser)
	e := newTestServer(parser, new(mockStatus))

	parser.On("StartEnumeration", mock.Anything, "").Return(nil, service.ErrInvalidGroupLink)

	req := httptest.NewRequest(http.MethodPost, "/api/parse-group", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, false, got["success"])
	assert.Contains(t, got["error"], "invalid group link")
}

func TestHandler_GroupInfo(t *testing.T) {
	parser := new(mockParser)
	e := newTestServer(parser, new(mockStatus))

	group := testutil.NewTestGroup("-1001234567890", "Test Group", 120)
	parser.On("GroupInfo", "-1001234567890").Return(group, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/group-info/-1001234567890", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, true, got["success"])

	data := got["data"].(map[string]any)
	assert.Equal(t, "-1001234567890", data["group_id"])
	assert.Equal(t, float64(120), data["member_count"])

	parser.AssertExpectations(t)
}

func TestHandler_GroupInfo_UnknownGroup(t *testing.T) {
	parser := new(mockParser)
	e := newTestServer(parser, new(mockStatus))

	parser.On("GroupInfo", "-100999").Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/group-info/-100999", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var got map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, false, got["success"])
}

func TestHandler_GroupMembers(t *testing.T) {
	parser := new(mockParser)
	e := newTestServer(parser, new(mockStatus))

	members := testutil.NewTestMembers(1, 3)
	parser.On("GetMembers", mock.Anything, "-1001234567890").Return(members, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/group-members/-1001234567890", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got membersResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Success)
	assert.Len(t, got.Data, 3)
	assert.Equal(t, 3, got.TotalCount)
	assert.False(t, got.HasMore)
}

func TestHandler_GroupMembers_RetryExhausted(t *testing.T) {
	parser := new(mockParser)
	e := newTestServer(parser, new(mockStatus))

	parser.On("GetMembers", mock.Anything, "-1001234567890").
		Return(nil, service.ErrRetryBudgetExhausted)

	req := httptest.NewRequest(http.MethodGet, "/api/group-members/-1001234567890", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got membersResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Success)
	assert.NotEmpty(t, got.Error)
	assert.Empty(t, got.Data)
}

func TestHandler_Progress(t *testing.T) {
	parser := new(mockParser)
	e := newTestServer(parser, new(mockStatus))

	parser.On("Progress", "-1001234567890").Return(41, domain.JobPaging, true)

	req := httptest.NewRequest(http.MethodGet, "/api/group-members/-1001234567890/progress", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, true, got["success"])

	data := got["data"].(map[string]any)
	assert.Equal(t, float64(41), data["progress"])
	assert.Equal(t, "paging", data["state"])
}

func TestHandler_Progress_UnknownGroup(t *testing.T) {
	parser := new(mockParser)
	e := newTestServer(parser, new(mockStatus))

	parser.On("Progress", "unknown").Return(0, domain.JobState(""), false)

	req := httptest.NewRequest(http.MethodGet, "/api/group-members/unknown/progress", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_PoolStatus(t *testing.T) {
	status := new(mockStatus)
	e := newTestServer(new(mockParser), status)

	until := time.Now().Add(10 * time.Minute)
	status.On("Status").Return(domain.PoolStatus{
		TotalTokens:  2,
		ActiveTokens: 1,
		Tokens: []domain.CredentialView{
			{ID: "cred-0", Status: domain.CredentialAvailable, ErrorCount: 0},
			{ID: "cred-1", Status: domain.CredentialCooldown, ErrorCount: 2, CooldownUntil: &until},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/pool-status", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, float64(2), got["total_tokens"])
	assert.Equal(t, float64(1), got["active_tokens"])

	tokens := got["tokens"].([]any)
	assert.Len(t, tokens, 2)

	first := tokens[0].(map[string]any)
	assert.Equal(t, "cred-0", first["id"])
	assert.Equal(t, "available", first["status"])
	assert.Nil(t, first["cooldown_until"])

	second := tokens[1].(map[string]any)
	assert.Equal(t, "cooldown", second["status"])
	assert.NotNil(t, second["cooldown_until"])
}
