package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetflow/backend/internal/logging"
	"budgetflow/backend/internal/models"
	"budgetflow/backend/internal/store"
)

func TestValidExpoToken(t *testing.T) {
	tests := []struct {
		token string
		valid bool
	}{
		{"ExponentPushToken[abc123XYZ]", true},
		{"ExponentPushToken[x]", true},
		{"ExponentPushToken[]", false},
		{"ExpoPushToken[abc]", false},
		{"abc123", false},
		{"", false},
		{"ExponentPushToken[abc", false},
	}

	for _, tc := range tests {
		t.Run(tc.token, func(t *testing.T) {
			assert.Equal(t, tc.valid, ValidExpoToken(tc.token))
		})
	}
}

func TestExpoPushSend(t *testing.T) {
	var received expoMessage
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	push := NewExpoPush(server.URL, "secret", time.Second, logging.NewMockLogger())
	ok := push.Send(context.Background(), "ExponentPushToken[abc]", "Budget warning", "80% spent",
		map[string]interface{}{"budget_id": "bud-1"})

	assert.True(t, ok)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "ExponentPushToken[abc]", received.To)
	assert.Equal(t, "Budget warning", received.Title)
}

func TestExpoPushSwallowsFailures(t *testing.T) {
	t.Run("invalid token, no network call", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		push := NewExpoPush(server.URL, "", time.Second, logging.NewMockLogger())
		assert.False(t, push.Send(context.Background(), "not-a-token", "t", "b", nil))
		assert.False(t, called)
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		push := NewExpoPush(server.URL, "", time.Second, logging.NewMockLogger())
		assert.False(t, push.Send(context.Background(), "ExponentPushToken[abc]", "t", "b", nil))
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		push := NewExpoPush("http://127.0.0.1:0", "", time.Second, logging.NewMockLogger())
		assert.False(t, push.Send(context.Background(), "ExponentPushToken[abc]", "t", "b", nil))
	})
}

type fakePusher struct {
	succeed bool
	calls   int
	token   string
}

func (f *fakePusher) Send(_ context.Context, token, _, _ string, _ map[string]interface{}) bool {
	f.calls++
	f.token = token
	return f.succeed
}

func TestGetOrCreatePreferencesLazyDefault(t *testing.T) {
	ctx := context.Background()
	service := NewService(store.NewMemory(), nil, logging.NewMockLogger())

	prefs, err := service.GetOrCreatePreferences(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", prefs.UserID)
	assert.True(t, prefs.BudgetWarningsEnabled)
	assert.True(t, prefs.InsightsEnabled)

	// Second call returns the same row, not a fresh one.
	again, err := service.GetOrCreatePreferences(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, prefs.ID, again.ID)
}

func TestUpdatePreferences(t *testing.T) {
	ctx := context.Background()
	service := NewService(store.NewMemory(), nil, logging.NewMockLogger())

	off := false
	token := "ExponentPushToken[abc]"
	prefs, err := service.UpdatePreferences(ctx, "user-1", models.PreferencesPatch{
		BudgetWarningsEnabled: &off,
		PushToken:             &token,
	})
	require.NoError(t, err)
	assert.False(t, prefs.BudgetWarningsEnabled)
	assert.True(t, prefs.BudgetExceededEnabled)
	assert.Equal(t, token, prefs.PushToken)
}

func TestDispatchMarksSentInPlace(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	pusher := &fakePusher{succeed: true}
	service := NewService(mem, pusher, logging.NewMockLogger())

	token := "ExponentPushToken[abc]"
	_, err := service.UpdatePreferences(ctx, "user-1", models.PreferencesPatch{PushToken: &token})
	require.NoError(t, err)

	notification, err := service.Dispatch(ctx, "user-1", models.NotificationBudgetWarning,
		"Budget warning", "80% spent", map[string]interface{}{"budget_id": "bud-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, pusher.calls)
	assert.Equal(t, token, pusher.token)

	// The same row is updated; no second notification appears.
	list, err := service.List(ctx, "user-1", false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, notification.ID, list[0].ID)
	assert.NotNil(t, list[0].SentAt)
}

func TestDispatchPushFailureLeavesSentAtUnset(t *testing.T) {
	ctx := context.Background()
	service := NewService(store.NewMemory(), &fakePusher{succeed: false}, logging.NewMockLogger())

	token := "ExponentPushToken[abc]"
	_, err := service.UpdatePreferences(ctx, "user-1", models.PreferencesPatch{PushToken: &token})
	require.NoError(t, err)

	_, err = service.Dispatch(ctx, "user-1", models.NotificationBudgetWarning, "t", "b", nil)
	require.NoError(t, err)

	list, err := service.List(ctx, "user-1", false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].SentAt)
}

func TestDispatchWithoutTokenSkipsPush(t *testing.T) {
	ctx := context.Background()
	pusher := &fakePusher{succeed: true}
	service := NewService(store.NewMemory(), pusher, logging.NewMockLogger())

	_, err := service.Dispatch(ctx, "user-1", models.NotificationBudgetWarning, "t", "b", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, pusher.calls)
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	ctx := context.Background()
	service := NewService(store.NewMemory(), nil, logging.NewMockLogger())

	first, err := service.Dispatch(ctx, "user-1", models.NotificationBudgetWarning, "a", "b", nil)
	require.NoError(t, err)
	_, err = service.Dispatch(ctx, "user-1", models.NotificationBudgetExceeded, "c", "d", nil)
	require.NoError(t, err)

	count, err := service.UnreadCount(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, service.MarkRead(ctx, "user-1", first.ID))
	count, err = service.UnreadCount(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	unread, err := service.List(ctx, "user-1", true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.NotEqual(t, first.ID, unread[0].ID)
}
