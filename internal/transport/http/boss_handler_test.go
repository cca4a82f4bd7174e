package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studyquest-backend/internal/app"
	"studyquest-backend/internal/infra/memory"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *memory.GameStore) {
	t.Helper()
	store := memory.NewGameStore()
	bank := memory.NewQuestionBank(memory.NewStaticCatalogLoader(memory.DefaultCatalog()), time.Minute)
	battles := app.NewBattleService(memory.NewSessionStore(), bank, store, store)
	srv := NewServer(battles, store, app.NewProgressService(store), app.NewMentorService(store, store))

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts, store
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func registerUser(t *testing.T, ts *httptest.Server, username string) {
	t.Helper()
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/users/", map[string]string{"username": username})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestUserRegistration(t *testing.T) {
	ts, _ := newTestServer(t)

	registerUser(t, ts, "lynn")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/users/", map[string]string{"username": "lynn"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Contains(t, body["detail"], "already exists")

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/users/lynn", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "lynn", body["username"])
}

func TestBossStartValidation(t *testing.T) {
	ts, _ := newTestServer(t)
	registerUser(t, ts, "lynn")

	// Unknown user.
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/boss/start", map[string]any{"user": "ghost"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Non-positive question count.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/boss/start", map[string]any{"user": "lynn", "total_questions": 0})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// No session to query yet.
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/boss/question?user=lynn", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// First start wins, second conflicts.
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/boss/start", map[string]any{"user": "lynn"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Boss battle started.", body["message"])
	require.EqualValues(t, 3, body["lives"])
	require.EqualValues(t, app.DefaultTimeLimitSeconds, body["timer_seconds"])

	question := body["current_question"].(map[string]any)
	require.EqualValues(t, 1, question["number"])
	require.EqualValues(t, app.DefaultTotalQuestions, question["total"])

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/boss/start", map[string]any{"user": "lynn"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestBossBattleFlowOverHTTP(t *testing.T) {
	ts, store := newTestServer(t)
	registerUser(t, ts, "lynn")
	catalog := memory.DefaultCatalog()

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/boss/start", map[string]any{"user": "lynn"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Correct answer on round 1.
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/boss/answer", map[string]any{
		"user":       "lynn",
		"choice_idx": catalog[0].AnswerIdx,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["correct"])
	require.EqualValues(t, 1, body["score"])
	require.EqualValues(t, 3, body["lives"])
	next := body["next_question"].(map[string]any)
	require.EqualValues(t, 2, next["number"])

	// Status reflects the live session without mutating it.
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/boss/status?user=lynn", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 1, body["score"])
	require.EqualValues(t, 2, body["question_number"])
	require.Equal(t, false, body["completed"])

	// Three wrong answers drain the lives.
	var last map[string]any
	for round := 1; round <= 3; round++ {
		wrong := (catalog[round].AnswerIdx + 1) % len(catalog[round].Choices)
		resp, last = doJSON(t, http.MethodPost, ts.URL+"/boss/answer", map[string]any{
			"user":       "lynn",
			"choice_idx": wrong,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	require.Equal(t, true, last["ended"])
	require.Equal(t, "out_of_lives", last["status"])
	require.EqualValues(t, 1, last["score"])
	require.EqualValues(t, 20, last["xp_reward"])
	require.EqualValues(t, 0, last["lives_remaining"])

	// Session is gone; forfeit now is a 404 and XP settled exactly once.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/boss/forfeit?user=lynn", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Len(t, store.BattleRecords(), 1)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/users/lynn", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 20, body["total_xp"])
}

func TestLeaderboardRanksByXP(t *testing.T) {
	ts, store := newTestServer(t)
	registerUser(t, ts, "lynn")
	registerUser(t, ts, "walid")
	catalog := memory.DefaultCatalog()

	// lynn completes a 2-question battle perfectly.
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/boss/start", map[string]any{"user": "lynn", "total_questions": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for round := 0; round < 2; round++ {
		resp, _ = doJSON(t, http.MethodPost, ts.URL+"/boss/answer", map[string]any{
			"user":       "lynn",
			"choice_idx": catalog[round].AnswerIdx,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	require.Len(t, store.BattleRecords(), 1)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/social/leaderboard?limit=2", nil)
	require.NoError(t, err)
	httpResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer httpResp.Body.Close()
	require.Equal(t, http.StatusOK, httpResp.StatusCode)

	var entries []map[string]any
	require.NoError(t, json.NewDecoder(httpResp.Body).Decode(&entries))
	require.Len(t, entries, 2)
	require.Equal(t, "lynn", entries[0]["user"])
	require.EqualValues(t, 40, entries[0]["total_xp"])
	require.EqualValues(t, 1, entries[0]["rank"])
}

func TestProgressAndMentorEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)
	registerUser(t, ts, "walid")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/progress/", map[string]any{
		"user":             "walid",
		"duration_minutes": 50,
		"reflection":       "focused session",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	session := body["session"].(map[string]any)
	require.EqualValues(t, 20, session["xp_gained"])
	require.EqualValues(t, 1, body["streak_days"])

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/progress/stats?user=walid", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 1, body["total_sessions"])

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/text-ai/", map[string]any{
		"user":            "walid",
		"reflection_text": "I was stuck on pointers",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body["ai_feedback"], "challenges")
	require.EqualValues(t, 10, body["xp_reward"])

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/text-ai/", map[string]any{
		"user":            "ghost",
		"reflection_text": "hello",
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
