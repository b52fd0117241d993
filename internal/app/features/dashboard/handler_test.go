package dashboard_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/studyhub/internal/app/features/dashboard"
	"github.com/dalemusser/studyhub/internal/app/system/dashstate"
	"github.com/dalemusser/studyhub/internal/testutil"
	"go.uber.org/zap"
)

// stubSource returns fixed counts, or fails every call when fail is set.
type stubSource struct {
	mu   sync.Mutex
	c    dashstate.Counts
	fail bool
}

func (s *stubSource) set(c dashstate.Counts, fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c, s.fail = c, fail
}

func (s *stubSource) get(pick func(dashstate.Counts) int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return 0, errors.New("unavailable")
	}
	return pick(s.c), nil
}

func (s *stubSource) MyGroupsCount(context.Context) (int64, error) {
	return s.get(func(c dashstate.Counts) int64 { return c.MyGroups })
}
func (s *stubSource) ActiveAssignmentsCount(context.Context) (int64, error) {
	return s.get(func(c dashstate.Counts) int64 { return c.ActiveAssignments })
}
func (s *stubSource) NewMessagesCount(context.Context) (int64, error) {
	return s.get(func(c dashstate.Counts) int64 { return c.NewMessages })
}
func (s *stubSource) TotalTasksCount(context.Context) (int64, error) {
	return s.get(func(c dashstate.Counts) int64 { return c.TotalTasks })
}
func (s *stubSource) CompletedTasksCount(context.Context) (int64, error) {
	return s.get(func(c dashstate.Counts) int64 { return c.CompletedTasks })
}
func (s *stubSource) OverdueTasksCount(context.Context) (int64, error) {
	return s.get(func(c dashstate.Counts) int64 { return c.OverdueTasks })
}

var sample = dashstate.Counts{MyGroups: 3, ActiveAssignments: 5, NewMessages: 2, TotalTasks: 10, CompletedTasks: 4, OverdueTasks: 1}

func newHandler(t *testing.T) (*dashboard.Handler, *stubSource) {
	t.Helper()
	src := &stubSource{c: sample}
	reg := dashstate.NewRegistry(func(string) dashstate.Source { return src }, zap.NewNop())
	t.Cleanup(reg.Close)
	return dashboard.NewHandler(reg, zap.NewNop()), src
}

func decodeState(t *testing.T, rec *testutil.ResponseRecorder) (dashstate.ViewState, map[string]any) {
	t.Helper()
	var s dashstate.ViewState
	rec.DecodeJSON(t, &s)
	var raw map[string]any
	rec.DecodeJSON(t, &raw)
	return s, raw
}

func TestServeDashboard_Success(t *testing.T) {
	h, _ := newHandler(t)
	user := testutil.StudentUser()

	rec := testutil.NewRecorder()
	h.ServeDashboard(rec, testutil.NewAuthenticatedRequest("GET", "/dashboard", user))

	rec.AssertStatus(t, http.StatusOK)
	got, raw := decodeState(t, rec)
	if got.IsLoading {
		t.Error("expected is_loading false")
	}
	if got.Counts() != sample {
		t.Errorf("counts: got %+v, want %+v", got.Counts(), sample)
	}
	if _, present := raw["error_message"]; present {
		t.Errorf("expected error_message omitted, got %v", raw["error_message"])
	}
	if raw["my_groups_count"] != float64(3) {
		t.Errorf("my_groups_count: got %v, want 3", raw["my_groups_count"])
	}
}

func TestServeDashboard_FailureKeepsCounters(t *testing.T) {
	h, src := newHandler(t)
	user := testutil.StudentUser()

	h.ServeDashboard(testutil.NewRecorder(), testutil.NewAuthenticatedRequest("GET", "/dashboard", user))

	src.set(dashstate.Counts{MyGroups: 99}, true)
	rec := testutil.NewRecorder()
	h.ServeDashboard(rec, testutil.NewAuthenticatedRequest("GET", "/dashboard", user))

	rec.AssertStatus(t, http.StatusOK)
	got, _ := decodeState(t, rec)
	if got.ErrorMessage != dashstate.LoadFailedMessage {
		t.Errorf("error_message: got %q, want %q", got.ErrorMessage, dashstate.LoadFailedMessage)
	}
	if got.Counts() != sample {
		t.Errorf("counts: got %+v, want previous %+v", got.Counts(), sample)
	}

	// clear-error keeps counters and does not fetch
	rec = testutil.NewRecorder()
	h.HandleClearError(rec, testutil.NewAuthenticatedRequest("POST", "/dashboard/clear-error", user))
	rec.AssertStatus(t, http.StatusOK)
	got, _ = decodeState(t, rec)
	if got.ErrorMessage != "" || got.IsLoading {
		t.Errorf("after clear: got %+v, want no error and not loading", got)
	}
	if got.Counts() != sample {
		t.Errorf("after clear counts: got %+v, want %+v", got.Counts(), sample)
	}
}

func TestServeState_NoFetch(t *testing.T) {
	h, _ := newHandler(t)
	user := testutil.StudentUser()

	rec := testutil.NewRecorder()
	h.ServeState(rec, testutil.NewAuthenticatedRequest("GET", "/dashboard/state", user))

	rec.AssertStatus(t, http.StatusOK)
	got, _ := decodeState(t, rec)
	if got != dashstate.InitialState() {
		t.Errorf("got %+v, want initial state", got)
	}
}

func TestHandleRetry_RunsInBackground(t *testing.T) {
	h, _ := newHandler(t)
	user := testutil.StudentUser()

	rec := testutil.NewRecorder()
	h.HandleRetry(rec, testutil.NewAuthenticatedRequest("POST", "/dashboard/retry", user))
	rec.AssertStatus(t, http.StatusAccepted)

	agg := h.Dashboards.Get(user.ID)
	agg.Wait()
	if got := agg.Current(); got.IsLoading || got.Counts() != sample {
		t.Errorf("after retry: got %+v, want loaded sample", got)
	}
}

func TestHandlers_RequireUser(t *testing.T) {
	h, _ := newHandler(t)

	rec := testutil.NewRecorder()
	h.ServeDashboard(rec, testutil.NewRequest("GET", "/dashboard"))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestServeStream(t *testing.T) {
	h, _ := newHandler(t)
	user := testutil.StudentUser()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeStream(w, testutil.WithUser(r, user))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, "GET", srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type: got %q, want %q", ct, "text/event-stream")
	}
	if resp.Header.Get("X-Stream-ID") == "" {
		t.Error("expected X-Stream-ID header")
	}

	var states []dashstate.ViewState
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var s dashstate.ViewState
		if err := json.Unmarshal([]byte(data), &s); err != nil {
			t.Fatalf("bad event %q: %v", data, err)
		}
		states = append(states, s)
		if !s.IsLoading {
			break
		}
	}

	if len(states) == 0 {
		t.Fatal("no events received")
	}
	if !states[0].IsLoading {
		t.Errorf("first event: got %+v, want loading", states[0])
	}
	last := states[len(states)-1]
	if last.IsLoading || last.Counts() != sample {
		t.Errorf("last event: got %+v, want loaded sample", last)
	}
}
