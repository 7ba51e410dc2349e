package tasklist_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"taskboard/internal/logger"
	"taskboard/internal/service"
	"taskboard/internal/tasklist"
	"taskboard/internal/testutil"
)

func newController(t *testing.T, store *testutil.FakeStore) *tasklist.Controller {
	t.Helper()
	c := tasklist.New(store, tasklist.WithLogger(logger.Discard()))
	t.Cleanup(c.Close)
	return c
}

func loaded(t *testing.T, store *testutil.FakeStore) *tasklist.Controller {
	t.Helper()
	c := newController(t, store)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return c
}

func ids(tasks []service.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.ID
	}
	return out
}

func orders(tasks []service.Task) []int {
	out := make([]int, len(tasks))
	for i, task := range tasks {
		out[i] = task.Order
	}
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestLoad_SortsAndRenumbers(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddTask("c", "C", 40)
	store.AddTask("a", "A", 3)
	store.AddTask("b", "B", 17)

	c := loaded(t, store)
	tasks := c.Tasks()

	if got := ids(tasks); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("expected sorted ids, got %v", got)
	}
	if got := orders(tasks); !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Errorf("expected contiguous orders, got %v", got)
	}
}

func TestLoad_TiesKeepFetchOrder(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddTask("x", "X", 1)
	store.AddTask("y", "Y", 0)
	store.AddTask("z", "Z", 1)

	c := loaded(t, store)
	if got := ids(c.Tasks()); !reflect.DeepEqual(got, []string{"y", "x", "z"}) {
		t.Errorf("expected stable sort, got %v", got)
	}
}

func TestLoad_FailureLeavesStateAndSetsMessage(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddTask("a", "A", 0)
	c := loaded(t, store)

	store.ListTasksErr = errors.New("connection refused")
	err := c.Load(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if c.Message() != tasklist.MsgLoadFailed {
		t.Errorf("expected %q, got %q", tasklist.MsgLoadFailed, c.Message())
	}
	if got := ids(c.Tasks()); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("expected state unchanged, got %v", got)
	}
	if err.Error() != "failed to fetch tasks: connection refused" {
		t.Errorf("unexpected error text %q", err.Error())
	}
}

func TestLoad_SuccessClearsMessage(t *testing.T) {
	store := testutil.NewFakeStore()
	c := newController(t, store)

	store.ListTasksErr = errors.New("down")
	_ = c.Load(context.Background())
	store.ListTasksErr = nil

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Message() != "" {
		t.Errorf("expected message cleared, got %q", c.Message())
	}
}

func TestCreate_EmptyListGetsOrderZero(t *testing.T) {
	store := testutil.NewFakeStore()
	c := loaded(t, store)

	task, err := c.Create(context.Background(), service.Draft{Title: "X"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Order != 0 {
		t.Errorf("expected order 0, got %d", task.Order)
	}
	if task.Priority != service.PriorityMedium {
		t.Errorf("expected default priority, got %q", task.Priority)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 task, got %d", c.Len())
	}
}

func TestCreate_PlacesAfterMaxOrder(t *testing.T) {
	store := testutil.NewFakeStore()
	for i, id := range []string{"a", "b", "c", "d", "e"} {
		store.AddTask(id, id, i)
	}
	c := loaded(t, store)

	task, err := c.Create(context.Background(), service.Draft{Title: "new", Priority: service.PriorityHigh})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Order != 5 {
		t.Errorf("expected order 5, got %d", task.Order)
	}
	if drafts := store.Drafts(); len(drafts) != 1 || drafts[0].Order != 5 {
		t.Errorf("expected draft sent with order 5, got %+v", drafts)
	}
	tasks := c.Tasks()
	if tasks[len(tasks)-1].ID != task.ID {
		t.Error("expected new task appended at the end")
	}
}

func TestCreate_FailureDoesNotInsert(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddTask("a", "A", 0)
	c := loaded(t, store)

	store.CreateTaskErr = &service.APIError{Status: 500, Message: "boom"}
	if _, err := c.Create(context.Background(), service.Draft{Title: "X"}); err == nil {
		t.Fatal("expected error")
	}
	if c.Len() != 1 {
		t.Errorf("expected no optimistic insert, got %d tasks", c.Len())
	}
	if c.Message() != tasklist.MsgCreateFailed {
		t.Errorf("expected %q, got %q", tasklist.MsgCreateFailed, c.Message())
	}
}

func TestCreate_RejectsBlankTitleLocally(t *testing.T) {
	store := testutil.NewFakeStore()
	c := loaded(t, store)

	_, err := c.Create(context.Background(), service.Draft{Title: "   "})
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.Calls("create") != 0 {
		t.Error("blank title should not reach the store")
	}
}

func TestUpdate_ReplacesWithStoreRecord(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddTask("a", "A", 0)
	store.AddTask("b", "B", 1)
	c := loaded(t, store)

	// Server-side drift the client does not know about.
	store.PutTask(service.Task{ID: "b", Title: "B", Description: "server note", Priority: service.PriorityLow, Order: 1})

	title := "B2"
	task, err := c.Update(context.Background(), "b", service.Patch{Title: &title})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Title != "B2" {
		t.Errorf("expected updated title, got %q", task.Title)
	}
	got, _ := c.At(1)
	if got.Description != "server note" || got.Priority != service.PriorityLow {
		t.Errorf("expected full store record, got %+v", got)
	}
}

func TestUpdate_FailureLeavesRecord(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddTask("a", "A", 0)
	c := loaded(t, store)

	store.UpdateTaskErr = &service.APIError{Status: 422, Message: "bad patch"}
	title := "changed"
	_, err := c.Update(context.Background(), "a", service.Patch{Title: &title})
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got, _ := c.At(0)
	if got.Title != "A" {
		t.Errorf("expected local record unchanged, got %q", got.Title)
	}
	if c.Message() != tasklist.MsgUpdateFailed {
		t.Errorf("expected %q, got %q", tasklist.MsgUpdateFailed, c.Message())
	}
}

func TestToggleComplete(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddTask("a", "A", 0)
	c := loaded(t, store)

	if _, err := c.ToggleComplete(context.Background(), "a", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := c.At(0)
	if !got.Completed {
		t.Error("expected task completed")
	}

	if _, err := c.ToggleComplete(context.Background(), "a", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ = c.At(0)
	if got.Completed {
		t.Error("expected task reopened")
	}
}

func TestDelete_RemovesTask(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddTask("a", "A", 0)
	store.AddTask("b", "B", 1)
	c := loaded(t, store)

	if err := c.Delete(context.Background(), "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(c.Tasks()); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("expected [b], got %v", got)
	}
}

func TestDelete_UnknownIDLeavesState(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddTask("a", "A", 0)
	c := loaded(t, store)
	before := c.Tasks()

	err := c.Delete(context.Background(), "missing")
	if !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !reflect.DeepEqual(c.Tasks(), before) {
		t.Error("expected local state unchanged")
	}
	if c.Message() != tasklist.MsgDeleteFailed {
		t.Errorf("expected %q, got %q", tasklist.MsgDeleteFailed, c.Message())
	}
}

func TestReorder_Splice(t *testing.T) {
	store := testutil.NewFakeStore()
	for i, id := range []string{"A", "B", "C", "D"} {
		store.AddTask(id, id, i)
	}
	c := loaded(t, store)

	s := c.Reorder(context.Background(), 0, 2)
	if err := s.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tasks := c.Tasks()
	if got := ids(tasks); !reflect.DeepEqual(got, []string{"B", "C", "A", "D"}) {
		t.Errorf("expected [B C A D], got %v", got)
	}
	if got := orders(tasks); !reflect.DeepEqual(got, []int{0, 1, 2, 3}) {
		t.Errorf("expected orders 0..3, got %v", got)
	}
}

func TestReorder_IsOptimistic(t *testing.T) {
	store := testutil.NewFakeStore()
	for i, id := range []string{"A", "B", "C"} {
		store.AddTask(id, id, i)
	}
	c := loaded(t, store)

	gate := make(chan struct{})
	store.ReorderGate = gate

	s := c.Reorder(context.Background(), 2, 0)
	if !s.Applied() {
		t.Fatal("expected reorder applied")
	}
	if got := ids(c.Tasks()); !reflect.DeepEqual(got, []string{"C", "A", "B"}) {
		t.Errorf("expected local order before store answers, got %v", got)
	}
	select {
	case <-s.Done():
		t.Fatal("sync finished before the store answered")
	default:
	}

	close(gate)
	if err := s.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReorder_FailureReloadsFromStore(t *testing.T) {
	store := testutil.NewFakeStore()
	for i, id := range []string{"A", "B", "C"} {
		store.AddTask(id, id, i)
	}
	c := loaded(t, store)

	store.ReorderTasksErr = &service.APIError{Status: 401, Message: "expired"}
	// Someone else changed the order meanwhile; the reload must reflect it.
	store.SetOrder("C", -1)

	s := c.Reorder(context.Background(), 0, 1)
	err := s.Wait()
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if !s.RolledBack() {
		t.Error("expected rollback")
	}

	fresh := loaded(t, store)
	if !reflect.DeepEqual(c.Tasks(), fresh.Tasks()) {
		t.Errorf("expected state equal to a fresh load: got %v want %v", ids(c.Tasks()), ids(fresh.Tasks()))
	}
	if got := ids(c.Tasks()); !reflect.DeepEqual(got, []string{"C", "A", "B"}) {
		t.Errorf("unexpected reloaded order %v", got)
	}
	if c.Message() != tasklist.MsgReorderFailed {
		t.Errorf("expected %q, got %q", tasklist.MsgReorderFailed, c.Message())
	}
}

func TestReorder_FailedReloadKeepsFetchMessage(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddTask("A", "A", 0)
	store.AddTask("B", "B", 1)
	c := loaded(t, store)

	store.ReorderTasksErr = errors.New("offline")
	store.ListTasksErr = errors.New("offline")

	s := c.Reorder(context.Background(), 0, 1)
	if err := s.Wait(); err == nil {
		t.Fatal("expected error")
	}
	if s.RolledBack() {
		t.Error("rollback cannot complete while the store is unreachable")
	}
	if c.Message() != tasklist.MsgLoadFailed {
		t.Errorf("expected most recent failure %q, got %q", tasklist.MsgLoadFailed, c.Message())
	}
}

func TestReorder_InvalidIndicesAreNoop(t *testing.T) {
	store := testutil.NewFakeStore()
	for i, id := range []string{"A", "B", "C"} {
		store.AddTask(id, id, i)
	}
	c := loaded(t, store)
	before := c.Tasks()

	for _, tc := range []struct{ from, to int }{{0, 3}, {0, -1}, {-1, 0}, {5, 1}} {
		s := c.Reorder(context.Background(), tc.from, tc.to)
		if s.Applied() {
			t.Errorf("reorder(%d, %d) should not apply", tc.from, tc.to)
		}
		if err := s.Wait(); err != nil {
			t.Errorf("reorder(%d, %d): unexpected error %v", tc.from, tc.to, err)
		}
	}

	if !reflect.DeepEqual(c.Tasks(), before) {
		t.Error("expected local state unchanged")
	}
	if store.Calls("reorder") != 0 {
		t.Errorf("expected no reorder request, got %d", store.Calls("reorder"))
	}
}

func TestReorder_DragScenario(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddTask("1", "one", 0)
	store.AddTask("2", "two", 1)
	store.AddTask("3", "three", 2)
	c := loaded(t, store)

	gate := make(chan struct{})
	store.ReorderGate = gate
	s := c.Reorder(context.Background(), 0, 2)

	want := []service.OrderEntry{{ID: "2", Order: 0}, {ID: "3", Order: 1}, {ID: "1", Order: 2}}
	if got := tasklist.Entries(c.Tasks()); !reflect.DeepEqual(got, want) {
		t.Errorf("expected local %v, got %v", want, got)
	}

	close(gate)
	if err := s.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reorders := store.Reorders()
	if len(reorders) != 1 || !reflect.DeepEqual(reorders[0], want) {
		t.Errorf("expected request %v, got %v", want, reorders)
	}
}

func TestReorder_SyncsReachStoreInCallOrder(t *testing.T) {
	store := testutil.NewFakeStore()
	for i, id := range []string{"A", "B", "C"} {
		store.AddTask(id, id, i)
	}
	c := loaded(t, store)

	gate := make(chan struct{})
	store.ReorderGate = gate
	first := c.Reorder(context.Background(), 0, 2)  // B C A
	second := c.Reorder(context.Background(), 0, 1) // C B A
	close(gate)

	if err := first.Wait(); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := second.Wait(); err != nil {
		t.Fatalf("second: %v", err)
	}

	reorders := store.Reorders()
	if len(reorders) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reorders))
	}
	if reorders[0][0].ID != "B" || reorders[1][0].ID != "C" {
		t.Errorf("requests out of order: %v", reorders)
	}

	fresh := loaded(t, store)
	if !reflect.DeepEqual(ids(fresh.Tasks()), ids(c.Tasks())) {
		t.Errorf("store and local disagree: %v vs %v", ids(fresh.Tasks()), ids(c.Tasks()))
	}
}

func TestReorder_OnlyLatestFailureReloads(t *testing.T) {
	store := testutil.NewFakeStore()
	for i, id := range []string{"A", "B", "C"} {
		store.AddTask(id, id, i)
	}
	c := loaded(t, store)

	gate := make(chan struct{})
	store.ReorderGate = gate
	store.ReorderTasksErr = errors.New("rejected")

	first := c.Reorder(context.Background(), 0, 2)
	second := c.Reorder(context.Background(), 0, 1)
	close(gate)

	_ = first.Wait()
	_ = second.Wait()

	if first.RolledBack() {
		t.Error("superseded sync should not reload")
	}
	if !second.RolledBack() {
		t.Error("latest sync should reload")
	}
	if got := store.Calls("list"); got != 2 {
		t.Errorf("expected initial load plus one reload, got %d loads", got)
	}
}

func TestReorder_DiscardsLoadStartedBefore(t *testing.T) {
	store := testutil.NewFakeStore()
	for i, id := range []string{"A", "B", "C"} {
		store.AddTask(id, id, i)
	}
	c := loaded(t, store)

	hold := make(chan struct{})
	store.ListHold = hold
	errCh := make(chan error, 1)
	go func() { errCh <- c.Load(context.Background()) }()
	waitFor(t, func() bool { return store.Calls("snapshot") == 1 })

	s := c.Reorder(context.Background(), 0, 2)
	if err := s.Wait(); err != nil {
		t.Fatalf("unexpected sync error: %v", err)
	}
	close(hold)
	if err := <-errCh; err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	if got := ids(c.Tasks()); !reflect.DeepEqual(got, []string{"B", "C", "A"}) {
		t.Errorf("older load overwrote the reorder: %v", got)
	}
	fresh := loaded(t, store)
	if !reflect.DeepEqual(ids(fresh.Tasks()), ids(c.Tasks())) {
		t.Errorf("store and local disagree: %v vs %v", ids(fresh.Tasks()), ids(c.Tasks()))
	}
}

func TestReorder_DuringRollbackReloadWins(t *testing.T) {
	store := testutil.NewFakeStore()
	for i, id := range []string{"A", "B", "C"} {
		store.AddTask(id, id, i)
	}
	c := loaded(t, store)

	hold := make(chan struct{})
	store.ListHold = hold
	store.ReorderTasksErr = errors.New("rejected")

	first := c.Reorder(context.Background(), 0, 1) // B A C, rejected
	waitFor(t, func() bool { return store.Calls("snapshot") == 1 })

	store.ReorderTasksErr = nil
	second := c.Reorder(context.Background(), 0, 2) // A C B
	close(hold)

	if err := first.Wait(); err == nil {
		t.Error("expected first sync to fail")
	}
	if first.RolledBack() {
		t.Error("reload superseded by a newer reorder should not count as rollback")
	}
	if err := second.Wait(); err != nil {
		t.Fatalf("second: %v", err)
	}

	if got := ids(c.Tasks()); !reflect.DeepEqual(got, []string{"A", "C", "B"}) {
		t.Errorf("expected newest reorder kept, got %v", got)
	}
	fresh := loaded(t, store)
	if !reflect.DeepEqual(ids(fresh.Tasks()), ids(c.Tasks())) {
		t.Errorf("store and local disagree: %v vs %v", ids(fresh.Tasks()), ids(c.Tasks()))
	}
}

// slowFailingList fails its first ListTasks once release is closed; later
// calls go to the fake directly.
type slowFailingList struct {
	*testutil.FakeStore
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *slowFailingList) ListTasks(ctx context.Context) ([]service.Task, error) {
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.started)
		<-s.release
		return nil, errors.New("timeout")
	}
	return s.FakeStore.ListTasks(ctx)
}

func TestLoad_StaleFailureIsDiscarded(t *testing.T) {
	fake := testutil.NewFakeStore()
	fake.AddTask("a", "A", 0)
	store := &slowFailingList{FakeStore: fake, started: make(chan struct{}), release: make(chan struct{})}
	c := tasklist.New(store, tasklist.WithLogger(logger.Discard()))
	t.Cleanup(c.Close)

	errCh := make(chan error, 1)
	go func() { errCh <- c.Load(context.Background()) }()
	<-store.started

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("newer load: %v", err)
	}
	close(store.release)
	if err := <-errCh; err != nil {
		t.Errorf("stale failure should be discarded, got %v", err)
	}

	if c.Message() != "" {
		t.Errorf("stale failure set message %q", c.Message())
	}
	if got := ids(c.Tasks()); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("unexpected tasks %v", got)
	}
}

func TestClose_MutationsReturnNoRecord(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddTask("a", "A", 0)
	c := loaded(t, store)
	c.Close()

	task, err := c.Create(context.Background(), service.Draft{Title: "B"})
	if !errors.Is(err, tasklist.ErrClosed) || task.ID != "" {
		t.Errorf("create after close: got %+v, %v", task, err)
	}
	title := "renamed"
	task, err = c.Update(context.Background(), "a", service.Patch{Title: &title})
	if !errors.Is(err, tasklist.ErrClosed) || task.ID != "" {
		t.Errorf("update after close: got %+v, %v", task, err)
	}
}

func TestClose_DiscardsLateLoad(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddTask("a", "A", 0)
	gate := make(chan struct{})
	store.ListGate = gate

	c := newController(t, store)
	errCh := make(chan error, 1)
	go func() { errCh <- c.Load(context.Background()) }()

	waitFor(t, func() bool { return store.Calls("list") == 1 })
	c.Close()
	close(gate)

	if err := <-errCh; !errors.Is(err, tasklist.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("expected late response discarded, got %d tasks", c.Len())
	}
}

func TestClose_ReorderIsNoop(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddTask("a", "A", 0)
	store.AddTask("b", "B", 1)
	c := loaded(t, store)
	c.Close()

	if s := c.Reorder(context.Background(), 0, 1); s.Applied() {
		t.Error("reorder after close should not apply")
	}
}

func TestClearMessage(t *testing.T) {
	store := testutil.NewFakeStore()
	c := newController(t, store)
	store.ListTasksErr = errors.New("down")
	_ = c.Load(context.Background())

	c.ClearMessage()
	if c.Message() != "" {
		t.Errorf("expected empty message, got %q", c.Message())
	}
}
