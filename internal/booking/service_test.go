package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lab-inventory-backend/internal/audit"
	"lab-inventory-backend/internal/collision"
	"lab-inventory-backend/internal/local"
	"lab-inventory-backend/internal/model"
	"lab-inventory-backend/internal/parse"
	"lab-inventory-backend/internal/report"
	"lab-inventory-backend/internal/reservations"
)

var errOffline = errors.New("offline")

// fakeAPI stands in for the server: reservations, loans and history in memory.
type fakeAPI struct {
	mu           sync.Mutex
	offline      bool
	reservations []model.Reservation
	loans        map[string]model.Loan
	history      []model.HistoryEvent
	creates      int
	seq          int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{loans: map[string]model.Loan{}}
}

func (a *fakeAPI) nextID(prefix string) string {
	a.seq++
	return fmt.Sprintf("%s-%d", prefix, a.seq)
}

func (a *fakeAPI) List(_ context.Context, lab model.Lab) ([]model.Reservation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.offline {
		return nil, errOffline
	}
	var out []model.Reservation
	for _, r := range a.reservations {
		if lab == "" || r.Lab == lab {
			out = append(out, r)
		}
	}
	return out, nil
}

func (a *fakeAPI) Create(_ context.Context, r model.Reservation) (model.Reservation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.creates++
	if a.offline {
		return model.Reservation{}, errOffline
	}
	r.ID = a.nextID("srv")
	a.reservations = append(a.reservations, r)
	return r, nil
}

func (a *fakeAPI) Delete(_ context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.offline {
		return errOffline
	}
	for i, r := range a.reservations {
		if r.ID == id {
			a.reservations = append(a.reservations[:i], a.reservations[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (a *fakeAPI) RecordHistory(_ context.Context, ev model.HistoryEvent) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.offline {
		return "", errOffline
	}
	ev.ID = a.nextID("h")
	a.history = append([]model.HistoryEvent{ev}, a.history...)
	return ev.ID, nil
}

func (a *fakeAPI) ListHistory(_ context.Context, lab model.Lab, limit int) ([]model.HistoryEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.offline {
		return nil, errOffline
	}
	var out []model.HistoryEvent
	for _, ev := range a.history {
		if lab == "" || ev.Lab == lab {
			out = append(out, ev)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (a *fakeAPI) HistoryWindow(_ context.Context, lab model.Lab, since, until time.Time, _ int) ([]model.HistoryEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.offline {
		return nil, errOffline
	}
	var out []model.HistoryEvent
	for _, ev := range a.history {
		if lab != "" && ev.Lab != lab {
			continue
		}
		if (!since.IsZero() && ev.CreatedAt.Before(since)) || (!until.IsZero() && ev.CreatedAt.After(until)) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (a *fakeAPI) ListLoans(context.Context, model.Lab) ([]model.Loan, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []model.Loan
	for _, l := range a.loans {
		out = append(out, l)
	}
	return out, nil
}

func (a *fakeAPI) CreateLoan(_ context.Context, l model.Loan) (model.Loan, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.offline {
		return model.Loan{}, errOffline
	}
	l.ID = a.nextID("loan")
	l.Status = model.LoanOut
	a.loans[l.ID] = l
	return l, nil
}

func (a *fakeAPI) ReturnLoan(_ context.Context, id string) (model.Loan, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.loans[id]
	if !ok {
		return model.Loan{}, errors.New("loan not found")
	}
	l.Status = model.LoanReturned
	a.loans[id] = l
	return l, nil
}

func (a *fakeAPI) setOffline(v bool) {
	a.mu.Lock()
	a.offline = v
	a.mu.Unlock()
}

func (a *fakeAPI) events() []model.HistoryEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.HistoryEvent(nil), a.history...)
}

type fixture struct {
	api   *fakeAPI
	cache *local.Store
	svc   *Service
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	api := newFakeAPI()
	cache, err := local.Open(local.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	rec := audit.NewRecorder(1, api, cache, zap.NewNop())
	rec.Start(context.Background())
	t.Cleanup(rec.Close)

	facade := reservations.NewFacade(api, cache, zap.NewNop())
	return &fixture{
		api:   api,
		cache: cache,
		svc:   NewService(facade, rec, api, api, cfg, zap.NewNop()),
	}
}

func settle(t *testing.T, task *audit.Task) audit.Result {
	t.Helper()
	require.NotNil(t, task)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := task.Wait(ctx)
	require.NoError(t, err)
	return res
}

func TestReserve_CollisionBlocksBeforePersisting(t *testing.T) {
	f := newFixture(t, Config{User: "coordinator"})
	ctx := context.Background()

	r1, err := f.svc.Reserve(ctx, ReserveRequest{Lab: "science", Date: "2024-05-01", TimeRange: "08:00-09:00", Requester: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, audit.Delivered, settle(t, r1.Audit).Outcome)
	assert.Equal(t, model.OriginRemote, r1.Reservation.Origin)

	_, err = f.svc.Reserve(ctx, ReserveRequest{Lab: "Ciencias", Date: "2024-05-01", TimeRange: "08:30-09:00", Requester: "Luis"})
	var conflict *collision.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, model.LabScience, conflict.Lab)
	assert.Equal(t, "2024-05-01", conflict.Date)
	assert.Equal(t, r1.Reservation.ID, conflict.With.ID)

	assert.Equal(t, 1, f.api.creates)
	events := f.api.events()
	require.Len(t, events, 1)
	assert.Equal(t, model.ActionCreate, events[0].Action)
	assert.Equal(t, model.EntityReservation, events[0].EntityType)
	assert.Equal(t, r1.Reservation.ID, events[0].EntityID)
	assert.Equal(t, "coordinator", events[0].User)
	assert.Equal(t, "Ana", events[0].Data["requester"])
}

func TestReserve_OtherLabDoesNotCollide(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	_, err := f.svc.Reserve(ctx, ReserveRequest{Lab: "science", Date: "2024-05-01", TimeRange: "08:00 - 09:00"})
	require.NoError(t, err)
	_, err = f.svc.Reserve(ctx, ReserveRequest{Lab: "computing", Date: "2024-05-01", TimeRange: "08:30 - 09:30"})
	require.NoError(t, err)
}

func TestReserve_UnparseableRange(t *testing.T) {
	ctx := context.Background()

	soft := newFixture(t, Config{})
	_, err := soft.svc.Reserve(ctx, ReserveRequest{Lab: "library", Date: "2024-05-01", TimeRange: "08:00 - 09:00"})
	require.NoError(t, err)
	res, err := soft.svc.Reserve(ctx, ReserveRequest{Lab: "library", Date: "2024-05-01", TimeRange: "morning"})
	require.NoError(t, err)
	assert.True(t, res.Unchecked)

	strict := newFixture(t, Config{StrictRanges: true})
	_, err = strict.svc.Reserve(ctx, ReserveRequest{Lab: "library", Date: "2024-05-01", TimeRange: "09:30 - 08:00"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.ErrorIs(t, err, parse.ErrInvalidRange)
	assert.Zero(t, strict.api.creates)
}

func TestReserve_Validation(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	_, err := f.svc.Reserve(ctx, ReserveRequest{Lab: "gym", Date: "2024-05-01", TimeRange: "08:00 - 09:00"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.Reserve(ctx, ReserveRequest{Lab: "science", Date: "01/05/2024", TimeRange: "08:00 - 09:00"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestReserve_OfflineSavesLocallyAndQueuesEvent(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	f.api.setOffline(true)

	res, err := f.svc.Reserve(ctx, ReserveRequest{Lab: "computing", Date: "2024-05-02", TimeRange: "10:00 - 11:00"})
	require.NoError(t, err)
	assert.ErrorIs(t, res.RemoteErr, errOffline)
	assert.Equal(t, model.OriginLocal, res.Reservation.Origin)
	assert.Equal(t, audit.Queued, settle(t, res.Audit).Outcome)

	// The offline booking still blocks overlapping ones.
	_, err = f.svc.Reserve(ctx, ReserveRequest{Lab: "computing", Date: "2024-05-02", TimeRange: "10:30 - 11:30"})
	var conflict *collision.ConflictError
	assert.ErrorAs(t, err, &conflict)

	f.api.setOffline(false)
	rr, err := f.svc.Replay(ctx)
	require.NoError(t, err)
	assert.Equal(t, audit.ReplayResult{Delivered: 1}, rr)
	require.Len(t, f.api.events(), 1)
	assert.Equal(t, res.Reservation.ID, f.api.events()[0].EntityID)
}

func TestCancel(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	r, err := f.svc.Reserve(ctx, ReserveRequest{Lab: "science", Date: "2024-05-01", TimeRange: "08:00 - 09:00"})
	require.NoError(t, err)
	settle(t, r.Audit)

	_, err = f.svc.Cancel(ctx, model.LabScience, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	res, err := f.svc.Cancel(ctx, model.LabScience, r.Reservation.ID)
	require.NoError(t, err)
	assert.NoError(t, res.RemoteErr)
	assert.Equal(t, audit.Delivered, settle(t, res.Audit).Outcome)

	listing := f.svc.Reservations(ctx, model.LabScience)
	assert.Empty(t, listing.Reservations)
	assert.Equal(t, model.ActionDelete, f.api.events()[0].Action)
}

func TestLendReturnAndReport(t *testing.T) {
	f := newFixture(t, Config{User: "librarian", HistoryLimit: 100})
	ctx := context.Background()

	_, _, err := f.svc.Lend(ctx, LendRequest{Item: "Atlas"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	a, task, err := f.svc.Lend(ctx, LendRequest{Lab: "biblioteca", Item: "Atlas", Borrower: "Luis", Room: "2A"})
	require.NoError(t, err)
	settle(t, task)
	b, task, err := f.svc.Lend(ctx, LendRequest{Item: "Quijote", Borrower: "Marta", Room: "2A"})
	require.NoError(t, err)
	assert.Equal(t, model.LabLibrary, b.Lab)
	settle(t, task)

	returned, task, err := f.svc.Return(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LoanReturned, returned.Status)
	settle(t, task)

	w, err := f.svc.Report(ctx, report.Filter{Lab: model.LabLibrary})
	require.NoError(t, err)
	assert.Equal(t, 3, w.Movements)
	assert.Equal(t, 2, w.LoansCreated)
	assert.Equal(t, 1, w.LoansReturned)
	assert.Equal(t, 1, w.PendingLoans)
	assert.Equal(t, []report.Entry{{Name: "2A", Count: 2}}, w.TopRooms)

	loans, err := f.svc.Loans(ctx, "")
	require.NoError(t, err)
	assert.Len(t, loans, 2)

	events, err := f.svc.History(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestReport_ReplaysQueueFirst(t *testing.T) {
	f := newFixture(t, Config{HistoryLimit: 100})
	ctx := context.Background()

	f.api.setOffline(true)
	res, err := f.svc.Reserve(ctx, ReserveRequest{Lab: "science", Date: "2024-05-01", TimeRange: "08:00 - 09:00"})
	require.NoError(t, err)
	require.Equal(t, audit.Queued, settle(t, res.Audit).Outcome)

	f.api.setOffline(false)
	w, err := f.svc.Report(ctx, report.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, w.Movements)
}

func TestReport_ReadsWholeWindow(t *testing.T) {
	f := newFixture(t, Config{HistoryLimit: 3})
	ctx := context.Background()

	jan := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		f.api.history = append(f.api.history, model.HistoryEvent{
			ID: fmt.Sprintf("jan-%d", i), Lab: model.LabLibrary, Action: model.ActionCreate, EntityType: model.EntityLoan,
			EntityID: fmt.Sprintf("L%d", i), CreatedAt: jan.Add(time.Duration(i) * time.Hour),
		})
	}
	may := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		f.api.history = append([]model.HistoryEvent{{
			ID: fmt.Sprintf("may-%d", i), Lab: model.LabLibrary, Action: model.ActionCreate, EntityType: model.EntityReservation,
			CreatedAt: may.Add(time.Duration(i) * time.Minute),
		}}, f.api.history...)
	}

	filter, err := report.NewFilter("library", "2024-01-01", "2024-01-31", time.UTC)
	require.NoError(t, err)
	w, err := f.svc.Report(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 5, w.Movements)
	assert.Equal(t, 5, w.LoansCreated)
	assert.Equal(t, 5, w.PendingLoans)

	recent, err := f.svc.History(ctx, model.LabLibrary, 0)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}
