package invoices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/revenue"
	"github.com/ledgerline/ledgerline/internal/shared"
)

type memoryInvoiceRepo struct {
	invoices map[uuid.UUID]Invoice
}

func newMemoryInvoiceRepo() *memoryInvoiceRepo {
	return &memoryInvoiceRepo{invoices: make(map[uuid.UUID]Invoice)}
}

func (r *memoryInvoiceRepo) Get(ctx context.Context, id uuid.UUID) (Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return Invoice{}, shared.ErrNotFound
	}
	return inv, nil
}

func (r *memoryInvoiceRepo) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range r.invoices {
		if filter.Status != "" && string(inv.Status) != filter.Status {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (r *memoryInvoiceRepo) Create(ctx context.Context, inv Invoice) error {
	r.invoices[inv.ID] = inv
	return nil
}

func (r *memoryInvoiceRepo) Update(ctx context.Context, inv Invoice) error {
	if _, ok := r.invoices[inv.ID]; !ok {
		return shared.ErrNotFound
	}
	r.invoices[inv.ID] = inv
	return nil
}

func (r *memoryInvoiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.invoices[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.invoices, id)
	return nil
}

// memoryTxRunner mimics transactional rollback over the memory repo: the
// invoice map is snapshotted before the callback and restored on error.
type memoryTxRunner struct {
	repo *memoryInvoiceRepo
}

func (r *memoryTxRunner) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	snapshot := make(map[uuid.UUID]Invoice, len(r.repo.invoices))
	for id, inv := range r.repo.invoices {
		snapshot[id] = inv
	}
	if err := fn(ctx); err != nil {
		r.repo.invoices = snapshot
		return err
	}
	return nil
}

// recordingApplier captures the revenue events the lifecycle emits.
type recordingApplier struct {
	events   []revenue.InvoiceEvent
	err      error
	failKind revenue.EventKind
}

func (a *recordingApplier) ApplyInvoiceEvent(ctx context.Context, event revenue.InvoiceEvent) error {
	if a.err != nil {
		return a.err
	}
	if a.failKind != "" && event.Kind == a.failKind {
		return errors.New("aggregate write rejected")
	}
	a.events = append(a.events, event)
	return nil
}

func newInvoiceTestService() (*Service, *memoryInvoiceRepo, *recordingApplier) {
	repo := newMemoryInvoiceRepo()
	applier := &recordingApplier{}
	svc := NewService(repo, applier, &memoryTxRunner{repo: repo}, nil).WithClock(func() time.Time {
		return time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)
	})
	return svc, repo, applier
}

func TestCreateInvoiceEmitsCreatedEvent(t *testing.T) {
	svc, repo, applier := newInvoiceTestService()

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID: 7,
		Amount:     500,
		Status:     "PENDING",
		Date:       "2024-03-15",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, inv.ID)
	require.Equal(t, revenue.StatusPending, inv.Status)
	require.Contains(t, repo.invoices, inv.ID)

	require.Len(t, applier.events, 1)
	event := applier.events[0]
	require.Equal(t, revenue.EventCreated, event.Kind)
	require.Equal(t, inv.ID, event.InvoiceID)
	require.Nil(t, event.Previous)
	require.Equal(t, "2024-03", event.Current.Period.String())
	require.Equal(t, int64(500), event.Current.Amount)
}

func TestCreateInvoiceRejectsUnparsableDate(t *testing.T) {
	svc, _, applier := newInvoiceTestService()

	_, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID: 7,
		Amount:     500,
		Status:     "PAID",
		Date:       "not-a-date",
	})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Empty(t, applier.events)
}

func TestCreateInvoiceAcceptsYearMonthDate(t *testing.T) {
	svc, _, applier := newInvoiceTestService()

	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID: 7,
		Amount:     100,
		Status:     "PAID",
		Date:       "2024-02",
	})
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), inv.IssuedAt)
	require.Equal(t, "2024-02", applier.events[0].Current.Period.String())
}

func TestUpdateInvoiceSamePeriodEmitsSingleUpdate(t *testing.T) {
	svc, _, applier := newInvoiceTestService()
	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID: 7, Amount: 500, Status: "PENDING", Date: "2024-03-15",
	})
	require.NoError(t, err)
	applier.events = nil

	status := "PAID"
	amount := int64(900)
	updated, err := svc.Update(context.Background(), inv.ID, UpdateInvoiceRequest{Status: &status, Amount: &amount})
	require.NoError(t, err)
	require.Equal(t, revenue.StatusPaid, updated.Status)
	require.Equal(t, int64(900), updated.Amount)

	require.Len(t, applier.events, 1)
	event := applier.events[0]
	require.Equal(t, revenue.EventUpdated, event.Kind)
	require.Equal(t, revenue.StatusPending, event.Previous.Status)
	require.Equal(t, int64(500), event.Previous.Amount)
	require.Equal(t, revenue.StatusPaid, event.Current.Status)
	require.Equal(t, int64(900), event.Current.Amount)
}

func TestUpdateInvoiceCrossPeriodDecomposesIntoDeleteAndCreate(t *testing.T) {
	svc, _, applier := newInvoiceTestService()
	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID: 7, Amount: 500, Status: "PAID", Date: "2024-03-15",
	})
	require.NoError(t, err)
	applier.events = nil

	date := "2024-04-02"
	updated, err := svc.Update(context.Background(), inv.ID, UpdateInvoiceRequest{Date: &date})
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), updated.IssuedAt)

	require.Len(t, applier.events, 2)
	require.Equal(t, revenue.EventDeleted, applier.events[0].Kind)
	require.Equal(t, "2024-03", applier.events[0].Previous.Period.String())
	require.Nil(t, applier.events[0].Current)
	require.Equal(t, revenue.EventCreated, applier.events[1].Kind)
	require.Equal(t, "2024-04", applier.events[1].Current.Period.String())
	require.Nil(t, applier.events[1].Previous)
}

func TestUpdateInvoiceUnknownIDReturnsNotFound(t *testing.T) {
	svc, _, applier := newInvoiceTestService()

	amount := int64(1)
	_, err := svc.Update(context.Background(), uuid.New(), UpdateInvoiceRequest{Amount: &amount})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, applier.events)
}

func TestDeleteInvoiceEmitsDeletedEvent(t *testing.T) {
	svc, repo, applier := newInvoiceTestService()
	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID: 7, Amount: 500, Status: "PAID", Date: "2024-03-15",
	})
	require.NoError(t, err)
	applier.events = nil

	require.NoError(t, svc.Delete(context.Background(), inv.ID))
	require.NotContains(t, repo.invoices, inv.ID)

	require.Len(t, applier.events, 1)
	require.Equal(t, revenue.EventDeleted, applier.events[0].Kind)
	require.Equal(t, "2024-03", applier.events[0].Previous.Period.String())
	require.Nil(t, applier.events[0].Current)
}

// Invoice row and aggregate write must commit together: a rejected revenue
// event rolls the invoice insert back instead of leaving the tables diverged.
func TestCreateRollsBackInvoiceWhenRevenueEventFails(t *testing.T) {
	svc, repo, applier := newInvoiceTestService()
	applier.err = errors.New("aggregate write rejected")

	_, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID: 7, Amount: 500, Status: "PAID", Date: "2024-03-15",
	})
	require.Error(t, err)
	require.Empty(t, repo.invoices)
}

func TestCrossPeriodUpdateRollsBackWhenSecondEventFails(t *testing.T) {
	svc, repo, applier := newInvoiceTestService()
	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID: 7, Amount: 500, Status: "PAID", Date: "2024-03-15",
	})
	require.NoError(t, err)
	applier.events = nil
	applier.failKind = revenue.EventCreated

	date := "2024-04-02"
	_, err = svc.Update(context.Background(), inv.ID, UpdateInvoiceRequest{Date: &date})
	require.Error(t, err)

	// Half the move must not stick: the invoice keeps its original period.
	stored := repo.invoices[inv.ID]
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), stored.IssuedAt)
}

func TestDeleteRollsBackWhenRevenueEventFails(t *testing.T) {
	svc, repo, applier := newInvoiceTestService()
	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID: 7, Amount: 500, Status: "PAID", Date: "2024-03-15",
	})
	require.NoError(t, err)
	applier.failKind = revenue.EventDeleted

	require.Error(t, svc.Delete(context.Background(), inv.ID))
	require.Contains(t, repo.invoices, inv.ID)
}

func TestListClampsLimit(t *testing.T) {
	svc, repo, _ := newInvoiceTestService()
	repo.invoices[uuid.New()] = Invoice{Status: revenue.StatusPaid}

	out, err := svc.List(context.Background(), ListFilter{Limit: -3})
	require.NoError(t, err)
	require.Len(t, out, 1)
}
