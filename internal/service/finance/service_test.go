package finance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclinic-br/consultorio-api/internal/model"
	"github.com/openclinic-br/consultorio-api/internal/repository/mock"
	apperrors "github.com/openclinic-br/consultorio-api/pkg/errors"
)

// seedPatientWithHistory stores a patient plus total consultations, paid of
// which are marked paid and finalized.
func seedPatientWithHistory(store *mock.Store, name string, total, paid int) uuid.UUID {
	id := uuid.New()
	store.SeedPatient(model.Patient{ID: id, Name: name})
	for i := 0; i < total; i++ {
		c := model.Consultation{
			ID:        uuid.New(),
			PatientID: id,
			StartedAt: time.Now().UTC(),
			Status:    model.ConsultationStatusFinalized,
			Price:     decimal.NewFromInt(150),
		}
		if i < paid {
			now := time.Now().UTC()
			c.Paid = true
			c.PaidAt = &now
		}
		store.SeedConsultation(c)
	}
	return id
}

func TestOverviewComputesDeficits(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store)

	indebted := seedPatientWithHistory(store, "Ana", 5, 2)
	settled := seedPatientWithHistory(store, "Bruno", 3, 3)

	overview, err := svc.Overview(context.Background(), &model.ListParams{})
	require.NoError(t, err)
	require.Len(t, overview.Patients, 2)

	byID := map[uuid.UUID]*model.PatientFinancials{}
	for _, row := range overview.Patients {
		byID[row.PatientID] = row
	}

	require.Contains(t, byID, indebted)
	assert.Equal(t, 5, byID[indebted].TotalConsultations)
	assert.Equal(t, 2, byID[indebted].PaidConsultations)
	assert.Equal(t, 3, byID[indebted].PaymentDeficit)
	assert.True(t, byID[indebted].HasPaymentIssues)

	require.Contains(t, byID, settled)
	assert.Equal(t, 0, byID[settled].PaymentDeficit)
	assert.False(t, byID[settled].HasPaymentIssues)
}

func TestOverviewDefaultSortIsDeficitDesc(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store)

	seedPatientWithHistory(store, "Ana", 1, 1)
	seedPatientWithHistory(store, "Bruno", 4, 1)
	seedPatientWithHistory(store, "Carla", 3, 1)

	overview, err := svc.Overview(context.Background(), &model.ListParams{})
	require.NoError(t, err)
	require.Len(t, overview.Patients, 3)

	for i := 1; i < len(overview.Patients); i++ {
		assert.GreaterOrEqual(t,
			overview.Patients[i-1].PaymentDeficit,
			overview.Patients[i].PaymentDeficit)
	}
	assert.Equal(t, "Bruno", overview.Patients[0].Name)
	assert.Equal(t, "Carla", overview.Patients[1].Name)
	assert.Equal(t, "Ana", overview.Patients[2].Name)
}

func TestOverviewEqualDeficitsKeepNameOrder(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store)

	seedPatientWithHistory(store, "Carla", 2, 0)
	seedPatientWithHistory(store, "Ana", 2, 0)
	seedPatientWithHistory(store, "Bruno", 2, 0)

	overview, err := svc.Overview(context.Background(), &model.ListParams{})
	require.NoError(t, err)
	require.Len(t, overview.Patients, 3)

	// The stable sort preserves the collated base order among equal deficits.
	assert.Equal(t, "Ana", overview.Patients[0].Name)
	assert.Equal(t, "Bruno", overview.Patients[1].Name)
	assert.Equal(t, "Carla", overview.Patients[2].Name)
}

func TestOverviewSortsByNameWithLocale(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store)

	// Byte order would put "Álvaro" after "Zilda"; pt-BR collation must not.
	seedPatientWithHistory(store, "Zilda", 1, 0)
	seedPatientWithHistory(store, "Álvaro", 1, 0)
	seedPatientWithHistory(store, "Beatriz", 1, 0)

	overview, err := svc.Overview(context.Background(), &model.ListParams{
		SortBy: SortByName, SortOrder: model.SortAsc,
	})
	require.NoError(t, err)
	require.Len(t, overview.Patients, 3)
	assert.Equal(t, "Álvaro", overview.Patients[0].Name)
	assert.Equal(t, "Beatriz", overview.Patients[1].Name)
	assert.Equal(t, "Zilda", overview.Patients[2].Name)

	descending, err := svc.Overview(context.Background(), &model.ListParams{
		SortBy: SortByName, SortOrder: model.SortDesc,
	})
	require.NoError(t, err)
	assert.Equal(t, "Zilda", descending.Patients[0].Name)
	assert.Equal(t, "Álvaro", descending.Patients[2].Name)
}

func TestOverviewPaginates(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store)

	names := []string{"Ana", "Bruno", "Carla", "Daniel", "Elisa"}
	for i, name := range names {
		seedPatientWithHistory(store, name, i+1, 0)
	}

	first, err := svc.Overview(context.Background(), &model.ListParams{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, first.Patients, 2)
	assert.Equal(t, 5, first.PageInfo.TotalCount)
	assert.Equal(t, 3, first.PageInfo.TotalPages)
	assert.True(t, first.PageInfo.HasNextPage)
	assert.False(t, first.PageInfo.HasPreviousPage)

	last, err := svc.Overview(context.Background(), &model.ListParams{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, last.Patients, 1)
	assert.False(t, last.PageInfo.HasNextPage)
	assert.True(t, last.PageInfo.HasPreviousPage)
}

func TestOverviewEmptyPractice(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store)

	overview, err := svc.Overview(context.Background(), &model.ListParams{})
	require.NoError(t, err)
	assert.Empty(t, overview.Patients)
	assert.Equal(t, 0, overview.PageInfo.TotalCount)
	assert.Equal(t, 0, overview.PageInfo.TotalPages)
	assert.False(t, overview.PageInfo.HasNextPage)
	assert.False(t, overview.PageInfo.HasPreviousPage)
}

func TestOverviewRejectsBadPagination(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store)

	_, err := svc.Overview(context.Background(), &model.ListParams{Page: -1})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Overview(context.Background(), &model.ListParams{Limit: 500})
	assert.True(t, apperrors.IsValidation(err))
}

func TestOverviewReflectsWritesAfterInvalidate(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store)
	ctx := context.Background()

	id := seedPatientWithHistory(store, "Ana", 2, 0)

	before, err := svc.Overview(ctx, &model.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, before.Patients[0].PaymentDeficit)

	// Settle one consultation behind the cache's back, then invalidate.
	var settledOne bool
	consultations, _, err := store.Consultations().List(ctx, &model.ConsultationListParams{
		ListParams: model.ListParams{Page: 1, Limit: 10, SortOrder: model.SortAsc},
		PatientID:  &id,
	})
	require.NoError(t, err)
	for _, c := range consultations {
		if !c.Paid {
			now := time.Now().UTC()
			c.Paid = true
			c.PaidAt = &now
			require.NoError(t, store.Consultations().Update(ctx, c))
			settledOne = true
			break
		}
	}
	require.True(t, settledOne)

	cached, err := svc.Overview(ctx, &model.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, cached.Patients[0].PaymentDeficit)

	svc.Invalidate()

	after, err := svc.Overview(ctx, &model.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, after.Patients[0].PaymentDeficit)
}
