package patient

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

func TestCreateAndGetRoundTrip(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	birth := time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC)
	price := decimal.NewFromInt(180)
	created, err := svc.Create(ctx, &model.CreatePatientRequest{
		Name:              "João Pereira",
		Email:             "joao@example.com",
		Phone:             "+55 11 91234-5678",
		DateOfBirth:       &birth,
		Gender:            "male",
		Profession:        "engenheiro",
		Address:           "Rua das Flores, 10",
		ConsultationPrice: &price,
		Credits:           2,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "João Pereira", fetched.Name)
	assert.Equal(t, "joao@example.com", fetched.Email)
	assert.Equal(t, "+55 11 91234-5678", fetched.Phone)
	assert.Equal(t, "engenheiro", fetched.Profession)
	assert.Equal(t, 2, fetched.Credits)
	require.True(t, fetched.ConsultationPrice.Valid)
	assert.True(t, fetched.ConsultationPrice.Decimal.Equal(price))

	// Derived age is a function of the stored date of birth.
	require.NotNil(t, fetched.Age)
	assert.Equal(t, model.AgeAt(birth, time.Now()), *fetched.Age)
}

func TestCreateRejectsNonPositivePrice(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store, nil)

	zero := decimal.Zero
	_, err := svc.Create(context.Background(), &model.CreatePatientRequest{
		Name:              "Ana",
		ConsultationPrice: &zero,
	})
	assert.True(t, apperrors.IsValidation(err))
}

func TestUpdateAppliesOnlyProvidedFields(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, &model.CreatePatientRequest{
		Name:  "Carla Dias",
		Email: "carla@example.com",
	})
	require.NoError(t, err)

	newPhone := "+55 21 99876-5432"
	updated, err := svc.Update(ctx, created.ID, &model.UpdatePatientRequest{Phone: &newPhone})
	require.NoError(t, err)
	assert.Equal(t, newPhone, updated.Phone)
	assert.Equal(t, "Carla Dias", updated.Name)
	assert.Equal(t, "carla@example.com", updated.Email)
}

func TestUpdateRejectsNegativeCredits(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, &model.CreatePatientRequest{Name: "Ana"})
	require.NoError(t, err)

	negative := -1
	_, err = svc.Update(ctx, created.ID, &model.UpdatePatientRequest{Credits: &negative})
	assert.True(t, apperrors.IsValidation(err))
}

func TestDeleteBlockedByConsultations(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, &model.CreatePatientRequest{Name: "Ana"})
	require.NoError(t, err)

	store.SeedConsultation(model.Consultation{
		ID:        uuid.New(),
		PatientID: created.ID,
		StartedAt: time.Now().UTC(),
		Status:    model.ConsultationStatusFinalized,
		Price:     decimal.NewFromInt(150),
	})

	err = svc.Delete(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsBusinessRule(err))
	assert.Equal(t, MsgDeleteWithConsultations, err.Error())

	// The delete primitive must never run when the guard trips.
	assert.Equal(t, 0, store.PatientDeletes)
}

func TestDeleteWithoutConsultations(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, &model.CreatePatientRequest{Name: "Ana"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteUnknownPatient(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store, nil)

	err := svc.Delete(context.Background(), uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListSortsByNameAndPaginates(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	for _, name := range []string{"Carlos", "Ana", "Bruno"} {
		_, err := svc.Create(ctx, &model.CreatePatientRequest{Name: name})
		require.NoError(t, err)
	}

	patients, pageInfo, err := svc.List(ctx, &model.PatientListParams{
		ListParams: model.ListParams{Page: 1, Limit: 2},
	})
	require.NoError(t, err)
	require.Len(t, patients, 2)
	assert.Equal(t, "Ana", patients[0].Name)
	assert.Equal(t, "Bruno", patients[1].Name)
	assert.Equal(t, 3, pageInfo.TotalCount)
	assert.Equal(t, 2, pageInfo.TotalPages)
	assert.True(t, pageInfo.HasNextPage)
	assert.False(t, pageInfo.HasPreviousPage)

	second, secondInfo, err := svc.List(ctx, &model.PatientListParams{
		ListParams: model.ListParams{Page: 2, Limit: 2},
	})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "Carlos", second[0].Name)
	assert.False(t, secondInfo.HasNextPage)
	assert.True(t, secondInfo.HasPreviousPage)
}

func TestListDecoratesActiveConsultation(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	withOpen, err := svc.Create(ctx, &model.CreatePatientRequest{Name: "Ana"})
	require.NoError(t, err)
	without, err := svc.Create(ctx, &model.CreatePatientRequest{Name: "Bruno"})
	require.NoError(t, err)

	store.SeedConsultation(model.Consultation{
		ID:        uuid.New(),
		PatientID: withOpen.ID,
		StartedAt: time.Now().UTC(),
		Status:    model.ConsultationStatusOpen,
		Price:     decimal.NewFromInt(150),
	})

	patients, _, err := svc.List(ctx, &model.PatientListParams{WithActiveFlag: true})
	require.NoError(t, err)
	require.Len(t, patients, 2)

	byID := map[uuid.UUID]*model.Patient{}
	for _, p := range patients {
		byID[p.ID] = p
	}
	require.NotNil(t, byID[withOpen.ID].HasActiveConsultation)
	assert.True(t, *byID[withOpen.ID].HasActiveConsultation)
	require.NotNil(t, byID[without.ID].HasActiveConsultation)
	assert.False(t, *byID[without.ID].HasActiveConsultation)
}

func TestSearchRequiresTwoCharacters(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, &model.CreatePatientRequest{Name: "Amanda"})
	require.NoError(t, err)

	short, err := svc.Search(ctx, "A", 10)
	require.NoError(t, err)
	assert.Empty(t, short)

	found, err := svc.Search(ctx, "Am", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Amanda", found[0].Name)
}

func TestSearchIsCaseSensitive(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, &model.CreatePatientRequest{Name: "Amanda"})
	require.NoError(t, err)

	found, err := svc.Search(ctx, "am", 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}
