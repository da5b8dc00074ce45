// Package finance computes the per-patient payment standing of the practice.
package finance

import (
	"context"
	"fmt"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/openclinic-br/consultorio-api/internal/model"
	"github.com/openclinic-br/consultorio-api/internal/repository"
)

const (
	SortByDeficit = "paymentDeficit"
	SortByName    = "name"

	cacheTTL = 30 * time.Second
)

// collationTag is the practice's locale, used for name ordering.
var collationTag = language.BrazilianPortuguese

type Service struct {
	store repository.Store
	cache *gocache.Cache
}

func NewService(store repository.Store) *Service {
	return &Service{
		store: store,
		cache: gocache.New(cacheTTL, 2*cacheTTL),
	}
}

// Invalidate drops every cached overview page. Called by the patient and
// consultation services after any write.
func (s *Service) Invalidate() {
	s.cache.Flush()
}

// Overview returns one page of the financial roster: consultation totals,
// payment deficit and a payment-issues flag per patient, worst standing
// first by default.
func (s *Service) Overview(ctx context.Context, params *model.ListParams) (*model.FinancialOverview, error) {
	if err := params.Normalize(SortByDeficit, model.SortDesc); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("overview:%d:%d:%s:%s", params.Page, params.Limit, params.SortBy, params.SortOrder)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*model.FinancialOverview), nil
	}

	rows, err := s.store.Consultations().FinancialTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate financial totals: %w", err)
	}

	for _, row := range rows {
		row.PaymentDeficit = row.TotalConsultations - row.PaidConsultations
		row.HasPaymentIssues = row.PaymentDeficit > 0
	}

	sortRows(rows, params.SortBy, params.SortOrder)

	total := len(rows)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.Limit
	if end > total {
		end = total
	}

	overview := &model.FinancialOverview{
		Patients: rows[start:end],
		PageInfo: model.NewPageInfo(total, params.Page, params.Limit),
	}

	s.cache.Set(key, overview, gocache.DefaultExpiration)
	return overview, nil
}

// sortRows orders the roster deterministically: rows are first put in a
// reproducible base order (locale-aware name, then id), then stably sorted
// by the requested key, so equal deficits keep a stable relative order
// across calls.
func sortRows(rows []*model.PatientFinancials, sortBy, sortOrder string) {
	// Collators carry internal buffers, so one is built per call.
	collator := collate.New(collationTag)

	sort.SliceStable(rows, func(i, j int) bool {
		if cmp := collator.CompareString(rows[i].Name, rows[j].Name); cmp != 0 {
			return cmp < 0
		}
		return rows[i].PatientID.String() < rows[j].PatientID.String()
	})

	asc := sortOrder == model.SortAsc

	switch sortBy {
	case SortByName:
		if !asc {
			reverse(rows)
		}
	default:
		sort.SliceStable(rows, func(i, j int) bool {
			if asc {
				return rows[i].PaymentDeficit < rows[j].PaymentDeficit
			}
			return rows[i].PaymentDeficit > rows[j].PaymentDeficit
		})
	}
}

func reverse(rows []*model.PatientFinancials) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
