package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"aish-backend/internal/apperr"
	"aish-backend/internal/database/dbtest"
	"aish-backend/internal/metrics"
	"aish-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCaseService(t *testing.T) *CaseService {
	t.Helper()
	return NewCaseService(dbtest.New(t), metrics.New(), zap.NewNop())
}

func caseInput(name string, status models.Status, severity models.Severity) *models.CaseInput {
	return &models.CaseInput{
		Name:        name,
		Age:         models.NumberOf(40),
		Location:    "Kisumu",
		Symptoms:    "vomiting",
		WaterSource: models.WaterRiver,
		Severity:    severity,
		Status:      status,
	}
}

func TestCreateThenGet(t *testing.T) {
	ctx := context.Background()
	s := newCaseService(t)

	lat, lng := -0.09, 34.76
	owner := "u-17"
	in := caseInput("  Amina ", models.StatusUnderTreatment, models.SeverityLow)
	in.Lat, in.Lng = models.NumberOf(lat), models.NumberOf(lng)
	in.UserID = &owner
	in.ReportedBy = "Dr. Otieno"

	created, err := s.CreateCase(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Synced)
	assert.Equal(t, "Amina", created.Name)

	got, err := s.GetCase(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Amina", got.Name)
	assert.Equal(t, 40, got.Age)
	assert.Equal(t, "Kisumu", got.Location)
	assert.Equal(t, lat, *got.Lat)
	assert.Equal(t, lng, *got.Lng)
	assert.Equal(t, "vomiting", got.Symptoms)
	assert.Equal(t, models.WaterRiver, got.WaterSource)
	assert.Equal(t, models.SeverityLow, got.Severity)
	assert.Equal(t, models.StatusUnderTreatment, got.Status)
	assert.Equal(t, "u-17", *got.UserID)
	assert.Equal(t, "Dr. Otieno", got.ReportedBy)
	assert.True(t, got.Synced)
	assert.True(t, created.Timestamp.Equal(got.Timestamp))
}

func TestCreateDefaults(t *testing.T) {
	s := newCaseService(t)
	fixed := time.Date(2024, time.August, 15, 9, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	created, err := s.CreateCase(context.Background(), caseInput("Ben", "", models.SeverityMedium))
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, created.Status)
	assert.Equal(t, "Aug 15", created.Date)
	assert.True(t, fixed.Equal(created.Timestamp))
	assert.Equal(t, models.DefaultReporter, created.ReportedBy)
	assert.Nil(t, created.Lat)
	assert.Nil(t, created.UserID)
}

func TestCreateKeepsClientTimestamp(t *testing.T) {
	s := newCaseService(t)
	ts := time.Date(2023, time.December, 1, 6, 0, 0, 0, time.UTC)
	in := caseInput("Chen", models.StatusActive, models.SeverityLow)
	in.Timestamp = &models.FlexTime{Time: ts}

	created, err := s.CreateCase(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, ts.Equal(created.Timestamp))
}

func TestCreateRejectsInvalidSeverity(t *testing.T) {
	ctx := context.Background()
	s := newCaseService(t)

	_, err := s.CreateCase(ctx, caseInput("Dana", models.StatusActive, "extreme"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))
	assert.Contains(t, err.Error(), "severity")

	all, err := s.ListCases(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateRejectsBlankAfterTrim(t *testing.T) {
	s := newCaseService(t)
	in := caseInput("   ", models.StatusActive, models.SeverityLow)

	_, err := s.CreateCase(context.Background(), in)
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestListCasesNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newCaseService(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, tc := range []struct {
		name  string
		hours int
	}{{"old", 0}, {"newest", 48}, {"middle", 24}} {
		in := caseInput(tc.name, models.StatusActive, models.SeverityLow)
		in.Timestamp = &models.FlexTime{Time: base.Add(time.Duration(tc.hours) * time.Hour)}
		_, err := s.CreateCase(ctx, in)
		require.NoError(t, err)
	}

	all, err := s.ListCases(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "newest", all[0].Name)
	assert.Equal(t, "middle", all[1].Name)
	assert.Equal(t, "old", all[2].Name)
}

func TestGetCaseNotFound(t *testing.T) {
	_, err := newCaseService(t).GetCase(context.Background(), "missing")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestUpdateCase(t *testing.T) {
	ctx := context.Background()
	s := newCaseService(t)

	created, err := s.CreateCase(ctx, caseInput("Eli", models.StatusActive, models.SeverityHigh))
	require.NoError(t, err)

	patch := models.RawCase(`{"status":"Recovered","severity":"low","symptoms":" none "}`)
	first, err := s.UpdateCase(ctx, created.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRecovered, first.Status)
	assert.Equal(t, models.SeverityLow, first.Severity)
	assert.Equal(t, "none", first.Symptoms)
	assert.Equal(t, "Eli", first.Name)
	assert.Equal(t, created.Date, first.Date)
	assert.True(t, first.Synced)
	assert.False(t, first.UpdatedAt.Before(created.UpdatedAt))

	second, err := s.UpdateCase(ctx, created.ID, patch)
	require.NoError(t, err)

	a, b := *first, *second
	a.UpdatedAt, b.UpdatedAt = time.Time{}, time.Time{}
	a.CreatedAt, b.CreatedAt = time.Time{}, time.Time{}
	assert.True(t, a.Timestamp.Equal(b.Timestamp))
	a.Timestamp, b.Timestamp = time.Time{}, time.Time{}
	assert.Equal(t, a, b)

	stored, err := s.GetCase(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRecovered, stored.Status)
}

func TestUpdateCaseValidation(t *testing.T) {
	ctx := context.Background()
	s := newCaseService(t)

	created, err := s.CreateCase(ctx, caseInput("Fay", models.StatusActive, models.SeverityLow))
	require.NoError(t, err)

	_, err = s.UpdateCase(ctx, created.ID, models.RawCase(`{"age":200}`))
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = s.UpdateCase(ctx, created.ID, models.RawCase(`{"status":"Closed"}`))
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = s.UpdateCase(ctx, created.ID, models.RawCase(`{"age":"forty"}`))
	assert.True(t, apperr.Is(err, apperr.Validation))

	stored, err := s.GetCase(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, stored.Age)
	assert.Equal(t, models.StatusActive, stored.Status)
}

func TestUpdateCaseNotFound(t *testing.T) {
	_, err := newCaseService(t).UpdateCase(context.Background(), "missing", models.RawCase(`{"status":"Recovered"}`))
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestDeleteCase(t *testing.T) {
	ctx := context.Background()
	s := newCaseService(t)

	created, err := s.CreateCase(ctx, caseInput("Gus", models.StatusActive, models.SeverityLow))
	require.NoError(t, err)

	deleted, err := s.DeleteCase(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)
	assert.Equal(t, "Gus", deleted.Name)

	_, err = s.GetCase(ctx, created.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = s.DeleteCase(ctx, created.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestSyncSkipsExistingID(t *testing.T) {
	ctx := context.Background()
	s := newCaseService(t)

	existing, err := s.CreateCase(ctx, caseInput("Hana", models.StatusActive, models.SeverityLow))
	require.NoError(t, err)

	payload := fmt.Sprintf(`{"_id":%q,"name":"Changed","age":10,"location":"X","symptoms":"Y","waterSource":"Pond","severity":"high"}`, existing.ID)
	res := s.SyncCases(ctx, []models.RawCase{models.RawCase(payload)})
	assert.Empty(t, res.Errors)
	require.Len(t, res.Cases, 1)
	assert.Equal(t, existing.ID, res.Cases[0].ID)
	assert.Equal(t, "Hana", res.Cases[0].Name)
	assert.Equal(t, models.SeverityLow, res.Cases[0].Severity)

	all, err := s.ListCases(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSyncWithoutIDCreatesEachTime(t *testing.T) {
	ctx := context.Background()
	s := newCaseService(t)
	payload := models.RawCase(`{"name":"Ivo","age":5,"location":"Gulu","symptoms":"cough","waterSource":"Tap Water","severity":"medium","timestamp":"2024-02-01T10:00:00Z"}`)

	first := s.SyncCases(ctx, []models.RawCase{payload})
	second := s.SyncCases(ctx, []models.RawCase{payload})
	require.Len(t, first.Cases, 1)
	require.Len(t, second.Cases, 1)
	assert.NotEqual(t, first.Cases[0].ID, second.Cases[0].ID)
	assert.True(t, first.Cases[0].Synced)
	assert.True(t, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC).Equal(first.Cases[0].Timestamp))

	all, err := s.ListCases(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSyncKeepsClientIDForNewRecord(t *testing.T) {
	ctx := context.Background()
	s := newCaseService(t)
	payload := models.RawCase(`{"_id":"offline-42","name":"Jo","age":30,"location":"Mbale","symptoms":"rash","waterSource":"Well","severity":"low"}`)

	res := s.SyncCases(ctx, []models.RawCase{payload})
	require.Len(t, res.Cases, 1)
	assert.Equal(t, "offline-42", res.Cases[0].ID)

	again := s.SyncCases(ctx, []models.RawCase{payload})
	require.Len(t, again.Cases, 1)
	assert.Equal(t, "offline-42", again.Cases[0].ID)

	all, err := s.ListCases(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSyncCollectsElementErrors(t *testing.T) {
	ctx := context.Background()
	s := newCaseService(t)
	batch := []models.RawCase{
		models.RawCase(`{"name":"Good","age":30,"location":"A","symptoms":"B","waterSource":"Well","severity":"low"}`),
		models.RawCase(`{"name":"BadSeverity","age":30,"location":"A","symptoms":"B","waterSource":"Well","severity":"extreme"}`),
		models.RawCase(`{"name":"BadAge","age":"thirty"}`),
		models.RawCase(`"not an object"`),
		models.RawCase(`{"name":"AlsoGood","age":1,"location":"C","symptoms":"D","waterSource":"Rainwater","severity":"high"}`),
	}

	res := s.SyncCases(ctx, batch)
	require.Len(t, res.Cases, 2)
	assert.Equal(t, "Good", res.Cases[0].Name)
	assert.Equal(t, "AlsoGood", res.Cases[1].Name)

	require.Len(t, res.Errors, 3)
	assert.Equal(t, "BadSeverity", res.Errors[0].Case)
	assert.Contains(t, res.Errors[0].Error, "severity")
	assert.Equal(t, "BadAge", res.Errors[1].Case)
	assert.Equal(t, "", res.Errors[2].Case)
}

func TestSyncConcurrentSameIDStoresOnce(t *testing.T) {
	ctx := context.Background()
	s := newCaseService(t)
	payload := models.RawCase(`{"_id":"race-1","name":"Kim","age":30,"location":"A","symptoms":"B","waterSource":"Well","severity":"low"}`)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := s.SyncCases(ctx, []models.RawCase{payload})
			assert.Empty(t, res.Errors)
		}()
	}
	wg.Wait()

	all, err := s.ListCases(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newCaseService(t)

	empty, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.CaseStats{}, *empty)

	inputs := []*models.CaseInput{
		caseInput("a", models.StatusActive, models.SeverityLow),
		caseInput("b", models.StatusActive, models.SeverityMedium),
		caseInput("c", models.StatusActive, models.SeverityLow),
		caseInput("d", models.StatusRecovered, models.SeverityLow),
		caseInput("e", models.StatusUnderTreatment, models.SeverityHigh),
	}
	for _, in := range inputs {
		_, err := s.CreateCase(ctx, in)
		require.NoError(t, err)
	}

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.CaseStats{Total: 5, Active: 3, Recovered: 1, Critical: 1}, *st)
}

func TestStatsFailsWhenStoreIsGone(t *testing.T) {
	s := newCaseService(t)
	sqlDB, err := s.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = s.Stats(context.Background())
	assert.True(t, apperr.Is(err, apperr.Internal))
}
