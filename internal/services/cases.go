package services

import (
	"context"
	"errors"
	"time"

	"aish-backend/internal/apperr"
	"aish-backend/internal/metrics"
	"aish-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CaseService stores and queries reported cases.
type CaseService struct {
	db       *gorm.DB
	validate *validator.Validate
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

func NewCaseService(db *gorm.DB, m *metrics.Metrics, log *zap.Logger) *CaseService {
	return &CaseService{
		db:       db,
		validate: models.NewValidator(),
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// ListCases returns all cases, newest timestamp first.
func (s *CaseService) ListCases(ctx context.Context) ([]models.Case, error) {
	cases := []models.Case{}
	if err := s.db.WithContext(ctx).Order("timestamp desc").Find(&cases).Error; err != nil {
		s.log.Error("list cases", zap.Error(err))
		return nil, apperr.Wrap(apperr.Internal, "Failed to fetch cases", err)
	}
	return cases, nil
}

func (s *CaseService) GetCase(ctx context.Context, id string) (*models.Case, error) {
	return s.find(ctx, s.db, id, "Failed to fetch case")
}

// CreateCase validates in and stores it as a new synced case.
func (s *CaseService) CreateCase(ctx context.Context, in *models.CaseInput) (*models.Case, error) {
	c, err := s.build(in)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		if isDuplicate(err) {
			return nil, apperr.Wrap(apperr.Conflict, "Case already exists", err)
		}
		s.log.Error("create case", zap.Error(err))
		return nil, apperr.Wrap(apperr.Internal, "Failed to create case", err)
	}
	s.metrics.CaseEvent(metrics.CaseCreated)
	s.log.Info("case created", zap.String("id", c.ID), zap.String("name", c.Name), zap.String("location", c.Location))
	return c, nil
}

// UpdateCase merges the fields present in raw onto the stored case,
// revalidates the result and saves it.
func (s *CaseService) UpdateCase(ctx context.Context, id string, raw models.RawCase) (*models.Case, error) {
	var updated *models.Case
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.find(ctx, tx, id, "Failed to update case")
		if err != nil {
			return err
		}

		in := models.InputFromCase(c)
		if err := raw.ApplyTo(&in); err != nil {
			return apperr.Invalid("Validation failed", err)
		}
		in.Normalize()
		if err := s.validate.Struct(&in); err != nil {
			return apperr.Invalid("Validation failed", models.DescribeValidation(err))
		}

		c.ApplyInput(&in)
		c.Timestamp = c.Timestamp.UTC().Truncate(time.Millisecond)
		c.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)
		if err := tx.Save(c).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "Failed to update case", err)
		}
		updated = c
		return nil
	})
	if err != nil {
		if apperr.Is(err, apperr.Internal) {
			s.log.Error("update case", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	s.metrics.CaseEvent(metrics.CaseUpdated)
	s.log.Info("case updated", zap.String("id", updated.ID), zap.String("name", updated.Name))
	return updated, nil
}

// DeleteCase removes the case and returns it as it was stored.
func (s *CaseService) DeleteCase(ctx context.Context, id string) (*models.Case, error) {
	var deleted *models.Case
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.find(ctx, tx, id, "Failed to delete case")
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.Case{}, "id = ?", c.ID).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "Failed to delete case", err)
		}
		deleted = c
		return nil
	})
	if err != nil {
		if apperr.Is(err, apperr.Internal) {
			s.log.Error("delete case", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	s.metrics.CaseEvent(metrics.CaseDeleted)
	s.log.Info("case deleted", zap.String("id", deleted.ID), zap.String("name", deleted.Name))
	return deleted, nil
}

// SyncCases stores a batch of cases created offline. An element whose _id
// is already stored is returned as stored; every other element is created
// like CreateCase. Element failures are collected and never stop the batch.
func (s *CaseService) SyncCases(ctx context.Context, batch []models.RawCase) models.SyncResult {
	res := models.SyncResult{Cases: []models.Case{}}
	for _, raw := range batch {
		c, err := s.syncOne(ctx, raw)
		if err != nil {
			s.metrics.CaseEvent(metrics.CaseSyncFailed)
			res.Errors = append(res.Errors, models.SyncError{Case: raw.Name(), Error: syncErrorText(err)})
			continue
		}
		res.Cases = append(res.Cases, *c)
	}
	s.log.Info("cases synced", zap.Int("synced", len(res.Cases)), zap.Int("errors", len(res.Errors)))
	return res
}

func (s *CaseService) syncOne(ctx context.Context, raw models.RawCase) (*models.Case, error) {
	var in models.CaseInput
	if err := raw.ApplyTo(&in); err != nil {
		return nil, apperr.Invalid("Validation failed", err)
	}
	in.Normalize()

	if in.ID != "" {
		existing, err := s.find(ctx, s.db, in.ID, "Failed to sync case")
		if err == nil {
			s.metrics.CaseEvent(metrics.CaseSyncSkip)
			return existing, nil
		}
		if !apperr.Is(err, apperr.NotFound) {
			return nil, err
		}
	}

	c, err := s.build(&in)
	if err != nil {
		return nil, err
	}
	// Insert-if-absent: a concurrent sync of the same _id loses the race
	// here and gets the winner's record back.
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(c)
	if result.Error != nil {
		return nil, apperr.Wrap(apperr.Internal, "Failed to sync case", result.Error)
	}
	if result.RowsAffected == 0 {
		s.metrics.CaseEvent(metrics.CaseSyncSkip)
		return s.find(ctx, s.db, c.ID, "Failed to sync case")
	}
	s.metrics.CaseEvent(metrics.CaseSynced)
	return c, nil
}

// Stats counts all cases, active cases, recovered cases and high severity
// cases with four concurrent queries.
func (s *CaseService) Stats(ctx context.Context) (*models.CaseStats, error) {
	var st models.CaseStats
	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int64, query string, args ...any) {
		g.Go(func() error {
			q := s.db.WithContext(gctx).Model(&models.Case{})
			if query != "" {
				q = q.Where(query, args...)
			}
			return q.Count(dst).Error
		})
	}
	count(&st.Total, "")
	count(&st.Active, "status = ?", models.StatusActive)
	count(&st.Recovered, "status = ?", models.StatusRecovered)
	count(&st.Critical, "severity = ?", models.SeverityHigh)

	if err := g.Wait(); err != nil {
		s.log.Error("case stats", zap.Error(err))
		return nil, apperr.Wrap(apperr.Internal, "Failed to fetch stats", err)
	}
	return &st, nil
}

// build validates in and turns it into a new record with defaults applied
// and an id assigned.
func (s *CaseService) build(in *models.CaseInput) (*models.Case, error) {
	in.Normalize()
	if err := s.validate.Struct(in); err != nil {
		return nil, apperr.Invalid("Validation failed", models.DescribeValidation(err))
	}
	c := in.ToCase(s.now())
	c.Timestamp = c.Timestamp.UTC().Truncate(time.Millisecond)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return c, nil
}

func (s *CaseService) find(ctx context.Context, db *gorm.DB, id, failure string) (*models.Case, error) {
	var c models.Case
	if err := db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Missing("Case not found")
		}
		return nil, apperr.Wrap(apperr.Internal, failure, err)
	}
	return &c, nil
}

func syncErrorText(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	return err.Error()
}
