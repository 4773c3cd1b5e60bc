package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"careerdev-subscription/internal/domain"
	"careerdev-subscription/internal/domain/model"
	"careerdev-subscription/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

// usageColumns whitelists the per-feature counter columns. Column names
// are never built from request input directly; an unknown feature is an
// ErrInvalidArgument before any SQL runs.
var usageColumns = map[model.Feature]string{
	model.FeatureResumes:          "resumes_used",
	model.FeatureCoverLetters:     "cover_letters_used",
	model.FeatureMockInterviews:   "mock_interviews_used",
	model.FeatureQuizGenerates:    "quiz_generates_used",
	model.FeatureRoadmapGenerator: "roadmap_generator_used",
	model.FeatureProjectFeedback:  "project_feedback_used",
	model.FeatureSalaryGuide:      "salary_guide_used",
	model.FeatureHRContactList:    "hr_contact_list_used",
}

// scan order for the usage columns, matching selectSubSQL.
var usageOrder = []model.Feature{
	model.FeatureResumes,
	model.FeatureCoverLetters,
	model.FeatureMockInterviews,
	model.FeatureQuizGenerates,
	model.FeatureRoadmapGenerator,
	model.FeatureProjectFeedback,
	model.FeatureSalaryGuide,
	model.FeatureHRContactList,
}

const selectSubSQL = `
SELECT user_id, tier, start_at, end_at, auto_renew, last_reset, created_at, updated_at,
       resumes_used, cover_letters_used, mock_interviews_used, quiz_generates_used,
       roadmap_generator_used, project_feedback_used, salary_guide_used, hr_contact_list_used
  FROM user_subscriptions`

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.UserSubscription) error {
	const q = `
INSERT INTO user_subscriptions (
  user_id, tier, start_at, end_at, auto_renew, last_reset, created_at, updated_at,
  resumes_used, cover_letters_used, mock_interviews_used, quiz_generates_used,
  roadmap_generator_used, project_feedback_used, salary_guide_used, hr_contact_list_used
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
ON CONFLICT (user_id) DO UPDATE SET
  tier=$2, start_at=$3, end_at=$4, auto_renew=$5, last_reset=$6, updated_at=$8,
  resumes_used=$9, cover_letters_used=$10, mock_interviews_used=$11, quiz_generates_used=$12,
  roadmap_generator_used=$13, project_feedback_used=$14, salary_guide_used=$15, hr_contact_list_used=$16;`

	args := []interface{}{
		s.UserID, s.Tier, s.StartAt, s.EndAt, s.AutoRenew, s.LastReset, s.CreatedAt, s.UpdatedAt,
	}
	for _, f := range usageOrder {
		args = append(args, s.Used(f))
	}
	_, err := execSQL(ctx, r.pool, tx, q, args...)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
				return domain.ErrAlreadyExists
			}
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *subscriptionRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.UserSubscription, error) {
	q := selectSubSQL + ` WHERE user_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanSub(row)
}

func (r *subscriptionRepo) IncrementUsage(ctx context.Context, tx repository.Tx, userID string, feature model.Feature, limit int64) error {
	col, ok := usageColumns[feature]
	if !ok {
		return domain.ErrInvalidArgument
	}
	// Conditional increment: the WHERE clause re-checks the ceiling so
	// two racing commits can never push a counter past its limit.
	// A negative limit means unlimited.
	q := fmt.Sprintf(`
UPDATE user_subscriptions
   SET %[1]s = %[1]s + 1, updated_at = NOW()
 WHERE user_id = $1 AND ($2 < 0 OR %[1]s < $2);`, col)

	ct, err := execSQL(ctx, r.pool, tx, q, userID, limit)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrQuotaExceeded
	}
	return nil
}

func (r *subscriptionRepo) ResetUsage(ctx context.Context, tx repository.Tx, userID string, at time.Time) error {
	const q = `
UPDATE user_subscriptions
   SET resumes_used=0, cover_letters_used=0, mock_interviews_used=0, quiz_generates_used=0,
       roadmap_generator_used=0, project_feedback_used=0, salary_guide_used=0, hr_contact_list_used=0,
       last_reset=$2, updated_at=$2
 WHERE user_id=$1;`
	ct, err := execSQL(ctx, r.pool, tx, q, userID, at)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *subscriptionRepo) CountByTier(ctx context.Context, tx repository.Tx) (map[model.Tier]int, error) {
	const q = `
SELECT tier, COUNT(*)
  FROM user_subscriptions
 GROUP BY tier;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	m := make(map[model.Tier]int)
	for rows.Next() {
		var (
			tier model.Tier
			n    int
		)
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		m[tier] = n
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return m, nil
}

func scanSub(row pgx.Row) (*model.UserSubscription, error) {
	s := &model.UserSubscription{Usage: make(map[model.Feature]int64, len(usageOrder))}
	counters := make([]int64, len(usageOrder))
	dest := []interface{}{
		&s.UserID, &s.Tier, &s.StartAt, &s.EndAt, &s.AutoRenew, &s.LastReset, &s.CreatedAt, &s.UpdatedAt,
	}
	for i := range counters {
		dest = append(dest, &counters[i])
	}
	if err := row.Scan(dest...); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	for i, f := range usageOrder {
		s.Usage[f] = counters[i]
	}
	return s, nil
}
