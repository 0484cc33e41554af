package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/smilemakc/contentforge/internal/domain"
	"github.com/smilemakc/contentforge/internal/domain/cferrors"
)

// BunStore is the Postgres-backed Persistence Store (C1), built the same
// way a bun-backed store usually is: a bun.DB over pgdriver/pgdialect, with a
// bounded connection pool (spec §4.1: "Pool MUST cap concurrent
// connections; acquire is blocking with a bounded wait").
type BunStore struct {
	db *bun.DB
}

// NewBunStore opens a pool against dsn. maxOpenConns/maxIdleConns bound
// the pool per spec §4.1; a caller that exceeds the bound blocks until a
// connection frees up or its context deadline fires — it never silently
// retries the query against a phantom connection.
func NewBunStore(dsn string, maxOpenConns, maxIdleConns int) *BunStore {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if maxOpenConns > 0 {
		sqldb.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		sqldb.SetMaxIdleConns(maxIdleConns)
	}
	db := bun.NewDB(sqldb, pgdialect.New())
	return &BunStore{db: db}
}

func (s *BunStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *BunStore) Close() error {
	return s.db.Close()
}

// InitSchema creates every table this store owns, matching the usual
// InitSchema idiom (IfNotExists per model, no migration framework in this
// revision).
func (s *BunStore) InitSchema(ctx context.Context) error {
	models := []interface{}{
		(*NewsSourceModel)(nil),
		(*ArticleModel)(nil),
		(*PromptTemplateModel)(nil),
		(*PromptVersionModel)(nil),
		(*GeneratedArticleModel)(nil),
		(*GeneratedContentModel)(nil),
		(*AIResponseLogModel)(nil),
		(*JobModel)(nil),
		(*JobLogModel)(nil),
		(*SettingsModel)(nil),
	}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	_, err := s.db.NewCreateIndex().
		Model((*ArticleModel)(nil)).
		Unique().
		IfNotExists().
		Index("articles_account_url_uq").
		Column("account_id", "url").
		Exec(ctx)
	return err
}

// --- NewsSourceRepository ---

func (s *BunStore) SaveNewsSource(ctx context.Context, src *domain.NewsSource) error {
	model := newsSourceToModel(src)
	_, err := s.db.NewInsert().Model(model).
		On("CONFLICT (source_id) DO UPDATE").
		Exec(ctx)
	if err != nil {
		return err
	}
	src.SourceID = model.SourceID
	return nil
}

func (s *BunStore) GetNewsSource(ctx context.Context, accountID string, sourceID int64) (*domain.NewsSource, error) {
	model := new(NewsSourceModel)
	err := s.db.NewSelect().Model(model).
		Where("source_id = ? AND account_id = ?", sourceID, accountID).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, cferrors.NewNotFoundError("news_source", fmt.Sprint(sourceID))
		}
		return nil, err
	}
	return newsSourceFromModel(model), nil
}

func (s *BunStore) ListActiveNewsSources(ctx context.Context, accountID string) ([]*domain.NewsSource, error) {
	var models []NewsSourceModel
	err := s.db.NewSelect().Model(&models).
		Where("account_id = ? AND active = ?", accountID, true).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.NewsSource, len(models))
	for i := range models {
		out[i] = newsSourceFromModel(&models[i])
	}
	return out, nil
}

func (s *BunStore) TouchNewsSourceChecked(ctx context.Context, accountID string, sourceID int64, at time.Time) error {
	_, err := s.db.NewUpdate().Model((*NewsSourceModel)(nil)).
		Set("last_checked_at = ?", at).
		Where("source_id = ? AND account_id = ?", sourceID, accountID).
		Exec(ctx)
	return err
}

// --- ArticleRepository ---

func (s *BunStore) InsertArticle(ctx context.Context, a *domain.ScrapedArticle) (int64, bool, error) {
	model := articleToModel(a)
	res, err := s.db.NewInsert().Model(model).
		On("CONFLICT (account_id, url) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return 0, false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if affected == 0 {
		return 0, false, nil
	}
	a.ArticleID = model.ArticleID
	return model.ArticleID, true, nil
}

func (s *BunStore) ArticleExistsByURL(ctx context.Context, accountID, url string) (bool, error) {
	exists, err := s.db.NewSelect().Model((*ArticleModel)(nil)).
		Where("account_id = ? AND url = ?", accountID, url).
		Exists(ctx)
	return exists, err
}

func (s *BunStore) GetArticle(ctx context.Context, accountID string, articleID int64) (*domain.ScrapedArticle, error) {
	model := new(ArticleModel)
	err := s.db.NewSelect().Model(model).
		Where("article_id = ? AND account_id = ?", articleID, accountID).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, cferrors.NewNotFoundError("article", fmt.Sprint(articleID))
		}
		return nil, err
	}
	return articleFromModel(model), nil
}

func (s *BunStore) ListArticlesByStatus(ctx context.Context, accountID string, status domain.ArticleStatus, limit int) ([]*domain.ScrapedArticle, error) {
	var models []ArticleModel
	q := s.db.NewSelect().Model(&models).
		Where("account_id = ? AND status = ?", accountID, string(status)).
		Order("scraped_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]*domain.ScrapedArticle, len(models))
	for i := range models {
		out[i] = articleFromModel(&models[i])
	}
	return out, nil
}

func (s *BunStore) ListTopRelevance(ctx context.Context, accountID string, excludeStatus domain.ArticleStatus, limit int) ([]*domain.ScrapedArticle, error) {
	var models []ArticleModel
	err := s.db.NewSelect().Model(&models).
		Where("account_id = ? AND status != ? AND relevance_score IS NOT NULL", accountID, string(excludeStatus)).
		Order("relevance_score DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.ScrapedArticle, len(models))
	for i := range models {
		out[i] = articleFromModel(&models[i])
	}
	return out, nil
}

func (s *BunStore) UpdateArticleAnalysis(ctx context.Context, a *domain.ScrapedArticle) error {
	_, err := s.db.NewUpdate().Model((*ArticleModel)(nil)).
		Set("status = ?", string(a.Status)).
		Set("summary = ?", a.Summary).
		Set("keywords = ?", a.Keywords).
		Set("relevance_score = ?", a.RelevanceScore).
		Where("article_id = ? AND account_id = ?", a.ArticleID, a.AccountID).
		Exec(ctx)
	return err
}

func (s *BunStore) MarkArticleStatus(ctx context.Context, accountID string, articleID int64, status domain.ArticleStatus) error {
	_, err := s.db.NewUpdate().Model((*ArticleModel)(nil)).
		Set("status = ?", string(status)).
		Where("article_id = ? AND account_id = ?", articleID, accountID).
		Exec(ctx)
	return err
}

// --- TemplateRepository ---

func (s *BunStore) ListActiveTemplatesWithCurrentVersion(ctx context.Context, accountID string) ([]*domain.PromptTemplate, error) {
	var templateModels []PromptTemplateModel
	err := s.db.NewSelect().Model(&templateModels).
		Where("active = ? AND (account_id = ? OR account_id = ?)", true, accountID, domain.GlobalAccountID).
		Order("execution_order ASC", "name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	// Tenant templates take precedence over a global template of the
	// same name (spec §4.5).
	byName := make(map[string]*PromptTemplateModel, len(templateModels))
	order := make([]string, 0, len(templateModels))
	for i := range templateModels {
		m := &templateModels[i]
		existing, ok := byName[m.Name]
		if !ok {
			byName[m.Name] = m
			order = append(order, m.Name)
			continue
		}
		if existing.AccountID == domain.GlobalAccountID && m.AccountID == accountID {
			byName[m.Name] = m
		}
	}

	out := make([]*domain.PromptTemplate, 0, len(order))
	for _, name := range order {
		m := byName[name]
		version := new(PromptVersionModel)
		err := s.db.NewSelect().Model(version).
			Where("template_id = ? AND is_current = ?", m.TemplateID, true).
			Scan(ctx)
		t := &domain.PromptTemplate{
			TemplateID:     m.TemplateID,
			AccountID:      m.AccountID,
			Name:           m.Name,
			Category:       m.Category,
			ExecutionOrder: m.ExecutionOrder,
			MediaType:      domain.MediaType(m.MediaType),
			ParsingMethod:  domain.ParsingMethod(m.ParsingMethod),
			UIConfig:       m.UIConfig,
			Active:         m.Active,
		}
		if err == nil {
			t.Current = &domain.PromptVersion{
				VersionID:     version.VersionID,
				TemplateID:    version.TemplateID,
				VersionNumber: version.VersionNumber,
				PromptText:    version.PromptText,
				SystemMessage: version.SystemMessage,
				IsCurrent:     version.IsCurrent,
				CreatedAt:     version.CreatedAt,
			}
		}
		out = append(out, t)
	}
	return out, nil
}

// SetCurrentVersion atomically clears the previous current version and
// sets the new one, inside one transaction, per spec §3's PromptVersion
// invariant.
func (s *BunStore) SetCurrentVersion(ctx context.Context, templateID int64, versionID int64) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().Model((*PromptVersionModel)(nil)).
			Set("is_current = ?", false).
			Where("template_id = ?", templateID).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewUpdate().Model((*PromptVersionModel)(nil)).
			Set("is_current = ?", true).
			Where("version_id = ? AND template_id = ?", versionID, templateID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return cferrors.NewNotFoundError("prompt_version", fmt.Sprint(versionID))
		}
		return nil
	})
}

// --- GeneratedContentRepository ---

func (s *BunStore) CreateDraftGeneratedArticle(ctx context.Context, ga *domain.GeneratedArticle) (uuid.UUID, error) {
	if ga.GenArticleID == uuid.Nil {
		ga.GenArticleID = uuid.New()
	}
	model := &GeneratedArticleModel{
		GenArticleID:     ga.GenArticleID,
		AccountID:        ga.AccountID,
		BasedOnArticleID: ga.BasedOnArticleID,
		Title:            ga.Title,
		Body:             ga.Body,
		Status:           string(ga.Status),
		CreatedAt:        ga.CreatedAt,
	}
	_, err := s.db.NewInsert().Model(model).Exec(ctx)
	return ga.GenArticleID, err
}

func (s *BunStore) HasInProgressGeneration(ctx context.Context, accountID string, basedOnArticleID int64) (bool, error) {
	statuses := domain.InProgressStatuses()
	strs := make([]string, len(statuses))
	for i, st := range statuses {
		strs[i] = string(st)
	}
	return s.db.NewSelect().Model((*GeneratedArticleModel)(nil)).
		Where("account_id = ? AND based_on_article_id = ? AND status IN (?)", accountID, basedOnArticleID, bun.In(strs)).
		Exists(ctx)
}

func (s *BunStore) UpdateGeneratedArticleBody(ctx context.Context, accountID string, id uuid.UUID, title, body string) error {
	_, err := s.db.NewUpdate().Model((*GeneratedArticleModel)(nil)).
		Set("title = ?", title).
		Set("body = ?", body).
		Where("gen_article_id = ? AND account_id = ?", id, accountID).
		Exec(ctx)
	return err
}

func (s *BunStore) TransitionGeneratedArticleStatus(ctx context.Context, accountID string, id uuid.UUID, status domain.GeneratedArticleStatus) error {
	_, err := s.db.NewUpdate().Model((*GeneratedArticleModel)(nil)).
		Set("status = ?", string(status)).
		Where("gen_article_id = ? AND account_id = ?", id, accountID).
		Exec(ctx)
	return err
}

func (s *BunStore) InsertGeneratedContent(ctx context.Context, c *domain.GeneratedContent) error {
	if c.ContentID == uuid.Nil {
		c.ContentID = uuid.New()
	}
	model := &GeneratedContentModel{
		ContentID:           c.ContentID,
		AccountID:           c.AccountID,
		BasedOnGenArticleID: c.BasedOnGenArticleID,
		PromptCategory:      c.PromptCategory,
		ContentData:         c.ContentData,
		Metadata:            c.Metadata,
		Status:              c.Status,
		CreatedAt:           c.CreatedAt,
	}
	_, err := s.db.NewInsert().Model(model).Exec(ctx)
	return err
}

func (s *BunStore) InsertAIResponseLog(ctx context.Context, l *domain.AIResponseLog) error {
	if l.LogID == uuid.Nil {
		l.LogID = uuid.New()
	}
	model := &AIResponseLogModel{
		LogID:              l.LogID,
		GeneratedArticleID: l.GeneratedArticleID,
		TemplateID:         l.TemplateID,
		VersionID:          l.VersionID,
		Category:           l.Category,
		Provider:           l.Provider,
		Model:              l.Model,
		PromptText:         l.PromptText,
		SystemMessage:      l.SystemMessage,
		ResponseText:       l.ResponseText,
		TokensInput:        l.TokensInput,
		TokensOutput:       l.TokensOutput,
		TokensTotal:        l.TokensTotal,
		DurationMs:         l.DurationMs,
		Temperature:        l.Temperature,
		MaxOutputTokens:    l.MaxOutputTokens,
		StopReason:         l.StopReason,
		IsComplete:         l.IsComplete,
		IsTruncated:        l.IsTruncated,
		SafetyRatings:      l.SafetyRatings,
		Success:            l.Success,
		Error:              l.Error,
		Warning:            l.Warning,
		CreatedAt:          l.CreatedAt,
	}
	_, err := s.db.NewInsert().Model(model).Exec(ctx)
	return err
}

// --- JobRepository ---

func jobToModel(j *domain.Job) *JobModel {
	return &JobModel{
		JobID:          j.JobID,
		AccountID:      j.AccountID,
		JobType:        string(j.JobType),
		Status:         string(j.Status),
		Priority:       j.Priority,
		Payload:        payloadToMap(j.Payload),
		Results:        resultsOrEmpty(j.Results),
		Error:          j.Error,
		ProgressPct:    j.ProgressPct,
		ProgressDetail: j.ProgressDetail,
		RetryCount:     j.RetryCount,
		MaxRetries:     j.MaxRetries,
		WorkerID:       j.WorkerID,
		CreatedBy:      j.CreatedBy,
		CreatedAt:      j.CreatedAt,
		StartedAt:      j.StartedAt,
		CompletedAt:    j.CompletedAt,
		UpdatedAt:      j.UpdatedAt,
	}
}

func jobFromModel(m *JobModel) *domain.Job {
	return &domain.Job{
		JobID:          m.JobID,
		AccountID:      m.AccountID,
		JobType:        domain.JobType(m.JobType),
		Status:         domain.JobStatus(m.Status),
		Priority:       m.Priority,
		Payload:        payloadFromMap(m.Payload),
		Results:        m.Results,
		Error:          m.Error,
		ProgressPct:    m.ProgressPct,
		ProgressDetail: m.ProgressDetail,
		RetryCount:     m.RetryCount,
		MaxRetries:     m.MaxRetries,
		WorkerID:       m.WorkerID,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
		StartedAt:      m.StartedAt,
		CompletedAt:    m.CompletedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func (s *BunStore) InsertJob(ctx context.Context, j *domain.Job) error {
	model := jobToModel(j)
	_, err := s.db.NewInsert().Model(model).Exec(ctx)
	return err
}

func (s *BunStore) GetJob(ctx context.Context, accountID string, jobID uuid.UUID) (*domain.Job, error) {
	model := new(JobModel)
	q := s.db.NewSelect().Model(model).Where("job_id = ?", jobID)
	if accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}
	if err := q.Scan(ctx); err != nil {
		if err == sql.ErrNoRows {
			return nil, cferrors.NewNotFoundError("job", jobID.String())
		}
		return nil, err
	}
	return jobFromModel(model), nil
}

// NextQueuedJob returns the highest-priority, oldest queued job, optionally
// filtered by account (spec §4.7: "System-wide workers do not filter").
func (s *BunStore) NextQueuedJob(ctx context.Context, accountID string) (*domain.Job, error) {
	model := new(JobModel)
	q := s.db.NewSelect().Model(model).
		Where("status = ?", string(domain.JobStatusQueued)).
		Order("priority DESC", "created_at ASC").
		Limit(1)
	if accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}
	if err := q.Scan(ctx); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return jobFromModel(model), nil
}

// ClaimJob is the single atomic compare-and-set required by spec §4.7: a
// conditional UPDATE gated on WHERE status = 'queued', verified by
// RowsAffected. No transaction is needed — the WHERE clause itself is the
// CAS.
func (s *BunStore) ClaimJob(ctx context.Context, jobID uuid.UUID, workerID string, now time.Time) (bool, error) {
	res, err := s.db.NewUpdate().Model((*JobModel)(nil)).
		Set("status = ?", string(domain.JobStatusProcessing)).
		Set("worker_id = ?", workerID).
		Set("started_at = ?", now).
		Set("updated_at = ?", now).
		Where("job_id = ? AND status = ?", jobID, string(domain.JobStatusQueued)).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *BunStore) UpdateJob(ctx context.Context, j *domain.Job) error {
	model := jobToModel(j)
	_, err := s.db.NewUpdate().Model(model).
		Where("job_id = ? AND account_id = ?", j.JobID, j.AccountID).
		Exec(ctx)
	return err
}

func (s *BunStore) ListRecentJobs(ctx context.Context, accountID string, limit int) ([]*domain.Job, error) {
	var models []JobModel
	err := s.db.NewSelect().Model(&models).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Job, len(models))
	for i := range models {
		out[i] = jobFromModel(&models[i])
	}
	return out, nil
}

func (s *BunStore) ListJobsByStatus(ctx context.Context, status domain.JobStatus, accountID string, limit int) ([]*domain.Job, error) {
	var models []JobModel
	q := s.db.NewSelect().Model(&models).
		Where("status = ?", string(status)).
		Order("priority DESC", "created_at ASC")
	if accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]*domain.Job, len(models))
	for i := range models {
		out[i] = jobFromModel(&models[i])
	}
	return out, nil
}

func (s *BunStore) JobStats(ctx context.Context, accountID string, since time.Time) (map[string]map[string]int, error) {
	type row struct {
		Status  string `bun:"status"`
		JobType string `bun:"job_type"`
		Count   int    `bun:"count"`
	}
	var rows []row
	q := s.db.NewSelect().Model((*JobModel)(nil)).
		ColumnExpr("status, job_type, count(*) AS count").
		Where("created_at >= ?", since).
		Group("status", "job_type")
	if accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, err
	}
	out := map[string]map[string]int{}
	for _, r := range rows {
		if out[r.Status] == nil {
			out[r.Status] = map[string]int{}
		}
		out[r.Status][r.JobType] = r.Count
	}
	return out, nil
}

func (s *BunStore) CleanupTerminalJobs(ctx context.Context, accountID string, olderThan time.Time) (int, error) {
	terminal := []string{string(domain.JobStatusCompleted), string(domain.JobStatusFailed), string(domain.JobStatusCancelled)}
	q := s.db.NewDelete().Model((*JobModel)(nil)).
		Where("status IN (?) AND created_at < ?", bun.In(terminal), olderThan)
	if accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *BunStore) ListStaleProcessingJobs(ctx context.Context, olderThan time.Time) ([]*domain.Job, error) {
	var models []JobModel
	err := s.db.NewSelect().Model(&models).
		Where("status = ? AND started_at < ?", string(domain.JobStatusProcessing), olderThan).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Job, len(models))
	for i := range models {
		out[i] = jobFromModel(&models[i])
	}
	return out, nil
}

// --- JobLogRepository ---

func (s *BunStore) InsertJobLog(ctx context.Context, l *domain.JobLog) error {
	if l.LogID == uuid.Nil {
		l.LogID = uuid.New()
	}
	model := &JobLogModel{
		LogID:     l.LogID,
		JobID:     l.JobID,
		AccountID: l.AccountID,
		Level:     string(l.Level),
		Message:   l.Message,
		Source:    l.Source,
		Metadata:  l.Metadata,
		CreatedAt: l.CreatedAt,
	}
	_, err := s.db.NewInsert().Model(model).Exec(ctx)
	return err
}

func (s *BunStore) ListJobLogs(ctx context.Context, jobID uuid.UUID, accountID string, limit int) ([]*domain.JobLog, error) {
	var models []JobLogModel
	q := s.db.NewSelect().Model(&models).
		Where("job_id = ?", jobID).
		Order("created_at ASC")
	if accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]*domain.JobLog, len(models))
	for i := range models {
		m := &models[i]
		out[i] = &domain.JobLog{
			LogID:     m.LogID,
			JobID:     m.JobID,
			AccountID: m.AccountID,
			Level:     domain.LogLevel(m.Level),
			Message:   m.Message,
			Source:    m.Source,
			Metadata:  m.Metadata,
			CreatedAt: m.CreatedAt,
		}
	}
	return out, nil
}

// --- SettingsRepository ---

// MutateSettings implements spec §4.1's row-level-locking contract for
// settings-shaped JSON blobs: BEGIN; SELECT ... FOR UPDATE; write; COMMIT.
// This is the fix for the "last-writer-wins array-append anti-pattern" the
// spec calls out by name.
func (s *BunStore) MutateSettings(ctx context.Context, accountID, key string, mutate func(current map[string]any) (map[string]any, error)) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		model := new(SettingsModel)
		err := tx.NewSelect().Model(model).
			Where("account_id = ? AND key = ?", accountID, key).
			For("UPDATE").
			Scan(ctx)
		current := map[string]any{}
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		if err == nil {
			current = model.Value
			if current == nil {
				current = map[string]any{}
			}
		}

		next, err := mutate(current)
		if err != nil {
			return err
		}

		row := &SettingsModel{AccountID: accountID, Key: key, Value: next, UpdatedAt: time.Now()}
		_, err = tx.NewInsert().Model(row).
			On("CONFLICT (account_id, key) DO UPDATE").
			Set("value = EXCLUDED.value").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
}
