package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smilemakc/contentforge/internal/domain"
	"github.com/smilemakc/contentforge/internal/domain/cferrors"
)

// MemoryStore is an in-process domain.Storage used by component tests and
// by anything that wants a queue/orchestrator without a database, mirroring
// a mutex-guarded in-memory store: plain maps, no persistence across
// process restarts.
type MemoryStore struct {
	mu sync.Mutex

	newsSources map[int64]*domain.NewsSource
	nextSource  int64

	articles   map[int64]*domain.ScrapedArticle
	nextArticle int64

	templates map[int64]*domain.PromptTemplate
	versions  map[int64]*domain.PromptVersion
	nextTemplate int64
	nextVersion  int64

	genArticles map[uuid.UUID]*domain.GeneratedArticle
	genContent  map[uuid.UUID]*domain.GeneratedContent
	aiLogs      map[uuid.UUID]*domain.AIResponseLog

	jobs map[uuid.UUID]*domain.Job

	jobLogs []*domain.JobLog

	settings map[string]map[string]any
}

// NewMemoryStore returns an empty MemoryStore ready for use.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		newsSources: make(map[int64]*domain.NewsSource),
		articles:    make(map[int64]*domain.ScrapedArticle),
		templates:   make(map[int64]*domain.PromptTemplate),
		versions:    make(map[int64]*domain.PromptVersion),
		genArticles: make(map[uuid.UUID]*domain.GeneratedArticle),
		genContent:  make(map[uuid.UUID]*domain.GeneratedContent),
		aiLogs:      make(map[uuid.UUID]*domain.AIResponseLog),
		jobs:        make(map[uuid.UUID]*domain.Job),
		settings:    make(map[string]map[string]any),
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }
func (s *MemoryStore) Close() error                    { return nil }

// --- NewsSourceRepository ---

func (s *MemoryStore) SaveNewsSource(ctx context.Context, src *domain.NewsSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if src.SourceID == 0 {
		s.nextSource++
		src.SourceID = s.nextSource
	}
	cp := *src
	s.newsSources[src.SourceID] = &cp
	return nil
}

func (s *MemoryStore) GetNewsSource(ctx context.Context, accountID string, sourceID int64) (*domain.NewsSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.newsSources[sourceID]
	if !ok || src.AccountID != accountID {
		return nil, cferrors.NewNotFoundError("news_source", "")
	}
	cp := *src
	return &cp, nil
}

func (s *MemoryStore) ListActiveNewsSources(ctx context.Context, accountID string) ([]*domain.NewsSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.NewsSource
	for _, src := range s.newsSources {
		if src.AccountID == accountID && src.Active {
			cp := *src
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) TouchNewsSourceChecked(ctx context.Context, accountID string, sourceID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.newsSources[sourceID]
	if !ok || src.AccountID != accountID {
		return cferrors.NewNotFoundError("news_source", "")
	}
	src.LastCheckedAt = &at
	return nil
}

// --- ArticleRepository ---

func (s *MemoryStore) InsertArticle(ctx context.Context, a *domain.ScrapedArticle) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.articles {
		if existing.AccountID == a.AccountID && existing.URL == a.URL {
			return 0, false, nil
		}
	}
	s.nextArticle++
	a.ArticleID = s.nextArticle
	cp := *a
	s.articles[a.ArticleID] = &cp
	return a.ArticleID, true, nil
}

func (s *MemoryStore) ArticleExistsByURL(ctx context.Context, accountID, url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.articles {
		if a.AccountID == accountID && a.URL == url {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) GetArticle(ctx context.Context, accountID string, articleID int64) (*domain.ScrapedArticle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[articleID]
	if !ok || a.AccountID != accountID {
		return nil, cferrors.NewNotFoundError("article", "")
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) ListArticlesByStatus(ctx context.Context, accountID string, status domain.ArticleStatus, limit int) ([]*domain.ScrapedArticle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.ScrapedArticle
	for _, a := range s.articles {
		if a.AccountID == accountID && a.Status == status {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScrapedAt.Before(out[j].ScrapedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListTopRelevance(ctx context.Context, accountID string, excludeStatus domain.ArticleStatus, limit int) ([]*domain.ScrapedArticle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.ScrapedArticle
	for _, a := range s.articles {
		if a.AccountID == accountID && a.Status != excludeStatus && a.RelevanceScore != nil {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].RelevanceScore > *out[j].RelevanceScore })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) UpdateArticleAnalysis(ctx context.Context, a *domain.ScrapedArticle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.articles[a.ArticleID]
	if !ok || existing.AccountID != a.AccountID {
		return cferrors.NewNotFoundError("article", "")
	}
	existing.Status = a.Status
	existing.Summary = a.Summary
	existing.Keywords = a.Keywords
	existing.RelevanceScore = a.RelevanceScore
	return nil
}

func (s *MemoryStore) MarkArticleStatus(ctx context.Context, accountID string, articleID int64, status domain.ArticleStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[articleID]
	if !ok || a.AccountID != accountID {
		return cferrors.NewNotFoundError("article", "")
	}
	a.Status = status
	return nil
}

// --- TemplateRepository ---

func (s *MemoryStore) ListActiveTemplatesWithCurrentVersion(ctx context.Context, accountID string) ([]*domain.PromptTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byName := make(map[string]*domain.PromptTemplate)
	for _, t := range s.templates {
		if !t.Active || (t.AccountID != accountID && t.AccountID != domain.GlobalAccountID) {
			continue
		}
		existing, ok := byName[t.Name]
		if !ok || (existing.AccountID == domain.GlobalAccountID && t.AccountID == accountID) {
			cp := *t
			for _, v := range s.versions {
				if v.TemplateID == t.TemplateID && v.IsCurrent {
					vc := *v
					cp.Current = &vc
					break
				}
			}
			byName[t.Name] = &cp
		}
	}

	out := make([]*domain.PromptTemplate, 0, len(byName))
	for _, t := range byName {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExecutionOrder != out[j].ExecutionOrder {
			return out[i].ExecutionOrder < out[j].ExecutionOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *MemoryStore) SetCurrentVersion(ctx context.Context, templateID int64, versionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.versions[versionID]
	if !ok || target.TemplateID != templateID {
		return cferrors.NewNotFoundError("prompt_version", "")
	}
	for _, v := range s.versions {
		if v.TemplateID == templateID {
			v.IsCurrent = false
		}
	}
	target.IsCurrent = true
	return nil
}

// AddTemplate and AddVersion are test-only seeding helpers; production code
// reaches templates exclusively through the interface methods above.
func (s *MemoryStore) AddTemplate(t *domain.PromptTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTemplate++
	t.TemplateID = s.nextTemplate
	cp := *t
	s.templates[t.TemplateID] = &cp
}

func (s *MemoryStore) AddVersion(v *domain.PromptVersion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextVersion++
	v.VersionID = s.nextVersion
	cp := *v
	s.versions[v.VersionID] = &cp
}

// --- GeneratedContentRepository ---

func (s *MemoryStore) CreateDraftGeneratedArticle(ctx context.Context, ga *domain.GeneratedArticle) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ga.GenArticleID == uuid.Nil {
		ga.GenArticleID = uuid.New()
	}
	cp := *ga
	s.genArticles[ga.GenArticleID] = &cp
	return ga.GenArticleID, nil
}

func (s *MemoryStore) HasInProgressGeneration(ctx context.Context, accountID string, basedOnArticleID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inProgress := map[domain.GeneratedArticleStatus]bool{}
	for _, st := range domain.InProgressStatuses() {
		inProgress[st] = true
	}
	for _, ga := range s.genArticles {
		if ga.AccountID == accountID && ga.BasedOnArticleID != nil && *ga.BasedOnArticleID == basedOnArticleID && inProgress[ga.Status] {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) UpdateGeneratedArticleBody(ctx context.Context, accountID string, id uuid.UUID, title, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ga, ok := s.genArticles[id]
	if !ok || ga.AccountID != accountID {
		return cferrors.NewNotFoundError("generated_article", "")
	}
	ga.Title = title
	ga.Body = body
	return nil
}

func (s *MemoryStore) TransitionGeneratedArticleStatus(ctx context.Context, accountID string, id uuid.UUID, status domain.GeneratedArticleStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ga, ok := s.genArticles[id]
	if !ok || ga.AccountID != accountID {
		return cferrors.NewNotFoundError("generated_article", "")
	}
	ga.Status = status
	return nil
}

func (s *MemoryStore) InsertGeneratedContent(ctx context.Context, c *domain.GeneratedContent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ContentID == uuid.Nil {
		c.ContentID = uuid.New()
	}
	cp := *c
	s.genContent[c.ContentID] = &cp
	return nil
}

func (s *MemoryStore) InsertAIResponseLog(ctx context.Context, l *domain.AIResponseLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.LogID == uuid.Nil {
		l.LogID = uuid.New()
	}
	cp := *l
	s.aiLogs[l.LogID] = &cp
	return nil
}

// --- JobRepository ---

func (s *MemoryStore) InsertJob(ctx context.Context, j *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *j
	s.jobs[j.JobID] = &cp
	return nil
}

func (s *MemoryStore) GetJob(ctx context.Context, accountID string, jobID uuid.UUID) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok || (accountID != "" && j.AccountID != accountID) {
		return nil, cferrors.NewNotFoundError("job", jobID.String())
	}
	cp := *j
	return &cp, nil
}

func (s *MemoryStore) NextQueuedJob(ctx context.Context, accountID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *domain.Job
	for _, j := range s.jobs {
		if j.Status != domain.JobStatusQueued {
			continue
		}
		if accountID != "" && j.AccountID != accountID {
			continue
		}
		if best == nil || j.Priority > best.Priority ||
			(j.Priority == best.Priority && j.CreatedAt.Before(best.CreatedAt)) {
			best = j
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (s *MemoryStore) ClaimJob(ctx context.Context, jobID uuid.UUID, workerID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok || j.Status != domain.JobStatusQueued {
		return false, nil
	}
	j.Status = domain.JobStatusProcessing
	j.WorkerID = workerID
	j.StartedAt = &now
	j.UpdatedAt = now
	return true, nil
}

func (s *MemoryStore) UpdateJob(ctx context.Context, j *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.jobs[j.JobID]
	if !ok || existing.AccountID != j.AccountID {
		return cferrors.NewNotFoundError("job", j.JobID.String())
	}
	cp := *j
	s.jobs[j.JobID] = &cp
	return nil
}

func (s *MemoryStore) ListRecentJobs(ctx context.Context, accountID string, limit int) ([]*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Job
	for _, j := range s.jobs {
		if j.AccountID == accountID {
			cp := *j
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListJobsByStatus(ctx context.Context, status domain.JobStatus, accountID string, limit int) ([]*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Job
	for _, j := range s.jobs {
		if j.Status != status {
			continue
		}
		if accountID != "" && j.AccountID != accountID {
			continue
		}
		cp := *j
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) JobStats(ctx context.Context, accountID string, since time.Time) (map[string]map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]map[string]int{}
	for _, j := range s.jobs {
		if accountID != "" && j.AccountID != accountID {
			continue
		}
		if j.CreatedAt.Before(since) {
			continue
		}
		if out[string(j.Status)] == nil {
			out[string(j.Status)] = map[string]int{}
		}
		out[string(j.Status)][string(j.JobType)]++
	}
	return out, nil
}

func (s *MemoryStore) CleanupTerminalJobs(ctx context.Context, accountID string, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, j := range s.jobs {
		if accountID != "" && j.AccountID != accountID {
			continue
		}
		if j.Status.IsTerminal() && j.CreatedAt.Before(olderThan) {
			delete(s.jobs, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) ListStaleProcessingJobs(ctx context.Context, olderThan time.Time) ([]*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Job
	for _, j := range s.jobs {
		if j.Status == domain.JobStatusProcessing && j.StartedAt != nil && j.StartedAt.Before(olderThan) {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- JobLogRepository ---

func (s *MemoryStore) InsertJobLog(ctx context.Context, l *domain.JobLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.LogID == uuid.Nil {
		l.LogID = uuid.New()
	}
	cp := *l
	s.jobLogs = append(s.jobLogs, &cp)
	return nil
}

func (s *MemoryStore) ListJobLogs(ctx context.Context, jobID uuid.UUID, accountID string, limit int) ([]*domain.JobLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.JobLog
	for _, l := range s.jobLogs {
		if l.JobID == nil || *l.JobID != jobID {
			continue
		}
		if accountID != "" && (l.AccountID == nil || *l.AccountID != accountID) {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- SettingsRepository ---

func (s *MemoryStore) MutateSettings(ctx context.Context, accountID, key string, mutate func(current map[string]any) (map[string]any, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	compound := accountID + "\x00" + key
	current := s.settings[compound]
	if current == nil {
		current = map[string]any{}
	}
	next, err := mutate(current)
	if err != nil {
		return err
	}
	s.settings[compound] = next
	return nil
}

var _ domain.Storage = (*MemoryStore)(nil)
var _ domain.Storage = (*BunStore)(nil)
