package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var (
	feedColumns    = []string{"id", "name", "url", "kind", "is_active", "last_fetched", "update_frequency"}
	articleColumns = []string{
		"id", "title", "url", "source", "summary", "category", "priority",
		"key_points", "date_published", "date_found", "is_archived",
	}
	interactionColumns = []string{"id", "article_id", "interaction_type", "timestamp", "additional_data"}
)

// PostgresRepository persists feeds, articles and interactions into Postgres.
type PostgresRepository struct {
	db *sqlx.DB
}

var _ ports.ContentStore = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sqlx.DB implementation.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type feedRow struct {
	ID              int64        `db:"id"`
	Name            string       `db:"name"`
	URL             string       `db:"url"`
	Kind            string       `db:"kind"`
	IsActive        bool         `db:"is_active"`
	LastFetched     sql.NullTime `db:"last_fetched"`
	UpdateFrequency int64        `db:"update_frequency"`
}

func (r feedRow) toDomain() domain.FeedSource {
	feed := domain.FeedSource{
		ID:            r.ID,
		Name:          r.Name,
		URL:           r.URL,
		Kind:          r.Kind,
		Active:        r.IsActive,
		FetchInterval: time.Duration(r.UpdateFrequency) * time.Second,
	}
	if r.LastFetched.Valid {
		t := r.LastFetched.Time
		feed.LastFetched = &t
	}
	return feed
}

type articleRow struct {
	ID            int64          `db:"id"`
	Title         string         `db:"title"`
	URL           string         `db:"url"`
	Source        string         `db:"source"`
	Summary       string         `db:"summary"`
	Category      sql.NullString `db:"category"`
	Priority      sql.NullString `db:"priority"`
	KeyPoints     pq.StringArray `db:"key_points"`
	DatePublished sql.NullTime   `db:"date_published"`
	DateFound     time.Time      `db:"date_found"`
	IsArchived    bool           `db:"is_archived"`
}

func (r articleRow) toDomain() domain.ContentItem {
	item := domain.ContentItem{
		ID:           r.ID,
		URL:          r.URL,
		Title:        r.Title,
		Source:       r.Source,
		Summary:      r.Summary,
		KeyTerms:     []string(r.KeyPoints),
		DiscoveredAt: r.DateFound,
		Archived:     r.IsArchived,
	}
	if r.Category.Valid {
		c := r.Category.String
		item.Category = &c
	}
	if r.Priority.Valid {
		p := domain.Priority(r.Priority.String)
		item.Priority = &p
	}
	if r.DatePublished.Valid {
		t := r.DatePublished.Time
		item.PublishedAt = &t
	}
	return item
}

type interactionRow struct {
	ID             int64     `db:"id"`
	ArticleID      int64     `db:"article_id"`
	Type           string    `db:"interaction_type"`
	Timestamp      time.Time `db:"timestamp"`
	AdditionalData []byte    `db:"additional_data"`
}

// ActiveFeeds lists feeds flagged active.
func (r *PostgresRepository) ActiveFeeds(ctx context.Context) ([]domain.FeedSource, error) {
	query, args, err := psql.Select(feedColumns...).From("feeds").
		Where(sq.Eq{"is_active": true}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build active feeds query: %w", err)
	}

	var rows []feedRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query active feeds: %w", err)
	}

	feeds := make([]domain.FeedSource, 0, len(rows))
	for _, row := range rows {
		feeds = append(feeds, row.toDomain())
	}
	return feeds, nil
}

// GetFeed loads a single feed by id.
func (r *PostgresRepository) GetFeed(ctx context.Context, id int64) (domain.FeedSource, error) {
	query, args, err := psql.Select(feedColumns...).From("feeds").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.FeedSource{}, fmt.Errorf("build feed query: %w", err)
	}

	var row feedRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.FeedSource{}, fmt.Errorf("feed %d: %w", id, domain.ErrFeedNotFound)
		}
		return domain.FeedSource{}, fmt.Errorf("query feed %d: %w", id, err)
	}
	return row.toDomain(), nil
}

// ExistingURLs returns a set with the URLs that already exist in storage.
func (r *PostgresRepository) ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(urls) == 0 {
		return result, nil
	}

	query, args, err := psql.Select("url").From("articles").
		Where("url = ANY(?)", pq.Array(urls)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build existing urls query: %w", err)
	}

	var found []string
	if err := r.db.SelectContext(ctx, &found, query, args...); err != nil {
		return nil, fmt.Errorf("query existing urls: %w", err)
	}
	for _, u := range found {
		result[u] = true
	}
	return result, nil
}

// SaveFeedBatch inserts the batch items and advances last_fetched in one transaction.
func (r *PostgresRepository) SaveFeedBatch(ctx context.Context, batch domain.FeedBatch) (inserted []string, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin feed batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if len(batch.Items) > 0 {
		insert := psql.Insert("articles").Columns(
			"title", "url", "source", "summary", "category", "priority",
			"key_points", "date_published", "date_found",
		)
		for _, item := range batch.Items {
			insert = insert.Values(
				item.Title, item.URL, item.Source, item.Summary,
				nullableString(item.Category), nullablePriority(item.Priority),
				pq.Array(nonNil(item.KeyTerms)), item.PublishedAt, item.DiscoveredAt,
			)
		}
		query, args, buildErr := insert.Suffix("ON CONFLICT (url) DO NOTHING RETURNING url").ToSql()
		if buildErr != nil {
			return nil, fmt.Errorf("build article insert: %w", buildErr)
		}

		if err = tx.SelectContext(ctx, &inserted, query, args...); err != nil {
			return nil, fmt.Errorf("insert articles: %w", err)
		}
	}

	query, args, err := psql.Update("feeds").
		Set("last_fetched", batch.FetchedAt).
		Where(sq.Eq{"id": batch.FeedID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build feed update: %w", err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("update last fetched: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit feed batch: %w", err)
	}
	return inserted, nil
}

// LabeledItems returns every article with both category and priority set.
func (r *PostgresRepository) LabeledItems(ctx context.Context) ([]domain.ContentItem, error) {
	return r.selectArticles(ctx, sq.And{
		sq.NotEq{"category": nil},
		sq.NotEq{"priority": nil},
	})
}

// ItemsByCategory returns every article with the given category.
func (r *PostgresRepository) ItemsByCategory(ctx context.Context, category string) ([]domain.ContentItem, error) {
	return r.selectArticles(ctx, sq.Eq{"category": category})
}

// ItemsBySource returns every article ingested from the named feed.
func (r *PostgresRepository) ItemsBySource(ctx context.Context, source string) ([]domain.ContentItem, error) {
	return r.selectArticles(ctx, sq.Eq{"source": source})
}

func (r *PostgresRepository) selectArticles(ctx context.Context, where sq.Sqlizer) ([]domain.ContentItem, error) {
	query, args, err := psql.Select(articleColumns...).From("articles").
		Where(where).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build articles query: %w", err)
	}

	var rows []articleRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}

	items := make([]domain.ContentItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDomain())
	}
	return items, nil
}

// UpdateClassification replaces category and key terms of one article.
// A stored High priority is kept; only lower priorities are overwritten.
func (r *PostgresRepository) UpdateClassification(ctx context.Context, update domain.ClassificationUpdate) error {
	query, args, err := psql.Update("articles").
		Set("category", update.Category).
		Set("priority", sq.Expr("CASE WHEN priority = ? THEN priority ELSE ? END",
			string(domain.PriorityHigh), string(update.Priority))).
		Set("key_points", pq.Array(nonNil(update.KeyTerms))).
		Where(sq.Eq{"id": update.ItemID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build classification update: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update classification %d: %w", update.ItemID, err)
	}
	return nil
}

// InteractionsSince returns interaction events at or after since.
func (r *PostgresRepository) InteractionsSince(ctx context.Context, since time.Time) ([]domain.InteractionEvent, error) {
	query, args, err := psql.Select(interactionColumns...).From("interactions").
		Where(sq.GtOrEq{"timestamp": since}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build interactions query: %w", err)
	}

	var rows []interactionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}

	events := make([]domain.InteractionEvent, 0, len(rows))
	for _, row := range rows {
		event := domain.InteractionEvent{
			ID:         row.ID,
			ItemID:     row.ArticleID,
			Kind:       domain.InteractionKind(row.Type),
			OccurredAt: row.Timestamp,
		}
		if len(row.AdditionalData) > 0 {
			if err := json.Unmarshal(row.AdditionalData, &event.Metadata); err != nil {
				return nil, fmt.Errorf("decode interaction %d metadata: %w", row.ID, err)
			}
		}
		events = append(events, event)
	}
	return events, nil
}

// PromotePriority sets priority to High unless it already is.
func (r *PostgresRepository) PromotePriority(ctx context.Context, promotion domain.PriorityPromotion) (bool, error) {
	query, args, err := psql.Update("articles").
		Set("priority", string(domain.PriorityHigh)).
		Where(sq.Eq{"id": promotion.ItemID}).
		Where(sq.Or{
			sq.Eq{"priority": nil},
			sq.NotEq{"priority": string(domain.PriorityHigh)},
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build promotion: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("promote article %d: %w", promotion.ItemID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("promote article %d rows: %w", promotion.ItemID, err)
	}
	return affected > 0, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullablePriority(p *domain.Priority) any {
	if p == nil {
		return nil
	}
	return string(*p)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
