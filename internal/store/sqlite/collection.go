package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/listenupapp/readlist/internal/domain"
	"github.com/listenupapp/readlist/internal/id"
	"github.com/listenupapp/readlist/internal/normalize"
	"github.com/listenupapp/readlist/internal/store"
)

const userBookColumns = `id, created_at, updated_at, owner_id, title, author, isbn, rating, review, source`

func scanUserBook(scanner interface{ Scan(dest ...any) error }) (*domain.UserBook, error) {
	var b domain.UserBook

	var (
		createdAt string
		updatedAt string
		isbn      sql.NullString
		rating    sql.NullInt64
		source    string
	)

	err := scanner.Scan(&b.ID, &createdAt, &updatedAt, &b.OwnerID, &b.Title, &b.Author, &isbn, &rating, &b.Review, &source)
	if err != nil {
		return nil, err
	}

	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	b.ISBN = isbn.String
	b.Rating = ratingPtr(rating)
	b.Source = domain.BookSource(source)

	return &b, nil
}

// GetUserBookByKey looks up a collection item by case-folded (title, author).
func (s *Store) GetUserBookByKey(ctx context.Context, ownerID, title, author string) (*domain.UserBook, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userBookColumns+` FROM user_books WHERE owner_id = ? AND title_key = ? AND author_key = ?`,
		ownerID, normalize.TitleKey(title), normalize.TitleKey(author))

	b, err := scanUserBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// CreateUserBook inserts a collection item.
// Returns store.ErrAlreadyExists if the owner already has the same (title, author).
func (s *Store) CreateUserBook(ctx context.Context, b *domain.UserBook) error {
	if err := ensureID(&b.ID, id.PrefixBook); err != nil {
		return err
	}
	if b.CreatedAt.IsZero() {
		b.InitTimestamps()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_books (
			id, created_at, updated_at, owner_id, title, author, title_key, author_key,
			isbn, rating, review, source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID,
		formatTime(b.CreatedAt),
		formatTime(b.UpdatedAt),
		b.OwnerID,
		b.Title,
		b.Author,
		normalize.TitleKey(b.Title),
		normalize.TitleKey(b.Author),
		nullString(b.ISBN),
		nullRating(b.Rating),
		b.Review,
		string(b.Source),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// UpdateUserBook writes rating, review and ISBN.
func (s *Store) UpdateUserBook(ctx context.Context, b *domain.UserBook) error {
	b.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx, `
		UPDATE user_books SET updated_at = ?, isbn = ?, rating = ?, review = ?
		WHERE id = ? AND owner_id = ?`,
		formatTime(b.UpdatedAt),
		nullString(b.ISBN),
		nullRating(b.Rating),
		b.Review,
		b.ID,
		b.OwnerID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// ListUserBooks returns an owner's collection, newest first.
func (s *Store) ListUserBooks(ctx context.Context, ownerID string) ([]*domain.UserBook, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userBookColumns+` FROM user_books WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*domain.UserBook
	for rows.Next() {
		b, err := scanUserBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}
