package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"authgate.org/internal/ids"
)

// Open connects to Postgres with pool defaults tuned for this service.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// PostgresUsers is the Postgres-backed Users repository.
type PostgresUsers struct {
	db *sql.DB
}

// NewPostgresUsers constructs the repository over an open connection pool.
func NewPostgresUsers(db *sql.DB) *PostgresUsers {
	return &PostgresUsers{db: db}
}

func (s *PostgresUsers) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, name, email, role, created_at from users order by id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PostgresUsers) Get(ctx context.Context, id string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`select id, name, email, role, created_at from users where id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *PostgresUsers) Create(ctx context.Context, input NewUser) (User, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Email) == "" {
		return User{}, ErrInvalidInput
	}
	u := User{
		ID:        ids.New(),
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(strings.ToLower(input.Email)),
		Role:      strings.TrimSpace(input.Role),
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, name, email, role, created_at) values ($1, $2, $3, $4, $5)`,
		u.ID, u.Name, u.Email, u.Role, u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *PostgresUsers) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresProducts is the Postgres-backed Products repository.
type PostgresProducts struct {
	db *sql.DB
}

// NewPostgresProducts constructs the repository over an open connection pool.
func NewPostgresProducts(db *sql.DB) *PostgresProducts {
	return &PostgresProducts{db: db}
}

func (s *PostgresProducts) List(ctx context.Context) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, name, price, category, created_at from products order by id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Category, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresProducts) Get(ctx context.Context, id string) (Product, error) {
	var p Product
	err := s.db.QueryRowContext(ctx,
		`select id, name, price, category, created_at from products where id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Category, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *PostgresProducts) Create(ctx context.Context, input NewProduct) (Product, error) {
	if strings.TrimSpace(input.Name) == "" || input.Price < 0 {
		return Product{}, ErrInvalidInput
	}
	p := Product{
		ID:        ids.New(),
		Name:      strings.TrimSpace(input.Name),
		Price:     input.Price,
		Category:  strings.TrimSpace(input.Category),
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`insert into products(id, name, price, category, created_at) values ($1, $2, $3, $4, $5)`,
		p.ID, p.Name, p.Price, p.Category, p.CreatedAt)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *PostgresProducts) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from products where id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
