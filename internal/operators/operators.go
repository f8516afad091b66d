package operators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/playmatatu/pooltable/internal/models"
)

// FallbackName is the operator identity used when no accounts table is
// available and OPERATOR_TOKEN_HASH is set.
const FallbackName = "operator"

var (
	ErrNotFound           = errors.New("operator account not found")
	ErrInvalidCredentials = errors.New("invalid operator credentials")
	ErrNoOperators        = errors.New("no operator accounts configured")
)

// Store looks up operator accounts in Postgres, falling back to a single
// bcrypt hash from the environment when the journal database is off.
type Store struct {
	db           *sqlx.DB
	fallbackHash string
}

func NewStore(db *sqlx.DB, fallbackHash string) *Store {
	return &Store{db: db, fallbackHash: fallbackHash}
}

// HashToken returns the bcrypt hash stored for a plain token.
func HashToken(plainToken string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plainToken), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}
	return string(hashed), nil
}

// VerifyToken checks if the provided token matches the stored hash
func VerifyToken(hashedToken, plainToken string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedToken), []byte(plainToken))
	return err == nil
}

// Get retrieves an operator account by name
func (s *Store) Get(ctx context.Context, name string) (*models.OperatorAccount, error) {
	if s.db == nil {
		return nil, ErrNotFound
	}
	var op models.OperatorAccount
	err := s.db.GetContext(ctx, &op, `SELECT name, display_name, token_hash, tables, created_at, updated_at FROM operator_accounts WHERE name=$1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &op, nil
}

// Create inserts or replaces an operator account (used for seeding).
func (s *Store) Create(ctx context.Context, name, displayName, plainToken string, tables []string) error {
	if s.db == nil {
		return ErrNoOperators
	}
	hashed, err := HashToken(plainToken)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO operator_accounts (name, display_name, token_hash, tables, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (name) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			token_hash = EXCLUDED.token_hash,
			tables = EXCLUDED.tables,
			updated_at = NOW()
	`, name, displayName, hashed, pq.Array(tables))
	return err
}

// Authenticate validates a name + token pair.
func (s *Store) Authenticate(ctx context.Context, name, token string) (*models.OperatorAccount, error) {
	if s.db == nil {
		if s.fallbackHash == "" {
			return nil, ErrNoOperators
		}
		if name != FallbackName || !VerifyToken(s.fallbackHash, token) {
			log.Printf("[OPERATOR] fallback token verification failed for %q", name)
			return nil, ErrInvalidCredentials
		}
		return &models.OperatorAccount{Name: FallbackName, DisplayName: "Operator"}, nil
	}

	op, err := s.Get(ctx, name)
	if errors.Is(err, ErrNotFound) {
		log.Printf("[OPERATOR] No operator account found for: %s", name)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !VerifyToken(op.TokenHash, token) {
		log.Printf("[OPERATOR] Token verification failed for: %s", name)
		return nil, ErrInvalidCredentials
	}
	return op, nil
}

// LogCommand records a command issued by an operator in the audit table.
func (s *Store) LogCommand(ctx context.Context, operator, tableID, command, source string) {
	if s == nil || s.db == nil {
		return
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO operator_audit (operator, table_id, command, source, created_at) VALUES ($1,$2,$3,$4,NOW())`,
		operator, tableID, command, source,
	)
	if err != nil {
		log.Printf("[OPERATOR] Failed to log command %s by %s: %v", command, operator, err)
	}
}

// RecentCommands retrieves the latest audit entries for a table.
func (s *Store) RecentCommands(ctx context.Context, tableID string, limit int) ([]models.OperatorAudit, error) {
	entries := []models.OperatorAudit{}
	if s == nil || s.db == nil {
		return entries, nil
	}
	err := s.db.SelectContext(ctx, &entries, `
		SELECT id, operator, table_id, command, source, created_at
		FROM operator_audit
		WHERE table_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, tableID, limit)
	return entries, err
}
