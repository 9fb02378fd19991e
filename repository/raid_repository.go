package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"waifubot/database"
	"waifubot/models"
	"waifubot/service"
)

// RaidRepository implements the service.RaidRepository interface
type RaidRepository struct {
	q queryable
}

// NewRaidRepository creates a new raid repository
func NewRaidRepository(db *database.DB) *RaidRepository {
	return &RaidRepository{q: db.Pool}
}

// newRaidRepositoryWithTx creates a new raid repository with a transaction
func newRaidRepositoryWithTx(tx queryable) *RaidRepository {
	return &RaidRepository{q: tx}
}

// Create inserts a new raid. The partial unique index on open raids turns
// a concurrent second start into ErrRaidActive.
func (r *RaidRepository) Create(ctx context.Context, raid *models.Raid) error {
	query := `
		INSERT INTO raids (chat_id, initiator_id, entry_fee, state, join_deadline)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		raid.ChatID,
		raid.InitiatorID,
		raid.EntryFee,
		raid.State,
		raid.JoinDeadline,
	).Scan(&raid.ID, &raid.CreatedAt)

	if err != nil {
		if uniqueViolation(err, "uq_raids_open_per_chat") {
			return service.ErrRaidActive
		}
		return fmt.Errorf("failed to create raid in chat %d: %w", raid.ChatID, err)
	}
	return nil
}

// GetByID retrieves a raid by its ID
func (r *RaidRepository) GetByID(ctx context.Context, id int64) (*models.Raid, error) {
	query := `
		SELECT id, chat_id, initiator_id, entry_fee, state, join_deadline, message_id, created_at
		FROM raids
		WHERE id = $1
	`

	var raid models.Raid
	err := r.q.QueryRow(ctx, query, id).Scan(
		&raid.ID, &raid.ChatID, &raid.InitiatorID, &raid.EntryFee,
		&raid.State, &raid.JoinDeadline, &raid.MessageID, &raid.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get raid %d: %w", id, err)
	}
	return &raid, nil
}

// AddParticipant appends a participant. The unique (raid, user) constraint
// turns a double join into ErrAlreadyJoined.
func (r *RaidRepository) AddParticipant(ctx context.Context, participant *models.RaidParticipant) error {
	query := `
		INSERT INTO raid_participants (raid_id, telegram_id, username)
		VALUES ($1, $2, $3)
		RETURNING id, joined_at
	`

	err := r.q.QueryRow(ctx, query,
		participant.RaidID,
		participant.TelegramID,
		participant.Username,
	).Scan(&participant.ID, &participant.JoinedAt)

	if err != nil {
		if uniqueViolation(err, "") {
			return service.ErrAlreadyJoined
		}
		return fmt.Errorf("failed to add participant %d to raid %d: %w", participant.TelegramID, participant.RaidID, err)
	}
	return nil
}

// GetParticipants returns all participants in join order
func (r *RaidRepository) GetParticipants(ctx context.Context, raidID int64) ([]*models.RaidParticipant, error) {
	query := `
		SELECT id, raid_id, telegram_id, username, joined_at
		FROM raid_participants
		WHERE raid_id = $1
		ORDER BY joined_at, id
	`

	rows, err := r.q.Query(ctx, query, raidID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants for raid %d: %w", raidID, err)
	}
	defer rows.Close()

	var participants []*models.RaidParticipant
	for rows.Next() {
		var p models.RaidParticipant
		if err := rows.Scan(&p.ID, &p.RaidID, &p.TelegramID, &p.Username, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return participants, nil
}

// CountParticipants returns the current participant count
func (r *RaidRepository) CountParticipants(ctx context.Context, raidID int64) (int, error) {
	query := `SELECT COUNT(*) FROM raid_participants WHERE raid_id = $1`

	var count int
	if err := r.q.QueryRow(ctx, query, raidID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count participants for raid %d: %w", raidID, err)
	}
	return count, nil
}

// UpdateState transitions the raid state
func (r *RaidRepository) UpdateState(ctx context.Context, raidID int64, state models.RaidState) error {
	query := `UPDATE raids SET state = $1 WHERE id = $2`

	result, err := r.q.Exec(ctx, query, state, raidID)
	if err != nil {
		return fmt.Errorf("failed to update state for raid %d: %w", raidID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("raid %d not found", raidID)
	}
	return nil
}

// SetMessageID stores the announcement message for later edits
func (r *RaidRepository) SetMessageID(ctx context.Context, raidID int64, messageID int) error {
	query := `UPDATE raids SET message_id = $1 WHERE id = $2`

	result, err := r.q.Exec(ctx, query, messageID, raidID)
	if err != nil {
		return fmt.Errorf("failed to set message for raid %d: %w", raidID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("raid %d not found", raidID)
	}
	return nil
}

// GetDue returns open raids whose join deadline has passed
func (r *RaidRepository) GetDue(ctx context.Context, now time.Time) ([]*models.Raid, error) {
	query := `
		SELECT id, chat_id, initiator_id, entry_fee, state, join_deadline, message_id, created_at
		FROM raids
		WHERE state = 'open' AND join_deadline <= $1
		ORDER BY join_deadline
	`

	rows, err := r.q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get due raids: %w", err)
	}
	defer rows.Close()

	var raids []*models.Raid
	for rows.Next() {
		var raid models.Raid
		if err := rows.Scan(
			&raid.ID, &raid.ChatID, &raid.InitiatorID, &raid.EntryFee,
			&raid.State, &raid.JoinDeadline, &raid.MessageID, &raid.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan raid: %w", err)
		}
		raids = append(raids, &raid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate due raids: %w", err)
	}
	return raids, nil
}

// Delete removes the raid record after resolution. Participants cascade.
func (r *RaidRepository) Delete(ctx context.Context, raidID int64) error {
	query := `DELETE FROM raids WHERE id = $1`

	if _, err := r.q.Exec(ctx, query, raidID); err != nil {
		return fmt.Errorf("failed to delete raid %d: %w", raidID, err)
	}
	return nil
}
