package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/slotswapper/internal/persistence"
)

// SlotRepository implements persistence.SlotRepository using SQLite.
type SlotRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSlotRepository creates a new SQLite slot repository.
func NewSlotRepository(pool *ConnectionPool) *SlotRepository {
	return &SlotRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateSlot inserts a new calendar slot.
func (r *SlotRepository) CreateSlot(ctx context.Context, slot persistence.Slot) error {
	if slot.ID == "" || slot.OwnerID == "" {
		return persistence.ErrConstraintViolation
	}
	if !slot.Status.Valid() {
		return persistence.ErrConstraintViolation
	}

	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now().UTC()
	}
	if slot.UpdatedAt.IsZero() {
		slot.UpdatedAt = slot.CreatedAt
	}

	query := `
		INSERT INTO slots (id, owner_id, title, start_time, end_time, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		slot.ID,
		slot.OwnerID,
		slot.Title,
		formatTime(slot.Start),
		formatTime(slot.End),
		string(slot.Status),
		formatTime(slot.CreatedAt),
		formatTime(slot.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// GetSlot retrieves a slot by identifier.
func (r *SlotRepository) GetSlot(ctx context.Context, id string) (persistence.Slot, error) {
	row := r.helper.QueryRow(ctx, slotSelect+" WHERE id = ?", id)
	return scanSlot(row, r.mapper)
}

// UpdateSlotStatus toggles a slot between BUSY and SWAPPABLE on behalf of its
// owner. The update is guarded: it never touches a slot that is SWAP_PENDING
// (that status belongs to the negotiation engine) nor a slot owned by someone
// else, so a stale caller racing a swap observes ErrConflict instead of
// clobbering engine-managed state.
func (r *SlotRepository) UpdateSlotStatus(ctx context.Context, id, ownerID string, status persistence.SlotStatus, updatedAt time.Time) (persistence.Slot, error) {
	if status != persistence.SlotBusy && status != persistence.SlotSwappable {
		return persistence.Slot{}, persistence.ErrConstraintViolation
	}

	var updated persistence.Slot
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE slots
			SET status = ?, updated_at = ?
			WHERE id = ? AND owner_id = ? AND status != ?
		`
		result, err := r.helper.ExecTx(tx, query,
			string(status),
			formatTime(updatedAt),
			id,
			ownerID,
			string(persistence.SlotSwapPending),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return r.classifySlotGuardMiss(tx, id, ownerID)
		}

		updated, err = scanSlot(r.helper.QueryRowTx(tx, slotSelect+" WHERE id = ?", id), r.mapper)
		return err
	})
	if err != nil {
		return persistence.Slot{}, err
	}

	return updated, nil
}

// DeleteSlot removes a slot on behalf of its owner as one atomic unit. When a
// PENDING swap request references the slot, the request is rejected and the
// counterpart slot restored to SWAPPABLE inside the same transaction, so the
// pending-implies-both-sides-pending invariant holds at every commit point.
// Request rows referencing the deleted slot are removed by the foreign key
// cascade.
func (r *SlotRepository) DeleteSlot(ctx context.Context, id, ownerID string, deletedAt time.Time) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		slot, err := scanSlot(r.helper.QueryRowTx(tx, slotSelect+" WHERE id = ?", id), r.mapper)
		if err != nil {
			return err
		}
		if slot.OwnerID != ownerID {
			return persistence.ErrOwnerMismatch
		}

		if slot.Status == persistence.SlotSwapPending {
			if err := r.rejectPendingRequestForSlot(tx, id, deletedAt); err != nil {
				return err
			}
		}

		result, err := r.helper.ExecTx(tx, "DELETE FROM slots WHERE id = ?", id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}

		return nil
	})
}

// rejectPendingRequestForSlot resolves the live request referencing the slot
// and returns its counterpart slot to the marketplace.
func (r *SlotRepository) rejectPendingRequestForSlot(tx *sql.Tx, slotID string, resolvedAt time.Time) error {
	query := `
		SELECT id, requester_slot_id, target_slot_id
		FROM swap_requests
		WHERE status = ? AND (requester_slot_id = ? OR target_slot_id = ?)
	`
	var requestID, requesterSlotID, targetSlotID string
	err := r.helper.QueryRowTx(tx, query, string(persistence.RequestPending), slotID, slotID).
		Scan(&requestID, &requesterSlotID, &targetSlotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// SWAP_PENDING with no live request would be an invariant breach;
			// nothing to resolve either way.
			return nil
		}
		return r.mapper.MapError(err)
	}

	reject := "UPDATE swap_requests SET status = ?, updated_at = ? WHERE id = ? AND status = ?"
	if _, err := r.helper.ExecTx(tx, reject,
		string(persistence.RequestRejected),
		formatTime(resolvedAt),
		requestID,
		string(persistence.RequestPending),
	); err != nil {
		return r.mapper.MapError(err)
	}

	counterpart := requesterSlotID
	if counterpart == slotID {
		counterpart = targetSlotID
	}

	restore := "UPDATE slots SET status = ?, updated_at = ? WHERE id = ? AND status = ?"
	if _, err := r.helper.ExecTx(tx, restore,
		string(persistence.SlotSwappable),
		formatTime(resolvedAt),
		counterpart,
		string(persistence.SlotSwapPending),
	); err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// ListSlotsByOwner returns all slots owned by the user, start time ascending.
func (r *SlotRepository) ListSlotsByOwner(ctx context.Context, ownerID string) ([]persistence.Slot, error) {
	rows, err := r.helper.Query(ctx, slotSelect+" WHERE owner_id = ? ORDER BY start_time, id", ownerID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var slots []persistence.Slot
	for rows.Next() {
		slot, err := scanSlotRows(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}

// ListSwappableSlotsExcluding returns the marketplace view: every SWAPPABLE
// slot not owned by the caller, joined with the owner display name, start
// time ascending.
func (r *SlotRepository) ListSwappableSlotsExcluding(ctx context.Context, ownerID string) ([]persistence.MarketplaceSlot, error) {
	query := `
		SELECT s.id, s.owner_id, s.title, s.start_time, s.end_time, s.status, s.created_at, s.updated_at,
		       u.display_name
		FROM slots s
		JOIN users u ON s.owner_id = u.id
		WHERE s.status = ? AND s.owner_id != ?
		ORDER BY s.start_time, s.id
	`

	rows, err := r.helper.Query(ctx, query, string(persistence.SlotSwappable), ownerID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var listings []persistence.MarketplaceSlot
	for rows.Next() {
		var (
			listing   persistence.MarketplaceSlot
			startTime string
			endTime   string
			createdAt string
			updatedAt string
			status    string
		)
		err := rows.Scan(
			&listing.ID,
			&listing.OwnerID,
			&listing.Title,
			&startTime,
			&endTime,
			&status,
			&createdAt,
			&updatedAt,
			&listing.OwnerName,
		)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		listing.Status = persistence.SlotStatus(status)
		if listing.Start, err = parseTime(startTime); err != nil {
			return nil, fmt.Errorf("sqlite: failed to parse start_time: %w", err)
		}
		if listing.End, err = parseTime(endTime); err != nil {
			return nil, fmt.Errorf("sqlite: failed to parse end_time: %w", err)
		}
		if listing.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: failed to parse created_at: %w", err)
		}
		if listing.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: failed to parse updated_at: %w", err)
		}
		listings = append(listings, listing)
	}

	return listings, rows.Err()
}

// classifySlotGuardMiss distinguishes the reasons a guarded slot update
// matched no rows: missing slot, foreign owner, or engine-locked status.
func (r *SlotRepository) classifySlotGuardMiss(tx *sql.Tx, id, ownerID string) error {
	slot, err := scanSlot(r.helper.QueryRowTx(tx, slotSelect+" WHERE id = ?", id), r.mapper)
	if err != nil {
		return err
	}
	if slot.OwnerID != ownerID {
		return persistence.ErrOwnerMismatch
	}
	return persistence.ErrConflict
}

const slotSelect = `
	SELECT id, owner_id, title, start_time, end_time, status, created_at, updated_at
	FROM slots
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(row *sql.Row, mapper *ErrorMapper) (persistence.Slot, error) {
	slot, err := scanSlotFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Slot{}, persistence.ErrNotFound
		}
		return persistence.Slot{}, mapper.MapError(err)
	}
	return slot, nil
}

func scanSlotRows(rows *sql.Rows) (persistence.Slot, error) {
	return scanSlotFrom(rows)
}

func scanSlotFrom(scanner rowScanner) (persistence.Slot, error) {
	var (
		slot      persistence.Slot
		status    string
		startTime string
		endTime   string
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(&slot.ID, &slot.OwnerID, &slot.Title, &startTime, &endTime, &status, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Slot{}, err
	}

	slot.Status = persistence.SlotStatus(status)
	if slot.Start, err = parseTime(startTime); err != nil {
		return persistence.Slot{}, fmt.Errorf("sqlite: failed to parse start_time: %w", err)
	}
	if slot.End, err = parseTime(endTime); err != nil {
		return persistence.Slot{}, fmt.Errorf("sqlite: failed to parse end_time: %w", err)
	}
	if slot.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Slot{}, fmt.Errorf("sqlite: failed to parse created_at: %w", err)
	}
	if slot.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Slot{}, fmt.Errorf("sqlite: failed to parse updated_at: %w", err)
	}

	return slot, nil
}
