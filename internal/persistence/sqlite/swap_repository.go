package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/slotswapper/internal/persistence"
)

// SwapRequestRepository implements persistence.SwapRequestRepository using
// SQLite. The create and resolve operations are the system's two critical
// atomic units: each touches one request row and two slot rows inside a
// single transaction with status-guarded updates, so concurrent callers
// racing on the same slot or request observe persistence.ErrConflict and the
// database never exposes a partially-applied swap.
type SwapRequestRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSwapRequestRepository creates a new SQLite swap request repository.
func NewSwapRequestRepository(pool *ConnectionPool) *SwapRequestRepository {
	return &SwapRequestRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateSwapRequest opens a negotiation: it verifies both slots inside the
// transaction, flips them SWAPPABLE -> SWAP_PENDING with guarded updates and
// inserts the PENDING request. A guard miss on either slot rolls the whole
// unit back, which is what makes two simultaneous requests for the same slot
// resolve to exactly one winner.
func (r *SwapRequestRepository) CreateSwapRequest(ctx context.Context, request persistence.SwapRequest) (persistence.SwapRequest, error) {
	if request.ID == "" || request.RequesterID == "" || request.RequesterSlotID == "" || request.TargetSlotID == "" {
		return persistence.SwapRequest{}, persistence.ErrConstraintViolation
	}
	if request.RequesterSlotID == request.TargetSlotID {
		return persistence.SwapRequest{}, persistence.ErrConstraintViolation
	}

	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	request.UpdatedAt = request.CreatedAt
	request.Status = persistence.RequestPending

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		mySlot, err := scanSlot(r.helper.QueryRowTx(tx, slotSelect+" WHERE id = ?", request.RequesterSlotID), r.mapper)
		if err != nil {
			return err
		}
		if _, err := scanSlot(r.helper.QueryRowTx(tx, slotSelect+" WHERE id = ?", request.TargetSlotID), r.mapper); err != nil {
			return err
		}
		if mySlot.OwnerID != request.RequesterID {
			return persistence.ErrOwnerMismatch
		}

		for _, slotID := range []string{request.RequesterSlotID, request.TargetSlotID} {
			if err := r.lockSlot(tx, slotID, request.CreatedAt); err != nil {
				return err
			}
		}

		insert := `
			INSERT INTO swap_requests (id, requester_id, requester_slot_id, target_slot_id, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		if _, err := r.helper.ExecTx(tx, insert,
			request.ID,
			request.RequesterID,
			request.RequesterSlotID,
			request.TargetSlotID,
			string(request.Status),
			formatTime(request.CreatedAt),
			formatTime(request.UpdatedAt),
		); err != nil {
			mapped := r.mapper.MapError(err)
			if errors.Is(mapped, persistence.ErrDuplicate) {
				// The partial unique index on pending requests tripped: the
				// slot is already spoken for.
				return persistence.ErrConflict
			}
			return mapped
		}

		return nil
	})
	if err != nil {
		return persistence.SwapRequest{}, err
	}

	return request, nil
}

// lockSlot performs the guarded SWAPPABLE -> SWAP_PENDING transition.
func (r *SwapRequestRepository) lockSlot(tx *sql.Tx, slotID string, at time.Time) error {
	query := "UPDATE slots SET status = ?, updated_at = ? WHERE id = ? AND status = ?"
	result, err := r.helper.ExecTx(tx, query,
		string(persistence.SlotSwapPending),
		formatTime(at),
		slotID,
		string(persistence.SlotSwappable),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return persistence.ErrConflict
	}

	return nil
}

// GetSwapRequest retrieves a request by identifier.
func (r *SwapRequestRepository) GetSwapRequest(ctx context.Context, id string) (persistence.SwapRequest, error) {
	row := r.helper.QueryRow(ctx, swapRequestSelect+" WHERE id = ?", id)
	return r.scanRequest(row)
}

// PendingRequestForSlot returns the live request referencing the slot on
// either side, or ErrNotFound when the slot is unencumbered.
func (r *SwapRequestRepository) PendingRequestForSlot(ctx context.Context, slotID string) (persistence.SwapRequest, error) {
	query := swapRequestSelect + " WHERE status = ? AND (requester_slot_id = ? OR target_slot_id = ?)"
	row := r.helper.QueryRow(ctx, query, string(persistence.RequestPending), slotID, slotID)
	return r.scanRequest(row)
}

// ResolveSwapRequest finishes a negotiation on behalf of the target slot's
// owner. The request row transition is guarded on PENDING, so responding to
// an already-resolved request fails with ErrConflict without touching either
// slot. On accept the two slots exchange owners and become BUSY; on reject
// both return to SWAPPABLE with ownership untouched.
func (r *SwapRequestRepository) ResolveSwapRequest(ctx context.Context, id, responderID string, accept bool, resolvedAt time.Time) (persistence.SwapRequest, error) {
	var resolved persistence.SwapRequest

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		request, err := r.scanRequest(r.helper.QueryRowTx(tx, swapRequestSelect+" WHERE id = ?", id))
		if err != nil {
			return err
		}

		targetSlot, err := scanSlot(r.helper.QueryRowTx(tx, slotSelect+" WHERE id = ?", request.TargetSlotID), r.mapper)
		if err != nil {
			return err
		}
		if targetSlot.OwnerID != responderID {
			return persistence.ErrOwnerMismatch
		}

		next := persistence.RequestRejected
		if accept {
			next = persistence.RequestAccepted
		}

		guard := "UPDATE swap_requests SET status = ?, updated_at = ? WHERE id = ? AND status = ?"
		result, err := r.helper.ExecTx(tx, guard,
			string(next),
			formatTime(resolvedAt),
			request.ID,
			string(persistence.RequestPending),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return persistence.ErrConflict
		}

		if accept {
			exchange := "UPDATE slots SET owner_id = ?, status = ?, updated_at = ? WHERE id = ?"
			if _, err := r.helper.ExecTx(tx, exchange,
				targetSlot.OwnerID,
				string(persistence.SlotBusy),
				formatTime(resolvedAt),
				request.RequesterSlotID,
			); err != nil {
				return r.mapper.MapError(err)
			}
			if _, err := r.helper.ExecTx(tx, exchange,
				request.RequesterID,
				string(persistence.SlotBusy),
				formatTime(resolvedAt),
				request.TargetSlotID,
			); err != nil {
				return r.mapper.MapError(err)
			}
		} else {
			release := "UPDATE slots SET status = ?, updated_at = ? WHERE id = ? AND status = ?"
			for _, slotID := range []string{request.RequesterSlotID, request.TargetSlotID} {
				if _, err := r.helper.ExecTx(tx, release,
					string(persistence.SlotSwappable),
					formatTime(resolvedAt),
					slotID,
					string(persistence.SlotSwapPending),
				); err != nil {
					return r.mapper.MapError(err)
				}
			}
		}

		request.Status = next
		request.UpdatedAt = resolvedAt.UTC()
		resolved = request
		return nil
	})
	if err != nil {
		return persistence.SwapRequest{}, err
	}

	return resolved, nil
}

// ListIncomingRequests returns PENDING requests targeting a slot the user
// owns, joined with the requester identity and both slots, newest first.
func (r *SwapRequestRepository) ListIncomingRequests(ctx context.Context, ownerID string) ([]persistence.SwapRequestDetail, error) {
	query := swapRequestDetailSelect + `
		WHERE ts.owner_id = ? AND sr.status = ?
		ORDER BY sr.created_at DESC, sr.id
	`
	return r.queryDetails(ctx, query, ownerID, string(persistence.RequestPending))
}

// ListOutgoingRequests returns every request the user initiated, any status,
// joined with the target owner identity and both slots, newest first.
func (r *SwapRequestRepository) ListOutgoingRequests(ctx context.Context, requesterID string) ([]persistence.SwapRequestDetail, error) {
	query := swapRequestDetailSelect + `
		WHERE sr.requester_id = ?
		ORDER BY sr.created_at DESC, sr.id
	`
	return r.queryDetails(ctx, query, requesterID)
}

const swapRequestSelect = `
	SELECT id, requester_id, requester_slot_id, target_slot_id, status, created_at, updated_at
	FROM swap_requests
`

const swapRequestDetailSelect = `
	SELECT sr.id, sr.requester_id, sr.requester_slot_id, sr.target_slot_id, sr.status, sr.created_at, sr.updated_at,
	       ru.display_name, ru.email,
	       ts.owner_id, tu.display_name, tu.email,
	       rs.owner_id, rs.title, rs.start_time, rs.end_time, rs.status,
	       ts.title, ts.start_time, ts.end_time, ts.status
	FROM swap_requests sr
	JOIN users ru ON sr.requester_id = ru.id
	JOIN slots rs ON sr.requester_slot_id = rs.id
	JOIN slots ts ON sr.target_slot_id = ts.id
	JOIN users tu ON ts.owner_id = tu.id
`

func (r *SwapRequestRepository) scanRequest(scanner rowScanner) (persistence.SwapRequest, error) {
	var (
		request   persistence.SwapRequest
		status    string
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&request.ID,
		&request.RequesterID,
		&request.RequesterSlotID,
		&request.TargetSlotID,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.SwapRequest{}, persistence.ErrNotFound
		}
		return persistence.SwapRequest{}, r.mapper.MapError(err)
	}

	request.Status = persistence.RequestStatus(status)
	if request.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.SwapRequest{}, fmt.Errorf("sqlite: failed to parse created_at: %w", err)
	}
	if request.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.SwapRequest{}, fmt.Errorf("sqlite: failed to parse updated_at: %w", err)
	}

	return request, nil
}

func (r *SwapRequestRepository) queryDetails(ctx context.Context, query string, args ...any) ([]persistence.SwapRequestDetail, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var details []persistence.SwapRequestDetail
	for rows.Next() {
		detail, err := r.scanDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}

	return details, rows.Err()
}

func (r *SwapRequestRepository) scanDetail(rows *sql.Rows) (persistence.SwapRequestDetail, error) {
	var (
		detail    persistence.SwapRequestDetail
		status    string
		createdAt string
		updatedAt string

		rsStatus, rsStart, rsEnd string
		tsStatus, tsStart, tsEnd string
	)

	err := rows.Scan(
		&detail.ID,
		&detail.RequesterID,
		&detail.RequesterSlotID,
		&detail.TargetSlotID,
		&status,
		&createdAt,
		&updatedAt,
		&detail.RequesterName,
		&detail.RequesterEmail,
		&detail.TargetOwnerID,
		&detail.TargetOwnerName,
		&detail.TargetOwnerEmail,
		&detail.RequesterSlot.OwnerID,
		&detail.RequesterSlot.Title,
		&rsStart,
		&rsEnd,
		&rsStatus,
		&detail.TargetSlot.Title,
		&tsStart,
		&tsEnd,
		&tsStatus,
	)
	if err != nil {
		return persistence.SwapRequestDetail{}, r.mapper.MapError(err)
	}

	detail.Status = persistence.RequestStatus(status)
	if detail.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.SwapRequestDetail{}, fmt.Errorf("sqlite: failed to parse created_at: %w", err)
	}
	if detail.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.SwapRequestDetail{}, fmt.Errorf("sqlite: failed to parse updated_at: %w", err)
	}

	detail.RequesterSlot.ID = detail.RequesterSlotID
	detail.RequesterSlot.Status = persistence.SlotStatus(rsStatus)
	if detail.RequesterSlot.Start, err = parseTime(rsStart); err != nil {
		return persistence.SwapRequestDetail{}, fmt.Errorf("sqlite: failed to parse requester slot start: %w", err)
	}
	if detail.RequesterSlot.End, err = parseTime(rsEnd); err != nil {
		return persistence.SwapRequestDetail{}, fmt.Errorf("sqlite: failed to parse requester slot end: %w", err)
	}

	detail.TargetSlot.ID = detail.TargetSlotID
	detail.TargetSlot.OwnerID = detail.TargetOwnerID
	detail.TargetSlot.Status = persistence.SlotStatus(tsStatus)
	if detail.TargetSlot.Start, err = parseTime(tsStart); err != nil {
		return persistence.SwapRequestDetail{}, fmt.Errorf("sqlite: failed to parse target slot start: %w", err)
	}
	if detail.TargetSlot.End, err = parseTime(tsEnd); err != nil {
		return persistence.SwapRequestDetail{}, fmt.Errorf("sqlite: failed to parse target slot end: %w", err)
	}

	return detail, nil
}
