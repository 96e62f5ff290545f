package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"servepoint-pos-service/internal/middleware"
	"servepoint-pos-service/internal/state"
	"servepoint-pos-service/internal/store"
	"servepoint-pos-service/pkg/response"

	"github.com/jackc/pgx/v5"
)

type fireLineNote struct {
	LineID    int64    `json:"lineId"`
	Comment   string   `json:"comment"`
	Modifiers []string `json:"modifiers"`
}

type fireRequest struct {
	OrderID  any            `json:"orderId"`
	FireType string         `json:"fireType"` // all | items | course
	ItemIDs  []int64        `json:"itemIds"`
	CourseNo *int32         `json:"courseNo"`
	Rush     bool           `json:"rush"`
	Notes    []fireLineNote `json:"notes"`
}

// OrderFire sends pending lines to the kitchen. Money is never touched
// here; a retried fire finds no pending lines and fires nothing.
func (h *Handler) OrderFire(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc, ok := middleware.GetTenantContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Staff context not found")
		return
	}

	var body fireRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	orderID, ok := parseNumericID(body.OrderID)
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}

	fireType := strings.ToLower(strings.TrimSpace(body.FireType))
	switch fireType {
	case "", "all":
		fireType = "all"
	case "items":
		if len(body.ItemIDs) == 0 {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Item IDs are required for an item fire")
			return
		}
	case "course":
		if body.CourseNo == nil {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Course number is required for a course fire")
			return
		}
	default:
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid fire type")
		return
	}

	var (
		order *store.Order
		fired []store.Line
	)
	firedAt := time.Now()

	err := store.WithTx(ctx, h.DB, h.Config.LockTimeout, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		order, err = store.GetOrderForUpdate(ctx, tx, tc.TenantID, tc.BranchID, orderID)
		if err != nil {
			return err
		}
		if violation := state.CanFire(order.Status); violation != nil {
			return violation
		}

		lines, err := store.GetLinesForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}

		fired = selectFireLines(lines, fireType, body.ItemIDs, body.CourseNo)
		ids := make([]int64, 0, len(fired))
		for _, l := range fired {
			ids = append(ids, l.ID)
		}
		if err := store.FireLines(ctx, tx, orderID, ids, firedAt); err != nil {
			return err
		}

		for i := range fired {
			note := fireNoteFor(body.Notes, fired[i].ID)
			if note == nil && !body.Rush {
				continue
			}
			var notes *string
			if note != nil {
				text := formatFireNote(*note)
				if text != "" {
					notes = &text
				}
			}
			if err := store.UpdateLineFireNotes(ctx, tx, fired[i].ID, notes, body.Rush); err != nil {
				return err
			}
			fired[i].Rush = body.Rush
			if notes != nil {
				fired[i].Notes = notes
			}
		}
		return nil
	})
	if err != nil {
		h.writeMutationError(w, "order fire", err)
		return
	}

	firedIDs := make([]int64, 0, len(fired))
	for i := range fired {
		fired[i].KitchenStatus = state.KitchenPreparing
		fired[i].FiredAt = &firedAt
		firedIDs = append(firedIDs, fired[i].ID)
	}

	if len(fired) > 0 {
		h.Audit.Record(auditEntry(tc, orderID, "fired", map[string]any{
			"fireType": fireType,
			"lineIds":  firedIDs,
			"rush":     body.Rush,
		}))
		h.KDS.Broadcast(tc.TenantID, tc.BranchID, map[string]any{
			"type":        "order.fired",
			"orderId":     orderID,
			"orderNumber": order.OrderNumber,
			"rush":        body.Rush,
			"firedAt":     firedAt,
			"items":       lineSnapshots(fired),
		})
	}

	response.Success(w, map[string]any{
		"orderId":      orderID,
		"orderNumber":  order.OrderNumber,
		"firedCount":   len(fired),
		"firedLineIds": firedIDs,
	})
}

// selectFireLines picks the lines a fire request targets. Only lines still
// PENDING are eligible regardless of scope.
func selectFireLines(lines []store.Line, fireType string, itemIDs []int64, courseNo *int32) []store.Line {
	wanted := make(map[int64]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = struct{}{}
	}

	out := make([]store.Line, 0, len(lines))
	for _, l := range lines {
		if l.IsVoided || l.KitchenStatus != state.KitchenPending {
			continue
		}
		switch fireType {
		case "items":
			if _, ok := wanted[l.ID]; !ok {
				continue
			}
		case "course":
			if courseNo == nil || l.CourseNo == nil || *l.CourseNo != *courseNo {
				continue
			}
		}
		out = append(out, l)
	}
	return out
}

func fireNoteFor(notes []fireLineNote, lineID int64) *fireLineNote {
	for i := range notes {
		if notes[i].LineID == lineID {
			return &notes[i]
		}
	}
	return nil
}

func formatFireNote(note fireLineNote) string {
	parts := make([]string, 0, len(note.Modifiers)+1)
	for _, m := range note.Modifiers {
		if trimmed := strings.TrimSpace(m); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if comment := strings.TrimSpace(note.Comment); comment != "" {
		parts = append(parts, comment)
	}
	return strings.Join(parts, "; ")
}
