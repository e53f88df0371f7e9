package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/practice-calendar/internal/appointment"
	"github.com/hackgods/practice-calendar/internal/calendar"
)

func createTimeBlocksHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateTimeBlockRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.PractitionerID == uuid.Nil {
			writeError(w, http.StatusBadRequest, "missing_field", "practitioner_id is required")
			return
		}

		blockSpec, err := blockSpecFromRequest(req, svc.Location())
		if err != nil {
			handleServiceError(w, err)
			return
		}

		blocks, err := svc.CreateTimeBlocks(r.Context(), req.PractitionerID, blockSpec)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]TimeBlockResponse, len(blocks))
		for i := range blocks {
			resp[i] = toTimeBlockResponse(&blocks[i])
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func updateTimeBlockHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		var req UpdateTimeBlockRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		block, err := svc.UpdateTimeBlock(r.Context(), id, appointment.TimeBlockInput{
			Title:    req.Title,
			Notes:    req.Notes,
			StartsAt: req.StartsAt,
			EndsAt:   req.EndsAt,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toTimeBlockResponse(block))
	}
}

func deleteTimeBlockHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		if err := svc.DeleteTimeBlock(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func blockSpecFromRequest(req CreateTimeBlockRequest, loc *time.Location) (calendar.BlockSpec, error) {
	start, err := time.ParseInLocation(time.DateOnly, req.StartDate, loc)
	if err != nil {
		return calendar.BlockSpec{}, calendar.ErrInvalidDateRange
	}
	end := start
	if req.EndDate != "" {
		if end, err = time.ParseInLocation(time.DateOnly, req.EndDate, loc); err != nil {
			return calendar.BlockSpec{}, calendar.ErrInvalidDateRange
		}
	}

	blockSpec := calendar.BlockSpec{
		Title:     req.Title,
		Notes:     req.Notes,
		StartDate: start,
		EndDate:   end,
		AllDay:    req.AllDay,
	}
	if !req.AllDay {
		if blockSpec.StartMinute, err = calendar.ParseClock(req.StartTime); err != nil {
			return calendar.BlockSpec{}, err
		}
		if blockSpec.EndMinute, err = calendar.ParseClock(req.EndTime); err != nil {
			return calendar.BlockSpec{}, err
		}
	}
	return blockSpec, nil
}
