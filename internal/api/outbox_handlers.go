package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/freshmart/grocery-api/internal/models"
	"github.com/freshmart/grocery-api/internal/repository"
)

// getFailedMessagesHandler lists outbox messages that exhausted their
// retries. Admin only.
func (s *Server) getFailedMessagesHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := pagination(r)

	messages, err := s.outboxRepo.GetFailedMessages(r.Context(), limit)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: messages})
}

// retryFailedMessageHandler requeues a failed outbox message for the
// processor to pick up again. Admin only.
func (s *Server) retryFailedMessageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid message ID")
		return
	}

	msg, err := s.outboxRepo.GetMessage(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondWithError(w, http.StatusNotFound, "Outbox message not found")
			return
		}
		s.handleServiceError(w, r, err)
		return
	}

	if msg.Status != models.OutboxStatusFailed {
		s.respondWithError(w, http.StatusConflict, "Only failed messages can be requeued")
		return
	}

	if err := s.outboxRepo.Requeue(r.Context(), id); err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    map[string]interface{}{"id": id, "status": models.OutboxStatusPending},
	})
}
