package response

import (
	"encoding/json"
	"net/http"

	"github.com/edubrain/answer-backend/internal/entity"
)

// JSON writes data as a JSON body with the given status.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Message writes the management API envelope: a success flag plus a
// human-readable message.
func Message(w http.ResponseWriter, status int, success bool, message string) {
	JSON(w, status, map[string]any{
		"success": success,
		"message": message,
	})
}

// Failure writes the OCS failure envelope. The OCS userscript treats any
// non-200 status as a broken question bank, so domain failures ship as
// HTTP 200 with code 0.
func Failure(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, entity.FailureResponse{
		Code: 0,
		Msg:  msg,
	})
}
