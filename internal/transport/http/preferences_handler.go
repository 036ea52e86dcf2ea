package http

import (
	"net/http"

	"quiz-generator-service/internal/preferences"
)

type preferencesResponse struct {
	preferences.Preferences
	Colors    preferences.Colors `json:"colors"`
	RadiusCSS string             `json:"radiusCss"`
}

func newPreferencesResponse(p preferences.Preferences) preferencesResponse {
	return preferencesResponse{Preferences: p, Colors: p.Colors(), RadiusCSS: p.Radius.CSS()}
}

func (h *Handler) getPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newPreferencesResponse(h.prefs.Get(currentUser(r).ID)))
}

func (h *Handler) updatePreferences(w http.ResponseWriter, r *http.Request) {
	var update preferences.Update
	if err := decodeBody(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	prefs, err := h.prefs.Update(currentUser(r).ID, update)
	if err != nil {
		writeServiceError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, newPreferencesResponse(prefs))
}
