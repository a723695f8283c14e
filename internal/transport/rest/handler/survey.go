package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"surveyqc/internal/interpreter"
	"surveyqc/internal/model"
	"surveyqc/internal/service"
)

// SurveyHandler handles survey registration and simulation endpoints.
type SurveyHandler struct {
	qcSvc *service.QCService
}

// NewSurveyHandler creates a new survey handler.
func NewSurveyHandler(qcSvc *service.QCService) *SurveyHandler {
	return &SurveyHandler{qcSvc: qcSvc}
}

// Register handles POST /v1/surveys
func (h *SurveyHandler) Register(w http.ResponseWriter, r *http.Request) {
	var doc model.SurveyDoc
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid survey document: "+err.Error())
		return
	}
	if err := h.qcSvc.RegisterSurvey(r.Context(), &doc); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": doc.ID})
}

// List handles GET /v1/surveys
func (h *SurveyHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.qcSvc.ListSurveys(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// Simulate handles POST /v1/surveys/{surveyId}/simulate?n=500&adversary=uniform
func (h *SurveyHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]

	n := 500
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}
	adv := interpreter.AdversaryUniform
	switch r.URL.Query().Get("adversary") {
	case "", "uniform":
	case "first":
		adv = interpreter.AdversaryFirst
	case "last":
		adv = interpreter.AdversaryLast
	default:
		writeError(w, http.StatusBadRequest, "adversary must be uniform, first or last")
		return
	}

	count, err := h.qcSvc.Simulate(r.Context(), surveyID, n, adv)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"simulated": count})
}
