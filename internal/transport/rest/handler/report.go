package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"surveyqc/internal/model"
	"surveyqc/internal/service"
)

// ReportHandler serves QC outputs: classification reports, survey
// statistics, bias reports and breakoff aggregates.
type ReportHandler struct {
	qcSvc *service.QCService
}

// NewReportHandler creates a new report handler.
func NewReportHandler(qcSvc *service.QCService) *ReportHandler {
	return &ReportHandler{qcSvc: qcSvc}
}

func parseAlpha(r *http.Request, defaultAlpha float64) (float64, bool) {
	raw := r.URL.Query().Get("alpha")
	if raw == "" {
		return defaultAlpha, true
	}
	alpha, err := strconv.ParseFloat(raw, 64)
	if err != nil || alpha <= 0 || alpha >= 1 {
		return 0, false
	}
	return alpha, true
}

// Stats handles GET /v1/surveys/{surveyId}/stats
func (h *ReportHandler) Stats(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]
	stats, err := h.qcSvc.Stats(r.Context(), surveyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Classification handles
// GET /v1/surveys/{surveyId}/report?classifier=entropy&alpha=0.05&smoothing=true
func (h *ReportHandler) Classification(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]

	classifier := model.Classifier(r.URL.Query().Get("classifier"))
	if classifier == "" {
		classifier = model.ClassifierLogLikelihood
	}
	switch classifier {
	case model.ClassifierEntropy, model.ClassifierLogLikelihood, model.ClassifierLPO,
		model.ClassifierCluster, model.ClassifierStacked, model.ClassifierAll:
	default:
		writeError(w, http.StatusBadRequest, "unknown classifier "+string(classifier))
		return
	}

	alpha, ok := parseAlpha(r, 0.05)
	if !ok {
		writeError(w, http.StatusBadRequest, "alpha must be in (0, 1)")
		return
	}
	// the cluster policy reuses alpha as its cluster count
	if classifier == model.ClassifierCluster || classifier == model.ClassifierStacked {
		if raw := r.URL.Query().Get("k"); raw != "" {
			k, err := strconv.Atoi(raw)
			if err != nil || k <= 0 {
				writeError(w, http.StatusBadRequest, "k must be a positive integer")
				return
			}
			alpha = float64(k)
		} else {
			alpha = 2
		}
	}
	smoothing := r.URL.Query().Get("smoothing") == "true"

	report, err := h.qcSvc.Classify(r.Context(), surveyID, classifier, alpha, smoothing)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Bias handles GET /v1/surveys/{surveyId}/biases/{kind}?alpha=0.05
func (h *ReportHandler) Bias(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	surveyID := vars["surveyId"]
	kind := vars["kind"]
	if kind != "wording" && kind != "order" {
		writeError(w, http.StatusBadRequest, "bias kind must be wording or order")
		return
	}
	alpha, ok := parseAlpha(r, 0.05)
	if !ok {
		writeError(w, http.StatusBadRequest, "alpha must be in (0, 1)")
		return
	}
	report, err := h.qcSvc.Bias(r.Context(), surveyID, kind, alpha)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Breakoff handles GET /v1/surveys/{surveyId}/breakoff
func (h *ReportHandler) Breakoff(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]
	report, err := h.qcSvc.Breakoff(r.Context(), surveyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}
