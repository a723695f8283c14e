package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"surveyqc/internal/service"
	"surveyqc/internal/transport/rest/handler"
)

// Container holds all dependencies for the router.
type Container struct {
	QCService *service.QCService
}

// NewRouter creates the report server router. This is a localhost diagnostic
// surface over the QC engine; it serves computed reports, it does not serve
// surveys to live respondents.
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	surveyHandler := handler.NewSurveyHandler(c.QCService)
	reportHandler := handler.NewReportHandler(c.QCService)

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/surveys", surveyHandler.Register).Methods("POST")
	v1.HandleFunc("/surveys", surveyHandler.List).Methods("GET")
	v1.HandleFunc("/surveys/{surveyId}/simulate", surveyHandler.Simulate).Methods("POST")

	v1.HandleFunc("/surveys/{surveyId}/stats", reportHandler.Stats).Methods("GET")
	v1.HandleFunc("/surveys/{surveyId}/report", reportHandler.Classification).Methods("GET")
	v1.HandleFunc("/surveys/{surveyId}/biases/{kind}", reportHandler.Bias).Methods("GET")
	v1.HandleFunc("/surveys/{surveyId}/breakoff", reportHandler.Breakoff).Methods("GET")

	return r
}
