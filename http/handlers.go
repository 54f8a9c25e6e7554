package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"homeprice/predict"
)

const (
	errorKindValidation = "validation_error"
	errorKindInternal   = "internal_error"
	errorKindNotFound   = "not_found"
	errorKindMethod     = "method_not_allowed"

	internalErrorMessage = "an unexpected error occurred"
)

// routes lists the public endpoints as "METHOD path".
var routes = []struct {
	Method string
	Path   string
	Doc    string
}{
	{http.MethodGet, "/health", "Health check"},
	{http.MethodGet, "/get_location_names", "List known locations"},
	{http.MethodPost, "/predict_home_price", "Predict property price"},
}

type errorResponse struct {
	Error              string               `json:"error"`
	Message            string               `json:"message"`
	ValidationErrors   []predict.FieldError `json:"validation_errors,omitempty"`
	AvailableEndpoints []string             `json:"available_endpoints,omitempty"`
}

type locationsResponse struct {
	Locations []string `json:"locations"`
	Count     int      `json:"count"`
}

// Handler serves the API from an injected prediction service.
type Handler struct {
	svc    *predict.Service
	logger *zap.Logger
}

func NewHandler(svc *predict.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

func RegisterHandlers(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /{$}", h.handleHome)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /get_location_names", h.handleLocations)
	mux.HandleFunc("POST /predict_home_price", h.handlePredict)
	mux.HandleFunc("/", h.handleNotFound)
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	endpoints := make(map[string]string, len(routes))
	for _, route := range routes {
		endpoints[route.Method+" "+route.Path] = route.Doc
	}
	h.respond(w, http.StatusOK, map[string]interface{}{
		"message":   "Real Estate Price Prediction API",
		"status":    "running",
		"endpoints": endpoints,
		"usage": map[string]interface{}{
			"method": http.MethodPost,
			"path":   "/predict_home_price",
			"body": map[string]interface{}{
				predict.FieldTotalSqft: 1200,
				predict.FieldLocation:  "Whitefield",
				predict.FieldBHK:       3,
				predict.FieldBath:      2,
			},
		},
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.svc.Counters().IncRequests()
	h.respond(w, http.StatusOK, h.svc.Health())
}

func (h *Handler) handleLocations(w http.ResponseWriter, r *http.Request) {
	h.svc.Counters().IncRequests()
	locations := h.svc.Locations()
	h.respond(w, http.StatusOK, locationsResponse{Locations: locations, Count: len(locations)})
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	h.svc.Counters().IncRequests()

	raw, status, err := decodePredictRequest(r)
	if err == nil {
		var estimate *predict.Estimate
		estimate, err = h.svc.Predict(raw)
		if err == nil {
			h.respond(w, http.StatusOK, estimate)
			return
		}
		status = http.StatusBadRequest
	}

	var verr *predict.ValidationError
	if errors.As(err, &verr) {
		h.logger.Debug("rejected prediction request",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Any("validation_errors", verr.Fields))
		h.respond(w, status, errorResponse{
			Error:            errorKindValidation,
			Message:          "request validation failed",
			ValidationErrors: verr.Fields,
		})
		return
	}

	h.svc.Counters().IncInternalErrors()
	h.logger.Error("prediction failed",
		zap.String("request_id", GetRequestID(r.Context())),
		zap.Error(err))
	respondInternalError(w)
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	available := make([]string, 0, len(routes))
	for _, route := range routes {
		if route.Path == r.URL.Path {
			w.Header().Set("Allow", route.Method)
			h.respond(w, http.StatusMethodNotAllowed, errorResponse{
				Error:   errorKindMethod,
				Message: r.Method + " is not supported on " + route.Path,
			})
			return
		}
		available = append(available, route.Method+" "+route.Path)
	}
	h.respond(w, http.StatusNotFound, errorResponse{
		Error:              errorKindNotFound,
		Message:            "the requested endpoint does not exist",
		AvailableEndpoints: available,
	})
}

// decodePredictRequest reads a JSON object or form fields into a loosely
// typed map for predict.Validate. Body problems come back as a
// *predict.ValidationError on the "body" field with the status to use.
func decodePredictRequest(r *http.Request) (map[string]interface{}, int, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data" {
		var err error
		if mediaType == "multipart/form-data" {
			err = r.ParseMultipartForm(1 << 20)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			return nil, bodyErrorStatus(err), bodyError("request body is not a valid form")
		}
		raw := make(map[string]interface{}, len(r.PostForm))
		for key, values := range r.PostForm {
			if len(values) > 0 {
				raw[key] = values[0]
			}
		}
		return raw, http.StatusOK, nil
	}

	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	var raw map[string]interface{}
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, http.StatusBadRequest, bodyError("request body is empty")
		}
		return nil, bodyErrorStatus(err), bodyError("request body must be a JSON object")
	}
	if raw == nil {
		return nil, http.StatusBadRequest, bodyError("request body must be a JSON object")
	}
	return raw, http.StatusOK, nil
}

func bodyError(message string) error {
	return &predict.ValidationError{Fields: []predict.FieldError{{Field: "body", Message: message}}}
}

func bodyErrorStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func (h *Handler) respond(w http.ResponseWriter, status int, data interface{}) {
	if err := writeJSON(w, status, data); err != nil {
		h.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

func respondInternalError(w http.ResponseWriter) {
	_ = writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   errorKindInternal,
		Message: internalErrorMessage,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}
