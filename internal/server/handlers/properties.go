package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/parcelscope/parcelscope/internal/server/response"
	"github.com/parcelscope/parcelscope/pkg/properties"
)

// maxQueryBodyBytes bounds the request body for query endpoints.
const maxQueryBodyBytes = 64 * 1024

// queryRequest is the body of POST /api/v1/properties/query. Either a
// structured address or free text must be supplied.
type queryRequest struct {
	Query      string   `json:"query,omitempty"`
	Address1   string   `json:"address1,omitempty"`
	City       string   `json:"city,omitempty"`
	State      string   `json:"state,omitempty"`
	PostalCode string   `json:"postal_code,omitempty"`
	Lat        *float64 `json:"lat,omitempty"`
	Lng        *float64 `json:"lng,omitempty"`
}

func (req queryRequest) toQuery() properties.Query {
	return properties.Query{
		RawText:    strings.TrimSpace(req.Query),
		Address1:   strings.TrimSpace(req.Address1),
		City:       strings.TrimSpace(req.City),
		State:      strings.TrimSpace(req.State),
		PostalCode: strings.TrimSpace(req.PostalCode),
		Lat:        req.Lat,
		Lng:        req.Lng,
	}
}

// HandleQuery handles POST /api/v1/properties/query.
// @Summary Resolve a property query
// @Description Classifies the query as an address lookup or a general search, aggregates provider data, and returns canonical records with a verification envelope
// @Tags properties
// @Accept json
// @Produce json
// @Success 200 {object} response.Response{data=properties.Result}
// @Failure 400 {object} response.Response{error=response.Error}
// @Failure 502 {object} response.Response{error=response.Error}
// @Router /api/v1/properties/query [post].
func (h *Handlers) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	body := io.LimitReader(r.Body, maxQueryBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			response.BadRequest(w, "Request body required", "")
			return
		}
		response.BadRequest(w, "Invalid JSON body", err.Error())
		return
	}

	query := req.toQuery()
	if query.IsZero() {
		response.BadRequest(w, "Empty query", "Supply either a query string or structured address fields")
		return
	}

	h.resolve(w, r, query)
}

// HandleSearch handles GET /api/v1/properties/search. It accepts the legacy
// single-parameter form (?q=) used by earlier clients and feeds it through
// the same resolution pipeline.
// @Summary Resolve a free-text property search
// @Description Legacy single-parameter search endpoint
// @Tags properties
// @Accept json
// @Produce json
// @Success 200 {object} response.Response{data=properties.Result}
// @Failure 400 {object} response.Response{error=response.Error}
// @Router /api/v1/properties/search [get].
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		response.BadRequest(w, "Missing query parameter", "The q parameter is required")
		return
	}

	h.resolve(w, r, properties.Query{RawText: q})
}

func (h *Handlers) resolve(w http.ResponseWriter, r *http.Request, query properties.Query) {
	result, err := h.resolver.Resolve(r.Context(), query)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Query resolution failed")
		response.ErrorFromType(w, err)
		return
	}

	response.OK(w, result)
}
