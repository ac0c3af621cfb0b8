package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/eugenenazirov/packer/internal/format"
	"github.com/eugenenazirov/packer/internal/packer"
	"github.com/eugenenazirov/packer/internal/packing"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const defaultMaxBodyBytes = 1 << 20

// Solver runs a batch of packages to completion.
type Solver interface {
	Solve(ctx context.Context, packages []*packing.Package) (packer.Report, error)
}

// SolverInfo describes the active solver configuration.
type SolverInfo struct {
	Strategy      string
	Workers       int
	MaxCandidates int
	Strategies    []string
}

// Handler wires the batch solver into HTTP handlers.
type Handler struct {
	solver       Solver
	info         SolverInfo
	maxBodyBytes int64

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithSolverInfo sets the solver description reported by GET /api/solver.
func WithSolverInfo(info SolverInfo) HandlerOption {
	return func(h *Handler) {
		h.info = info
	}
}

// WithMaxBodyBytes limits the size of request bodies.
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(solver Solver, opts ...HandlerOption) *Handler {
	h := &Handler{
		solver:       solver,
		maxBodyBytes: defaultMaxBodyBytes,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSolver(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := solverResponse{
		Strategy:   h.info.Strategy,
		Workers:    h.info.Workers,
		Strategies: h.info.Strategies,
		Limits: limitsResponse{
			MaxPackageWeight: packing.MaxAmount.Float(),
			MaxItemWeight:    packing.MaxAmount.Float(),
			MaxItemCost:      packing.MaxAmount.Float(),
			MaxCandidates:    h.info.MaxCandidates,
		},
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePack(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	if isJSON(r.Header.Get("Content-Type")) {
		h.packJSON(w, r, body)
		return
	}
	h.packText(w, r, body)
}

func (h *Handler) packText(w http.ResponseWriter, r *http.Request, body io.Reader) {
	packages, err := format.Parse(body)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	if _, err := h.solver.Solve(r.Context(), packages); err != nil {
		writeRequestError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = format.Render(w, packages)
}

func (h *Handler) packJSON(w http.ResponseWriter, r *http.Request, body io.Reader) {
	var req packRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeRequestError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if len(req.Packages) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid request", "packages must contain at least one package")
		return
	}

	packages, err := req.toPackages()
	if err != nil {
		writeRequestError(w, err)
		return
	}

	start := time.Now()
	report, err := h.solver.Solve(r.Context(), packages)
	elapsed := time.Since(start)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	resp := packResponse{
		BatchID:           report.BatchID,
		Packages:          make([]packageResponse, len(packages)),
		Shipped:           report.Shipped,
		CalculationTimeMs: elapsed.Milliseconds(),
	}
	for i, p := range packages {
		resp.Packages[i] = packageResponse{
			Line:   p.Line,
			Ship:   p.Ship,
			Items:  p.SelectedIndices(),
			Cost:   p.Cost.Float(),
			Weight: p.Weight.Float(),
			Output: format.RenderLine(p),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type packRequest struct {
	Packages []packageRequest `json:"packages"`
}

type packageRequest struct {
	Budget float64       `json:"budget"`
	Items  []itemRequest `json:"items"`
}

type itemRequest struct {
	Index  *int    `json:"index"`
	Weight float64 `json:"weight"`
	Cost   float64 `json:"cost"`
}

// toPackages converts the payload into packages, numbering them from 1.
// Item indices default to their 1-based position when omitted; an explicit
// index must be positive.
func (req packRequest) toPackages() ([]*packing.Package, error) {
	packages := make([]*packing.Package, len(req.Packages))
	for i, pr := range req.Packages {
		line := i + 1
		budget, err := packing.AmountFromFloat(pr.Budget)
		if err != nil {
			return nil, &packing.PackageError{Line: line, Reason: fmt.Sprintf("weight budget: %v", err)}
		}

		items := make([]packing.Item, len(pr.Items))
		seen := make(map[int]struct{}, len(pr.Items))
		for j, ir := range pr.Items {
			index := j + 1
			if ir.Index != nil {
				index = *ir.Index
			}
			if index <= 0 {
				return nil, &packing.PackageError{Line: line, Reason: fmt.Sprintf("item index %d must be positive", index)}
			}
			if _, dup := seen[index]; dup {
				return nil, &packing.PackageError{Line: line, Item: index, Reason: "duplicate item index"}
			}
			seen[index] = struct{}{}

			weight, err := packing.AmountFromFloat(ir.Weight)
			if err != nil {
				return nil, &packing.PackageError{Line: line, Item: index, Reason: fmt.Sprintf("weight: %v", err)}
			}
			cost, err := packing.AmountFromFloat(ir.Cost)
			if err != nil {
				return nil, &packing.PackageError{Line: line, Item: index, Reason: fmt.Sprintf("cost: %v", err)}
			}
			items[j] = packing.Item{Index: index, Weight: weight, Cost: cost}
		}
		packages[i] = packing.New(line, budget, items)
	}
	return packages, nil
}

type packResponse struct {
	BatchID           string            `json:"batchId"`
	Packages          []packageResponse `json:"packages"`
	Shipped           int               `json:"shipped"`
	CalculationTimeMs int64             `json:"calculationTimeMs"`
}

type packageResponse struct {
	Line   int     `json:"line"`
	Ship   bool    `json:"ship"`
	Items  []int   `json:"items"`
	Cost   float64 `json:"cost"`
	Weight float64 `json:"weight"`
	Output string  `json:"output"`
}

type solverResponse struct {
	Strategy   string         `json:"strategy"`
	Workers    int            `json:"workers"`
	Strategies []string       `json:"strategies"`
	Limits     limitsResponse `json:"limits"`
}

type limitsResponse struct {
	MaxPackageWeight float64 `json:"maxPackageWeight"`
	MaxItemWeight    float64 `json:"maxItemWeight"`
	MaxItemCost      float64 `json:"maxItemCost"`
	MaxCandidates    int     `json:"maxItemsPerPackage,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

// writeRequestError maps parse, validation and solver errors to responses.
func writeRequestError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, "Request too large",
			fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
	case errors.Is(err, format.ErrMalformedLine),
		errors.Is(err, format.ErrInvalidNumber),
		errors.Is(err, format.ErrDuplicateIndex):
		writeError(w, http.StatusBadRequest, "Invalid input", err.Error(),
			"Each line must look like: 81 : (1,53.38,€45) (2,88.62,€98)")
	case errors.Is(err, packing.ErrInvalidPackage):
		writeError(w, http.StatusUnprocessableEntity, "Invalid package data", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "Request cancelled", err.Error())
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", strings.TrimSpace(err.Error()))
}
