package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/famto/api/internal/platform/httpx"
	"github.com/famto/api/internal/platform/storage"
	"github.com/famto/api/internal/services"
)

const defaultProofURLExpiry = 10 * time.Minute

// ObjectCopier copies a stored object between buckets.
type ObjectCopier interface {
	CopyObject(ctx context.Context, sourceBucket, sourceObject, destBucket, destObject string) error
}

// ProofURLHandlers issues short-lived signed download URLs for delivery proof
// images and drives their archival to the retention bucket.
type ProofURLHandlers struct {
	orders        services.OrderService
	urls          *storage.Client
	bucket        string
	expiry        time.Duration
	copier        ObjectCopier
	archiveBucket string
}

// ProofURLOption customises proof URL handler behaviour.
type ProofURLOption func(*ProofURLHandlers)

// WithProofArchive enables the internal proof archival endpoint, copying
// objects into the given retention bucket.
func WithProofArchive(copier ObjectCopier, bucket string) ProofURLOption {
	return func(h *ProofURLHandlers) {
		h.copier = copier
		h.archiveBucket = strings.TrimSpace(bucket)
	}
}

// WithProofURLExpiry overrides the signed URL lifetime.
func WithProofURLExpiry(expiry time.Duration) ProofURLOption {
	return func(h *ProofURLHandlers) {
		if expiry > 0 {
			h.expiry = expiry
		}
	}
}

// NewProofURLHandlers constructs proof URL handlers over the uploads bucket.
func NewProofURLHandlers(orders services.OrderService, urls *storage.Client, bucket string, opts ...ProofURLOption) (*ProofURLHandlers, error) {
	if orders == nil {
		return nil, errors.New("handlers: order service is required")
	}
	if urls == nil {
		return nil, errors.New("handlers: signed url client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("handlers: uploads bucket is required")
	}
	h := &ProofURLHandlers{
		orders: orders,
		urls:   urls,
		bucket: bucket,
		expiry: defaultProofURLExpiry,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// Routes registers the proof download URL endpoint inside an authenticated
// order route group.
func (h *ProofURLHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/{orderID}/proof/{fileName}/url", h.downloadURL)
}

// AgentRoutes registers the endpoint under the agent group's /orders prefix.
func (h *ProofURLHandlers) AgentRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/orders/{orderID}/proof/{fileName}/url", h.downloadURL)
}

// InternalRoutes registers the retention worker callbacks.
func (h *ProofURLHandlers) InternalRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/orders/{orderID}/proof/archive", h.archiveProofs)
}

type proofURLResponse struct {
	URL       string `json:"url"`
	Method    string `json:"method"`
	ExpiresAt string `json:"expires_at"`
}

func (h *ProofURLHandlers) downloadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	fileName := strings.TrimSpace(chi.URLParam(r, "fileName"))
	if orderID == "" || fileName == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id and file name are required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	identity, err := storage.AuthorizeDownloadFromContext(ctx, order.CustomerID, false)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("permission_denied", "not allowed to access this proof", http.StatusForbidden))
		return
	}

	object, ok := h.proofObject(order, fileName)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("proof_not_found", "no delivery proof with that file name", http.StatusNotFound))
		return
	}

	result, err := h.urls.SignedURL(ctx, h.bucket, object, storage.SignedURLOptions{
		Download: &storage.DownloadOptions{
			ExpiresIn:   h.expiry,
			OwnerID:     order.CustomerID,
			Identity:    identity,
			Disposition: fmt.Sprintf("inline; filename=%q", fileName),
		},
	})
	if err != nil {
		if errors.Is(err, storage.ErrPermissionDenied) {
			httpx.WriteError(ctx, w, httpx.NewError("permission_denied", "not allowed to access this proof", http.StatusForbidden))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("signing_failed", "failed to sign download url", http.StatusInternalServerError))
		return
	}

	writeJSONResponse(w, http.StatusOK, proofURLResponse{
		URL:       result.URL,
		Method:    result.Method,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (h *ProofURLHandlers) archiveProofs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.copier == nil || h.archiveBucket == "" {
		httpx.WriteError(ctx, w, httpx.NewError("archive_unavailable", "proof archival is not configured", http.StatusServiceUnavailable))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	archived := 0
	if order.DetailAddedByAgent != nil {
		for _, image := range order.DetailAddedByAgent.Images {
			object, err := h.objectFromImageURL(image)
			if err != nil {
				httpx.WriteError(ctx, w, httpx.NewError("archive_failed", "proof image url does not address the uploads bucket", http.StatusBadGateway))
				return
			}
			if err := h.copier.CopyObject(ctx, h.bucket, object, h.archiveBucket, object); err != nil {
				httpx.WriteError(ctx, w, httpx.NewError("archive_failed", "failed to copy proof object", http.StatusBadGateway))
				return
			}
			archived++
		}
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"archived": archived})
}

// proofObject resolves the stored object path for a proof file, confirming the
// file actually belongs to the order.
func (h *ProofURLHandlers) proofObject(order services.Order, fileName string) (string, bool) {
	if order.DetailAddedByAgent == nil {
		return "", false
	}
	for _, image := range order.DetailAddedByAgent.Images {
		if !strings.HasSuffix(image, "/"+fileName) {
			continue
		}
		object, err := storage.BuildObjectPath(storage.PurposeDeliveryProof, storage.PathParams{
			OrderID:  order.ID,
			FileName: fileName,
		})
		if err != nil {
			return "", false
		}
		return object, true
	}
	return "", false
}

func (h *ProofURLHandlers) objectFromImageURL(image string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(image))
	if err != nil {
		return "", err
	}
	prefix := "/" + h.bucket + "/"
	if !strings.HasPrefix(parsed.Path, prefix) {
		return "", fmt.Errorf("url does not address bucket %s", h.bucket)
	}
	object := strings.TrimPrefix(parsed.Path, prefix)
	if object == "" {
		return "", errors.New("url has no object path")
	}
	return object, nil
}
