package models

import "errors"

// Pipeline error taxonomy. The HTTP layer maps these with errors.Is;
// everything else wraps them with context via fmt.Errorf("...: %w", ...).
var (
	// ErrMalformedPayload means the webhook body is unusable: no fields
	// array, or no shop_id among the fields.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrShopNotFound means the shop_id did not resolve to a shop.
	ErrShopNotFound = errors.New("shop not found")

	// ErrDuplicateReview means this respondent already reviewed this shop,
	// caught either by the pre-check or by the store's unique index.
	ErrDuplicateReview = errors.New("duplicate review")

	// ErrModelUnavailable means a model endpoint stayed unusable through
	// the adapter's whole retry budget. Stages recover from it locally;
	// it never reaches the webhook caller.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrPersistence means the document insert failed for a reason other
	// than the unique index.
	ErrPersistence = errors.New("persistence failure")
)
