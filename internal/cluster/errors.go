package cluster

import "errors"

// Sentinel errors returned by the cluster engine. All are caller misuse;
// none are retried or swallowed.
var (
	// ErrNotFitted indicates a query was issued before Fit (or Attach).
	ErrNotFitted = errors.New("cluster model not fitted")

	// ErrNotAnalyzed indicates labels were requested before Analyze.
	ErrNotAnalyzed = errors.New("clusters not analyzed")

	// ErrTooFewRows indicates the catalog has fewer usable rows than the
	// requested cluster count.
	ErrTooFewRows = errors.New("not enough rows to cluster")
)
