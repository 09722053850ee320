package location

import "github.com/okian/isp/pkg/logger"

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithClassifier enables classification. Without one the Normalizer runs in
// degraded mode and only canonicalizes DC spellings.
func WithClassifier(c Classifier) Option {
	return func(n *Normalizer) {
		n.classifier = c
	}
}

// WithCache sets the shared location cache.
func WithCache(c Cache) Option {
	return func(n *Normalizer) {
		if c != nil {
			n.cache = c
		}
	}
}

// WithBatchSize sets how many classifier calls run concurrently per batch.
func WithBatchSize(size int) Option {
	return func(n *Normalizer) {
		if size > 0 {
			n.batchSize = size
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.log = l
		}
	}
}
