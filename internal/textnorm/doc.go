// Package textnorm turns extracted article text into the normalized token
// stream stored in the dataset: sentence and word segmentation, punctuation
// and digit stripping, lowercasing, stopword removal, and dictionary
// lemmatization.
//
// Reference data (Resources) is loaded once per process and shared read-only
// between workers. A Normalizer is not safe for concurrent use; build one
// per worker with New.
package textnorm
