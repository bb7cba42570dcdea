// Package dataset defines the records, interfaces, fault taxonomy, and item
// outcomes shared by the discovery, extraction, and normalization stages of
// the news archive dataset builder.
package dataset
