// Package errors provides the classified error type used across mdgraph.
//
// Errors carry a category (config, filesystem, render, ...), a severity and a small
// context map. The category decides how a failure is treated: configuration and
// render failures are reported per document, filesystem failures abort a batch.
//
// Example usage:
//
//	err := errors.ConfigError("no pipeline for language").
//		WithContext("language", lang).
//		WithContext("path", sourcePath).
//		Build()
package errors
