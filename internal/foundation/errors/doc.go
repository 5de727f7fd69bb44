// Package errors provides the classified error primitives used across autobuilder.
//
// A ClassifiedError carries a category, a severity, a retry strategy and a
// context map. Errors are created through the fluent ErrorBuilder:
//
//	err := errors.WrapError(cause, errors.CategoryPack, "write archive").
//		WithContext("path", outputFile).
//		Build()
//
// The HTTP and CLI adapters translate categories into status codes and exit
// codes respectively.
package errors
