// Package errs defines the closed set of error kinds shared by every layer of
// the tag system.
//
// Each kind is a sentinel error; callers classify failures with errors.Is and
// attach detail with the formatting helpers:
//
//	return errs.TagParseFailuref("data is out-of-bounds: 0x%04X > 0x%04X", end, available)
//
// The sentinel survives wrapping, so a caller several layers up can still do:
//
//	if errors.Is(err, errs.ErrTagParseFailure) { ... }
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTagPath = errors.New("invalid tag path")
	ErrInvalidEnum    = errors.New("invalid enum value")
	ErrInvalidFourCC  = errors.New("invalid FourCC")
	ErrInvalidID      = errors.New("invalid ID")

	ErrTagParseFailure    = errors.New("failed to parse the tag")
	ErrMapParseFailure    = errors.New("failed to parse the map")
	ErrInvalidTagData     = errors.New("invalid tag data")
	ErrMapDataOutOfBounds = errors.New("map data out of bounds")

	ErrTagHeaderGroupTypeMismatch    = errors.New("tag header group type mismatch")
	ErrTagHeaderGroupVersionMismatch = errors.New("tag header group version mismatch")
	ErrTagGroupUnimplemented         = errors.New("tag group is unimplemented")

	ErrChecksumMismatch = errors.New("refused to parse the data (CRC32 mismatch)")

	ErrArrayLimitExceeded        = errors.New("array limit of 0x7FFFFFFF exceeded")
	ErrIndexLimitExceeded        = errors.New("index limit of 0xFFFF exceeded")
	ErrSizeLimitExceeded         = errors.New("size limit exceeded")
	ErrString32SizeLimitExceeded = errors.New("string data is longer than 31 bytes")

	ErrFileNotFound         = errors.New("file not found")
	ErrFailedToReadFile     = errors.New("failed to read file")
	ErrFailedToWriteFile    = errors.New("failed to write file")
	ErrInvalidTagsDirectory = errors.New("invalid tags directory")

	// ErrOther covers failures that do not warrant a dedicated kind.
	ErrOther = errors.New("error")
)

// TagParseFailuref wraps ErrTagParseFailure with detail.
func TagParseFailuref(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTagParseFailure, fmt.Sprintf(format, args...))
}

// MapParseFailuref wraps ErrMapParseFailure with detail.
func MapParseFailuref(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMapParseFailure, fmt.Sprintf(format, args...))
}

// InvalidTagDataf wraps ErrInvalidTagData with detail.
func InvalidTagDataf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTagData, fmt.Sprintf(format, args...))
}

// MapDataOutOfBoundsf wraps ErrMapDataOutOfBounds with detail.
func MapDataOutOfBoundsf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMapDataOutOfBounds, fmt.Sprintf(format, args...))
}

// Otherf wraps ErrOther with detail.
func Otherf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrOther, fmt.Sprintf(format, args...))
}

// FailedToReadFilef wraps ErrFailedToReadFile with the offending path and cause.
func FailedToReadFilef(path string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrFailedToReadFile, path, cause)
}

// FailedToWriteFilef wraps ErrFailedToWriteFile with the offending path and cause.
func FailedToWriteFilef(path string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrFailedToWriteFile, path, cause)
}

// AddCheck returns a + b, or ErrSizeLimitExceeded if the sum overflows.
func AddCheck(a, b int) (int, error) {
	sum := a + b
	if sum < a || sum < b {
		return 0, ErrSizeLimitExceeded
	}
	return sum, nil
}

// MulCheck returns a * b, or ErrSizeLimitExceeded if the product overflows.
func MulCheck(a, b int) (int, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	product := a * b
	if product/a != b || product < 0 {
		return 0, ErrSizeLimitExceeded
	}
	return product, nil
}
