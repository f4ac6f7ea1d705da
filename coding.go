package caravel

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"
)

// ============================================================================
// Coding Strategies
// ============================================================================
//
// A coding is a bidirectional mapping between a bounded value domain and a
// compact integer code, letting a coded array store one int32/int64 per
// element instead of one heap object. Codings are immutable once built and
// safe for concurrent use without synchronization. Null never reaches a
// coding: the owning array short-circuits the null sentinel itself.

// CodingTag identifies a coding in the binary persistence registry. Codings
// tagged CodingNone cannot be serialized.
type CodingTag uint8

const (
	CodingNone CodingTag = iota
	CodingStringEnum
	CodingCurrency
	CodingZone
	CodingDate
	CodingInstant
	CodingTimeOfDay
)

// IntCoding maps values of T to int32 codes. Encode must reject values
// outside the declared domain and Decode must reject codes outside the
// table; both fail by panicking with *CodingError.
type IntCoding[T comparable] interface {
	Encode(value T) int32
	Decode(code int32) T
	NullCode() int32
	Tag() CodingTag
}

// LongCoding maps values of T to int64 codes.
type LongCoding[T comparable] interface {
	Encode(value T) int64
	Decode(code int64) T
	NullCode() int64
	Tag() CodingTag
}

// ============================================================================
// Enum / Table Codings (int32)
// ============================================================================

// enumIntCoding assigns codes by sorted natural order over the declared
// members, so code order equals value order.
type enumIntCoding[T cmp.Ordered] struct {
	members []T
	codes   map[T]int32
	tag     CodingTag
}

// NewEnumCoding builds an IntCoding over the given members with codes
// assigned by sorted natural order: the smallest member gets code 0. The
// null code is -1. Duplicate members are collapsed.
func NewEnumCoding[T cmp.Ordered](members []T) IntCoding[T] {
	return newTableCoding(members, CodingNone)
}

func newTableCoding[T cmp.Ordered](members []T, tag CodingTag) *enumIntCoding[T] {
	sorted := append([]T{}, members...)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	codes := make(map[T]int32, len(sorted))
	for i, m := range sorted {
		codes[m] = int32(i)
	}
	if tag == CodingNone {
		if _, ok := any(sorted).([]string); ok {
			tag = CodingStringEnum
		}
	}
	return &enumIntCoding[T]{members: sorted, codes: codes, tag: tag}
}

func (c *enumIntCoding[T]) Encode(value T) int32 {
	code, ok := c.codes[value]
	if !ok {
		panic(codingErrorf("value %v is not in the coding table", value))
	}
	return code
}

func (c *enumIntCoding[T]) Decode(code int32) T {
	if code < 0 || int(code) >= len(c.members) {
		panic(codingErrorf("code %d is outside the coding table of size %d", code, len(c.members)))
	}
	return c.members[code]
}

func (c *enumIntCoding[T]) NullCode() int32 { return -1 }
func (c *enumIntCoding[T]) Tag() CodingTag  { return c.tag }

// table exposes the sorted member list for serialization.
func (c *enumIntCoding[T]) table() []T { return c.members }

// iso4217 is the built-in currency table. Codes index into it after
// lexicographic sorting.
var iso4217 = []string{
	"AED", "ARS", "AUD", "BRL", "CAD", "CHF", "CLP", "CNY", "COP", "CZK",
	"DKK", "EGP", "EUR", "GBP", "HKD", "HUF", "IDR", "ILS", "INR", "JPY",
	"KRW", "MXN", "MYR", "NOK", "NZD", "PEN", "PHP", "PLN", "RON", "RUB",
	"SAR", "SEK", "SGD", "THB", "TRY", "TWD", "USD", "VND", "ZAR",
}

// NewCurrencyCoding builds an IntCoding over the built-in ISO-4217 table.
// Encoding an unknown currency fails loudly rather than substituting a
// default.
func NewCurrencyCoding() IntCoding[string] {
	return newTableCoding(iso4217, CodingCurrency)
}

// defaultZoneNames is the built-in time-zone table: the common IANA region
// zones plus the fixed offset zones.
var defaultZoneNames = func() []string {
	names := []string{
		"UTC",
		"America/Chicago", "America/Denver", "America/Los_Angeles",
		"America/New_York", "America/Sao_Paulo", "America/Toronto",
		"Asia/Dubai", "Asia/Hong_Kong", "Asia/Kolkata", "Asia/Shanghai",
		"Asia/Singapore", "Asia/Tokyo", "Australia/Sydney",
		"Europe/Amsterdam", "Europe/Berlin", "Europe/London",
		"Europe/Madrid", "Europe/Paris", "Europe/Zurich",
	}
	for h := -12; h <= 14; h++ {
		if h == 0 {
			continue
		}
		names = append(names, fmt.Sprintf("UTC%+03d:00", h))
	}
	return names
}()

// NewZoneCoding builds an IntCoding over a sorted zone-name table. Pass nil
// to use the built-in table of IANA region zones and fixed offsets.
func NewZoneCoding(names []string) IntCoding[string] {
	if names == nil {
		names = defaultZoneNames
	}
	return newTableCoding(names, CodingZone)
}

// ============================================================================
// Temporal Codings (int64)
// ============================================================================

const (
	millisPerDay = 86_400_000
	longNullCode = math.MinInt64
)

// dateCoding stores a calendar date as its epoch-day ordinal.
type dateCoding struct{}

// NewDateCoding returns the epoch-day LongCoding for dates. Decoded values
// are midnight UTC.
func NewDateCoding() LongCoding[time.Time] { return dateCoding{} }

func (dateCoding) Encode(value time.Time) int64 {
	return floorDiv(value.UnixMilli(), millisPerDay)
}

func (dateCoding) Decode(code int64) time.Time {
	if code == longNullCode {
		panic(codingErrorf("code %d is not a valid epoch day", code))
	}
	return time.Unix(code*86_400, 0).UTC()
}

func (dateCoding) NullCode() int64 { return longNullCode }
func (dateCoding) Tag() CodingTag  { return CodingDate }

// instantCoding stores a point in time as epoch-millis.
type instantCoding struct{}

// NewInstantCoding returns the epoch-milli LongCoding for instants.
// Sub-millisecond precision is truncated.
func NewInstantCoding() LongCoding[time.Time] { return instantCoding{} }

func (instantCoding) Encode(value time.Time) int64 {
	return value.UnixMilli()
}

func (instantCoding) Decode(code int64) time.Time {
	if code == longNullCode {
		panic(codingErrorf("code %d is not a valid epoch milli", code))
	}
	return time.UnixMilli(code).UTC()
}

func (instantCoding) NullCode() int64 { return longNullCode }
func (instantCoding) Tag() CodingTag  { return CodingInstant }

// timeOfDayCoding stores a time of day as nanoseconds since midnight.
type timeOfDayCoding struct{}

// NewTimeOfDayCoding returns the nanos-of-day LongCoding for times.
func NewTimeOfDayCoding() LongCoding[time.Duration] { return timeOfDayCoding{} }

func (timeOfDayCoding) Encode(value time.Duration) int64 {
	if value < 0 || value >= 24*time.Hour {
		panic(codingErrorf("duration %v is not a time of day", value))
	}
	return int64(value)
}

func (timeOfDayCoding) Decode(code int64) time.Duration {
	if code < 0 || code >= int64(24*time.Hour) {
		panic(codingErrorf("code %d is not a valid nano of day", code))
	}
	return time.Duration(code)
}

func (timeOfDayCoding) NullCode() int64 { return longNullCode }
func (timeOfDayCoding) Tag() CodingTag  { return CodingTimeOfDay }

// floorDiv divides rounding toward negative infinity, so pre-epoch dates
// land on the correct day ordinal.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
