package caravel

import (
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ============================================================================
// Zone Interning
// ============================================================================

// The zone table is seeded once with the common zone names and grows on
// demand: the first time a new zone name is seen it is loaded and appended,
// so it keeps the same code for the life of the process. Each zone gets a
// small int16 code so a ZonedDateTime array stores two primitive lanes
// instead of one time.Time object per element.

var (
	zoneMu    sync.RWMutex
	zoneOnce  sync.Once
	zoneNames []string
	zoneIndex map[string]int16
	zoneLocs  []*time.Location
)

func initZoneTable() {
	zoneOnce.Do(func() {
		zoneIndex = make(map[string]int16, len(defaultZoneNames))
		for _, name := range defaultZoneNames {
			loc, err := loadZone(name)
			if err != nil {
				// No tzdata for a seed region zone: keep the name, lose
				// the rules.
				loc = time.FixedZone(name, 0)
			}
			appendZone(name, loc)
		}
	})
}

// appendZone registers a zone under the next free code. Callers hold zoneMu
// or run inside the zoneOnce body.
func appendZone(name string, loc *time.Location) int16 {
	code := int16(len(zoneNames))
	zoneNames = append(zoneNames, name)
	zoneLocs = append(zoneLocs, loc)
	zoneIndex[name] = code
	return code
}

func loadZone(name string) (*time.Location, error) {
	if name == "UTC" {
		return time.UTC, nil
	}
	if len(name) >= 6 && (strings.HasPrefix(name, "UTC+") || strings.HasPrefix(name, "UTC-")) {
		hours, err := strconv.Atoi(name[3:6])
		if err == nil {
			return time.FixedZone(name, hours*3600), nil
		}
	}
	return time.LoadLocation(name)
}

// internZone resolves a zone name to its code, assigning a fresh code on
// first encounter. Names that fail to load as a location return an error.
func internZone(name string) (int16, error) {
	initZoneTable()
	zoneMu.RLock()
	code, ok := zoneIndex[name]
	zoneMu.RUnlock()
	if ok {
		return code, nil
	}
	loc, err := loadZone(name)
	if err != nil {
		return 0, err
	}
	zoneMu.Lock()
	defer zoneMu.Unlock()
	if code, ok := zoneIndex[name]; ok {
		return code, nil
	}
	return appendZone(name, loc), nil
}

func zoneCodeOf(name string) int16 {
	code, err := internZone(name)
	if err != nil {
		panic(codingErrorf("zone %q is not a loadable location: %v", name, err))
	}
	return code
}

func zoneLocationOf(code int16) *time.Location {
	initZoneTable()
	zoneMu.RLock()
	defer zoneMu.RUnlock()
	if code < 0 || int(code) >= len(zoneLocs) {
		panic(codingErrorf("zone code %d is outside the interned zone table", code))
	}
	return zoneLocs[code]
}

// ============================================================================
// ZonedDateTime Array
// ============================================================================

// zonedMillisNull marks a null element in the epoch-millis lane.
const zonedMillisNull = math.MinInt64

// zonedArray stores zone-aware timestamps as a primitive epoch-millis lane
// plus a parallel lane of interned zone codes, avoiding a time.Time object
// per element while preserving zone-specific semantics. Two elements are
// equal only when both the millis and the zone code match.
type zonedArray struct {
	baseArray
	*zonedStore
	defaultValue any
}

// zonedStore holds the two lanes shared by every view of one array.
type zonedStore struct {
	millis []int64
	zones  []int16
}

// NewZonedDateTimeArray creates a ZonedDateTime array of the given length
// with every slot null.
func NewZonedDateTimeArray(length int) Array {
	a := &zonedArray{
		baseArray: baseArray{dtype: ZonedDateTime},
		zonedStore: &zonedStore{
			millis: make([]int64, length),
			zones:  make([]int16, length),
		},
	}
	for i := range a.millis {
		a.millis[i] = zonedMillisNull
	}
	return a
}

func (a *zonedArray) Len() int          { return len(a.millis) }
func (a *zonedArray) DefaultValue() any { return a.defaultValue }

func (a *zonedArray) IsNull(index int) bool {
	boundsCheck(index, len(a.millis))
	return a.millis[index] == zonedMillisNull
}

// Time returns the element and whether it is non-null.
func (a *zonedArray) Time(index int) (time.Time, bool) {
	boundsCheck(index, len(a.millis))
	if a.millis[index] == zonedMillisNull {
		return time.Time{}, false
	}
	return time.UnixMilli(a.millis[index]).In(zoneLocationOf(a.zones[index])), true
}

// SetTime stores a timestamp, interning its zone on first encounter. A zone
// name that cannot be loaded panics with *CodingError.
func (a *zonedArray) SetTime(index int, value time.Time) {
	boundsCheck(index, len(a.millis))
	a.millis[index] = value.UnixMilli()
	a.zones[index] = zoneCodeOf(value.Location().String())
}

func (a *zonedArray) setNull(index int) {
	boundsCheck(index, len(a.millis))
	a.millis[index] = zonedMillisNull
	a.zones[index] = 0
}

func (a *zonedArray) Value(index int) any {
	t, ok := a.Time(index)
	if !ok {
		return nil
	}
	return t
}

func (a *zonedArray) SetValue(index int, value any) {
	if value == nil {
		if a.defaultValue == nil {
			a.setNull(index)
		} else {
			a.SetTime(index, a.defaultValue.(time.Time))
		}
		return
	}
	a.SetTime(index, value.(time.Time))
}

func (a *zonedArray) Fill(value any, start, end int) {
	rangeCheck(start, end, len(a.millis))
	for i := start; i < end; i++ {
		a.SetValue(i, value)
	}
}

func (a *zonedArray) Expand(newLength int) {
	if newLength <= len(a.millis) {
		return
	}
	oldLength := len(a.millis)
	grownMillis := make([]int64, newLength)
	grownZones := make([]int16, newLength)
	copy(grownMillis, a.millis)
	copy(grownZones, a.zones)
	a.millis = grownMillis
	a.zones = grownZones
	for i := oldLength; i < newLength; i++ {
		a.millis[i] = zonedMillisNull
		if a.defaultValue != nil {
			a.SetTime(i, a.defaultValue.(time.Time))
		}
	}
}

func (a *zonedArray) Copy() Array {
	clone := *a
	clone.zonedStore = &zonedStore{
		millis: append([]int64{}, a.millis...),
		zones:  append([]int16{}, a.zones...),
	}
	return &clone
}

func (a *zonedArray) CopySlice(start, end int) Array {
	rangeCheck(start, end, len(a.millis))
	clone := *a
	clone.zonedStore = &zonedStore{
		millis: append([]int64{}, a.millis[start:end]...),
		zones:  append([]int16{}, a.zones[start:end]...),
	}
	return &clone
}

func (a *zonedArray) CopyIndexes(indexes []int) Array {
	clone := *a
	clone.zonedStore = &zonedStore{
		millis: make([]int64, len(indexes)),
		zones:  make([]int16, len(indexes)),
	}
	for k, idx := range indexes {
		boundsCheck(idx, len(a.millis))
		clone.millis[k] = a.millis[idx]
		clone.zones[k] = a.zones[idx]
	}
	return &clone
}

func (a *zonedArray) Update(toIndex int, from Array, fromIndex, length int) {
	a.Expand(toIndex + length)
	if src, ok := from.(*zonedArray); ok {
		rangeCheck(fromIndex, fromIndex+length, len(src.millis))
		copy(a.millis[toIndex:toIndex+length], src.millis[fromIndex:fromIndex+length])
		copy(a.zones[toIndex:toIndex+length], src.zones[fromIndex:fromIndex+length])
		return
	}
	for k := 0; k < length; k++ {
		a.SetValue(toIndex+k, from.Value(fromIndex+k))
	}
}

func (a *zonedArray) UpdateIndexes(from Array, fromIndexes, toIndexes []int) {
	checkIndexPair(fromIndexes, toIndexes)
	if src, ok := from.(*zonedArray); ok {
		for k := range fromIndexes {
			boundsCheck(fromIndexes[k], len(src.millis))
			boundsCheck(toIndexes[k], len(a.millis))
			a.millis[toIndexes[k]] = src.millis[fromIndexes[k]]
			a.zones[toIndexes[k]] = src.zones[fromIndexes[k]]
		}
		return
	}
	for k := range fromIndexes {
		a.SetValue(toIndexes[k], from.Value(fromIndexes[k]))
	}
}

// Sort orders by instant, breaking ties on zone code so sibling-partition
// merges stay deterministic. Nulls sort first ascending.
func (a *zonedArray) Sort(start, end, multiplier int) {
	rangeCheck(start, end, len(a.millis))
	comp := comparatorOf(func(i, j int) int {
		c := compareOrdered(a.millis[i], a.millis[j])
		if c == 0 {
			c = compareOrdered(int64(a.zones[i]), int64(a.zones[j]))
		}
		return multiplier * c
	})
	sortRange(comp, swapperOf(func(i, j int) {
		a.millis[i], a.millis[j] = a.millis[j], a.millis[i]
		a.zones[i], a.zones[j] = a.zones[j], a.zones[i]
	}), start, end, a.parallel)
}

func (a *zonedArray) Distinct(limit int) Array {
	type key struct {
		millis int64
		zone   int16
	}
	seen := make(map[key]struct{})
	out := &zonedArray{
		baseArray:    baseArray{dtype: ZonedDateTime},
		zonedStore:   &zonedStore{},
		defaultValue: a.defaultValue,
	}
	for i := range a.millis {
		k := key{a.millis[i], a.zones[i]}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out.millis = append(out.millis, a.millis[i])
		out.zones = append(out.zones, a.zones[i])
		if limit > 0 && len(out.millis) >= limit {
			break
		}
	}
	return out
}

func (a *zonedArray) CumSum() Array {
	unsupported("CumSum", ZonedDateTime)
	return nil
}

func (a *zonedArray) Parallel() Array {
	clone := *a
	clone.parallel = true
	return &clone
}

func (a *zonedArray) Sequential() Array {
	clone := *a
	clone.parallel = false
	return &clone
}
