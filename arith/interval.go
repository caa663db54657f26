package arith

//*******************************************
// interval
//*******************************************

// Closed interval of int64 values. INT64_MIN/INT64_MAX bounds are read as
// unbounded below/above.
type Interval struct {
	Min int64
	Max int64
}

func FullInterval() Interval {
	return Interval{INT64_MIN, INT64_MAX}
}

func (self Interval) IsEmpty() bool {
	return self.Min > self.Max
}

//*******************************************
// extended interval
//*******************************************

// Interval that tracks how many of the terms summed into each bound were
// unbounded. Adding many unbounded intervals with plain sentinel arithmetic
// would saturate to finite-looking values, the infinity counts keep
// intersection and subtraction exact.
type ExtendedInterval struct {
	Min            int64
	Max            int64
	NumNegInfinity int32
	NumPosInfinity int32
}

func ToExtended(interval Interval) ExtendedInterval {
	is_neg_infinity := interval.Min == INT64_MIN
	is_pos_infinity := interval.Max == INT64_MAX
	e := ExtendedInterval{}
	if is_neg_infinity {
		e.NumNegInfinity = 1
	} else {
		e.Min = interval.Min
	}
	if is_pos_infinity {
		e.NumPosInfinity = 1
	} else {
		e.Max = interval.Max
	}
	return e
}

func ToExtendedAll(intervals []Interval) []ExtendedInterval {
	extended := make([]ExtendedInterval, 0, len(intervals))
	for _, interval := range intervals {
		extended = append(extended, ToExtended(interval))
	}
	return extended
}

func (self ExtendedInterval) EffectiveMin() int64 {
	if self.NumNegInfinity > 0 {
		return INT64_MIN
	}
	return self.Min
}

func (self ExtendedInterval) EffectiveMax() int64 {
	if self.NumPosInfinity > 0 {
		return INT64_MAX
	}
	return self.Max
}

func (self ExtendedInterval) IsEmpty() bool {
	return self.EffectiveMin() > self.EffectiveMax()
}

func min32(a int32, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func Intersect(i1 ExtendedInterval, i2 ExtendedInterval) ExtendedInterval {
	minimum := i1.EffectiveMin()
	if m := i2.EffectiveMin(); m > minimum {
		minimum = m
	}
	maximum := i1.EffectiveMax()
	if m := i2.EffectiveMax(); m < maximum {
		maximum = m
	}
	return ExtendedInterval{
		Min:            minimum,
		Max:            maximum,
		NumNegInfinity: min32(i1.NumNegInfinity, i2.NumNegInfinity),
		NumPosInfinity: min32(i1.NumPosInfinity, i2.NumPosInfinity),
	}
}

func Add(i1 ExtendedInterval, i2 ExtendedInterval) ExtendedInterval {
	return ExtendedInterval{
		Min:            CapAdd(i1.Min, i2.Min),
		Max:            CapAdd(i1.Max, i2.Max),
		NumNegInfinity: i1.NumNegInfinity + i2.NumNegInfinity,
		NumPosInfinity: i1.NumPosInfinity + i2.NumPosInfinity,
	}
}

func Sub(i1 ExtendedInterval, i2 ExtendedInterval) ExtendedInterval {
	return ExtendedInterval{
		Min:            CapSub(i1.Min, i2.Max),
		Max:            CapSub(i1.Max, i2.Min),
		NumNegInfinity: i1.NumNegInfinity + i2.NumPosInfinity,
		NumPosInfinity: i1.NumPosInfinity + i2.NumNegInfinity,
	}
}

// The interval delta such that from + delta = to.
// Note that this is not the same as to + (-from).
func Delta(from ExtendedInterval, to ExtendedInterval) ExtendedInterval {
	return ExtendedInterval{
		Min:            CapSub(to.Min, from.Min),
		Max:            CapSub(to.Max, from.Max),
		NumNegInfinity: to.NumNegInfinity - from.NumNegInfinity,
		NumPosInfinity: to.NumPosInfinity - from.NumPosInfinity,
	}
}
