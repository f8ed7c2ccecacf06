package filter

// Smoother is a single-channel exponential smoother. Its zero value is
// unprimed: the first update returns the target unchanged.
type Smoother struct {
	value  float64
	primed bool
}

// Update moves the state toward target by (1 - factor) of the gap and
// returns the new state. A factor of 0 or less passes the target through.
func (s *Smoother) Update(target, factor float64) float64 {
	if !s.primed || factor <= 0 {
		s.value = target
		s.primed = true
		return s.value
	}
	s.value += (target - s.value) * (1 - factor)
	return s.value
}

// UpdateAngle is Update for an angle in degrees. The state moves along the
// shorter arc toward target and stays within (-180, 180].
func (s *Smoother) UpdateAngle(target, factor float64) float64 {
	if !s.primed || factor <= 0 {
		s.value = WrapDegrees(target)
		s.primed = true
		return s.value
	}
	s.value = WrapDegrees(s.value + WrapDegrees(target-s.value)*(1-factor))
	return s.value
}

// Value returns the current state.
func (s *Smoother) Value() float64 {
	return s.value
}

// Reset returns the smoother to its unprimed state.
func (s *Smoother) Reset() {
	*s = Smoother{}
}

// State is the smoothing state of one stream, one smoother per channel.
type State [NumChannels]Smoother
