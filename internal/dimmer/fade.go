package dimmer

// FadeStep is the largest change of the output level per tick. With a 10ms
// tick a full 0..1023 sweep takes 52 ticks, roughly half a second.
const FadeStep = 20

// BrightnessState is the transient output state.
type BrightnessState struct {
	Current int `json:"current"`
	Target  int `json:"target"`
}

func (b BrightnessState) Settled() bool {
	return b.Current == b.Target
}

// Fade moves current one step toward target without passing it.
func Fade(current, target int) int {
	switch {
	case current < target:
		current += FadeStep
		if current > target {
			current = target
		}
	case current > target:
		current -= FadeStep
		if current < target {
			current = target
		}
	}
	return current
}

// TicksToSettle is the number of Fade calls needed to reach target.
func TicksToSettle(current, target int) int {
	d := target - current
	if d < 0 {
		d = -d
	}
	return (d + FadeStep - 1) / FadeStep
}
