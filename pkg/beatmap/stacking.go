package beatmap

import "github.com/Faultbox/beatmap/pkg/math"

// stackDistance is how close, in osu! pixels, two objects must be to stack.
const stackDistance = 3

// processStacking assigns stack counts to overlapping objects and applies
// the resulting offsets to their positions.
func (b *Beatmap) processStacking() {
	threshold := math.TruncToInt32(float64(float32(b.Difficulty.Preempt) * b.StackLeniency))
	if b.FormatVersion >= 6 {
		stackModern(b.HitObjects, threshold)
	} else {
		stackLegacy(b.HitObjects, threshold)
	}

	so := b.Difficulty.StackOffset
	for i := range b.HitObjects {
		obj := &b.HitObjects[i]
		offset := math.Vec2(so, so).Scale(float32(obj.StackCount))
		obj.StartPos = obj.UnstackedStartPos.Sub(offset)
		obj.EndPos = obj.UnstackedEndPos.Sub(offset)
		obj.StackOffset = offset
	}
}

func near(a, b math.Vector2) bool {
	return a.Distance(b) < stackDistance
}

// stackModern walks backwards from every object, pulling earlier objects
// that overlap it onto its stack.
func stackModern(objs []HitObject, threshold int32) {
	extendedStart := 0
	for i := len(objs) - 1; i >= 0; i-- {
		if objs[i].StackCount != 0 || objs[i].Kind == KindSpinner {
			continue
		}

		n := i
		cur := i
		switch objs[cur].Kind {
		case KindCircle:
			for n > 0 {
				n--
				if objs[n].Kind == KindSpinner {
					continue
				}
				if objs[cur].Start-objs[n].End > threshold {
					break
				}

				if n < extendedStart {
					objs[n].StackCount = 0
					extendedStart = n
				}

				// circles sitting on a slider end stack downwards
				if objs[n].Kind == KindSlider && near(objs[n].UnstackedEndPos, objs[cur].UnstackedStartPos) {
					offset := objs[cur].StackCount - objs[n].StackCount + 1
					for j := n + 1; j <= cur; j++ {
						if near(objs[n].UnstackedEndPos, objs[j].UnstackedStartPos) {
							objs[j].StackCount -= offset
						}
					}
					break
				}

				if near(objs[n].UnstackedStartPos, objs[cur].UnstackedStartPos) {
					objs[n].StackCount = objs[cur].StackCount + 1
					cur = n
				}
			}

		case KindSlider:
			for n > 0 {
				n--
				if objs[n].Kind == KindSpinner {
					continue
				}
				if objs[cur].Start-objs[n].Start > threshold {
					break
				}

				if near(objs[n].UnstackedEndPos, objs[cur].UnstackedStartPos) {
					objs[n].StackCount = objs[cur].StackCount + 1
					cur = n
				}
			}
		}
	}
}

// stackLegacy is the forward-only algorithm used by format versions below 6.
func stackLegacy(objs []HitObject, threshold int32) {
	for i := range objs {
		if objs[i].StackCount != 0 && objs[i].Kind != KindSlider {
			continue
		}

		startTime := objs[i].End
		sliderStack := int32(0)
		for j := i + 1; j < len(objs); j++ {
			if objs[j].Start-threshold > startTime {
				break
			}

			if near(objs[j].UnstackedStartPos, objs[i].UnstackedStartPos) {
				objs[i].StackCount++
				startTime = objs[j].End
			} else if near(objs[j].UnstackedStartPos, objs[i].UnstackedEndPos) {
				sliderStack++
				objs[j].StackCount -= sliderStack
				startTime = objs[j].End
			}
		}
	}
}
