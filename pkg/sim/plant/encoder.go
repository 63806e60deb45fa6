package plant

import (
	"math"

	"github.com/robotalks/dualdrive/pkg/qep"
)

// captureMax is the largest period the 16-bit capture timer can hold.
const captureMax = math.MaxUint16

type encoder struct {
	cfg   *qep.Config
	count float64
	speed float64
}

func (e *encoder) advance(speed, secs float64) {
	e.speed = speed
	e.count += speed / (2 * math.Pi) * float64(e.cfg.CountsPerRev) * secs
}

func (e *encoder) sample() qep.Sample {
	var s qep.Sample
	if revs := float64(e.cfg.CountsPerRev); revs > 0 {
		pos := math.Mod(math.Floor(e.count), revs)
		if pos < 0 {
			pos += revs
		}
		s.Position = uint32(pos)
	}
	s.Direction = 1
	if e.speed < 0 {
		s.Direction = -1
	}
	rps := math.Abs(e.speed) / (2 * math.Pi)
	if rps == 0 || e.cfg.CountsPerRev == 0 {
		s.CaptureOverflow = true
		return s
	}
	period := e.cfg.CaptureClockHz * float64(e.cfg.EdgesPerEvent) / (float64(e.cfg.CountsPerRev) * rps)
	if period > captureMax {
		s.CaptureOverflow = true
		return s
	}
	s.CapturePeriod = uint32(period)
	return s
}

type counter struct {
	plant *Plant
	enc   *encoder
}

// Sample implements qep.Counter.
func (c *counter) Sample() qep.Sample {
	c.plant.lock.Lock()
	defer c.plant.lock.Unlock()
	return c.enc.sample()
}
