/*
Copyright © 2021 the TagTools authors.
This file is part of TagTools.

TagTools is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

TagTools is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with TagTools.  If not, see <http://www.gnu.org/licenses/>.
*/

package tagtools

import (
	"math"
	"time"
)

// Absorption returns the absorption of sound in seawater in dB per
// meter, for frequency f in Hz, temperature t in degrees C and depth d
// in meters. It follows Kinsler and Frey, pp. 159-160.
func Absorption(f, t, d float64) float64 {
	ta := t + 273
	pa := 1 + d/10
	f1 := 1320 * ta * math.Exp(-1700/ta)
	f2 := 15500000 * ta * math.Exp(-3052/ta)
	a := 8.95e-8 * (1 + 0.023*t - 0.00051*t*t)
	b := 4.88e-7 * (1 + 0.013*t) * (1 - 0.0009*pa)
	c := 4.76e-13 * (1 - 0.040*t + 0.00059*t*t) * (1 - 0.00038*pa)
	f2f := f * f
	return a*f1*f2f/(f1*f1+f2f) + b*f2*f2f/(f2*f2+f2f) + c*f2f
}

// JulianDay returns the day of the year of t, from 1 to 366.
func JulianDay(t time.Time) int { return t.YearDay() }

// DateFromJulianDay returns the UTC date of day of year. Days beyond
// the end of the year roll into the next one.
func DateFromJulianDay(year, day int) time.Time {
	return time.Date(year, time.January, day, 0, 0, 0, 0, time.UTC)
}

// JulianDayOf returns the day of the year of the given date.
func JulianDayOf(year int, month time.Month, day int) int {
	return JulianDay(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}
