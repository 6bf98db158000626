// Package core provides the pure budgeting and shift-pay domain.
//
// This file computes the pay for a single work session: worked minutes,
// minutes falling inside the late-night premium window, and the resulting
// total at the job's hourly wage.
package core

import (
	"strconv"
	"strings"
)

const (
	minutesPerDay = 24 * 60

	// Late-night premium window, 22:00 to 06:00 the next day.
	nightStartMinute = 22 * 60
	nightEndMinute   = 6*60 + minutesPerDay

	// NightRate is the pay multiplier for minutes worked inside the
	// 22:00-06:00 window.
	NightRate = 1.25
)

// PayResult is the outcome of a pay computation for one shift.
type PayResult struct {
	Total         float64
	WorkedMinutes int
	NightMinutes  int
}

// CalculatePay computes the pay for one shift given an hourly wage, wall-clock
// HH:MM start and end times, and an optional unpaid break interval.
//
// A shift whose end is at or before its start is treated as crossing midnight,
// so "end == start" means a full 24-hour shift, never a zero-length one. The
// break's day alignment relative to an overnight shift is ambiguous, so its
// overlap is evaluated at both candidate placements (the normalized interval
// and the same interval shifted one day forward) and clamped to the shift span.
//
// Malformed start or end times yield the zero PayResult rather than an error:
// a single bad record must not halt aggregate computations. A malformed break
// is ignored. The function is pure.
func CalculatePay(wage float64, startTime, endTime, restStart, restEnd string) PayResult {
	start, okStart := parseClock(startTime)
	end, okEnd := parseClock(endTime)
	if !okStart || !okEnd {
		return PayResult{}
	}

	if end <= start {
		end += minutesPerDay
	}
	span := end - start

	breakMinutes := 0
	rest, haveRest := parseRest(restStart, restEnd)
	if haveRest {
		for _, r := range rest.candidates() {
			breakMinutes += overlap(start, end, r[0], r[1])
		}
		if breakMinutes > span {
			breakMinutes = span
		}
	}

	worked := span - breakMinutes
	if worked < 0 {
		worked = 0
	}

	night := overlap(start, end, nightStartMinute, nightEndMinute)
	if haveRest {
		// Only break minutes inside the shift-night intersection count.
		ns := max(start, nightStartMinute)
		ne := min(end, nightEndMinute)
		if ne > ns {
			for _, r := range rest.candidates() {
				night -= overlap(ns, ne, r[0], r[1])
			}
		}
		if night < 0 {
			night = 0
		}
	}
	if night > worked {
		night = worked
	}

	normal := worked - night
	if normal < 0 {
		normal = 0
	}

	total := Round2(float64(normal)/60*wage + float64(night)/60*wage*NightRate)
	return PayResult{Total: total, WorkedMinutes: worked, NightMinutes: night}
}

// restInterval is a normalized break, end already wrapped past midnight when
// needed.
type restInterval struct {
	start, end int
}

// candidates returns both plausible day placements of the break relative to
// the shift: as normalized, and shifted one full day forward.
func (r restInterval) candidates() [2][2]int {
	return [2][2]int{
		{r.start, r.end},
		{r.start + minutesPerDay, r.end + minutesPerDay},
	}
}

func parseRest(restStart, restEnd string) (restInterval, bool) {
	if restStart == "" || restEnd == "" {
		return restInterval{}, false
	}
	rs, okStart := parseClock(restStart)
	re, okEnd := parseClock(restEnd)
	if !okStart || !okEnd {
		return restInterval{}, false
	}
	if re <= rs {
		re += minutesPerDay
	}
	return restInterval{start: rs, end: re}, true
}

// parseClock converts an HH:MM wall-clock string to minutes since midnight.
func parseClock(t string) (int, bool) {
	parts := strings.Split(t, ":")
	if len(parts) < 2 {
		return 0, false
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, false
	}
	return h*60 + m, true
}

// overlap returns the length of the intersection of [a1,a2) and [b1,b2),
// floored at zero.
func overlap(a1, a2, b1, b2 int) int {
	s := max(a1, b1)
	e := min(a2, b2)
	if e < s {
		return 0
	}
	return e - s
}
