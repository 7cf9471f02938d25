package model

import "time"

// Day is a weekday, numbered from 1 (Monday) to 7 (Sunday).
type Day struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Days lists the week starting on Monday.
func Days() []Day {
	days := make([]Day, 0, 7)
	for i := 1; i <= 7; i++ {
		days = append(days, Day{ID: i, Name: time.Weekday(i % 7).String()})
	}
	return days
}

// DayByID returns the weekday for id.
func DayByID(id int) (Day, bool) {
	if id < 1 || id > 7 {
		return Day{}, false
	}
	return Day{ID: id, Name: time.Weekday(id % 7).String()}, true
}
