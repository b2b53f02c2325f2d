package utils

import (
	log "github.com/sirupsen/logrus"
)

// Recoverer keeps a background task alive across panics, restarting it up to
// maxPanics times.
func Recoverer(maxPanics, id int, f func()) {
	defer func() {
		if err := recover(); err != nil {
			log.Errorf("Recovered panic in task %v: %v", id, err)
			if maxPanics == 0 {
				panic("too many panics")
			} else {
				go Recoverer(maxPanics-1, id, f)
			}
		}
	}()
	f()
}
