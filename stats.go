/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
)

type Stats struct {
	Players        int                `json:"players"`
	PlayersInRooms int                `json:"playersInRooms"`
	Rooms          int                `json:"rooms"`
	RoomsByKind    map[RoomKind]int   `json:"roomsByKind"`
	RoomsByStatus  map[RoomStatus]int `json:"roomsByStatus"`
	Uptime         string             `json:"uptime"`
}

// Stats is a read-only snapshot for monitoring.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Players:       c.players.Len(),
		Rooms:         c.rooms.Len(),
		RoomsByKind:   map[RoomKind]int{RoomPublic: 0, RoomPrivate: 0},
		RoomsByStatus: map[RoomStatus]int{},
		Uptime:        c.now().Sub(c.started).Round(time.Second).String(),
	}

	c.rooms.Each(func(room *Room) bool {
		s.RoomsByKind[room.Kind]++
		s.RoomsByStatus[room.Status]++
		s.PlayersInRooms += len(room.Members)
		return true
	})

	return s
}

func humanReadableSize(bytes int64) string {
	const unit int64 = 1000
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := unit, 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "kMGTPE"[exp])
}

func serveStats(cfg *Config, coord *Coordinator, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		body, err := json.MarshalIndent(coord.Stats(), "", "  ")
		if err != nil {
			errs <- err
			http.Error(w, "stats unavailable", http.StatusInternalServerError)

			return
		}
		body = append(body, '\n')

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		securityHeaders(cfg, w)

		written, err := w.Write(body)
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Stats (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}
