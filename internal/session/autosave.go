package session

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// StartAutosave saves dirty rooms on the given cron spec until Stop.
func (h *Hub) StartAutosave(spec string) error {
	if spec == "" {
		spec = DefaultAutosaveSpec
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, h.SaveDirty); err != nil {
		return fmt.Errorf("schedule autosave %q: %w", spec, err)
	}
	h.cron = c
	c.Start()
	h.logger.Info("autosave scheduled", "spec", spec)
	return nil
}

// SaveDirty saves every open room with unsaved changes and waits for the
// saves to finish.
func (h *Hub) SaveDirty() {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.mu.RUnlock()

	for _, room := range rooms {
		room.doWait(room.saveIfDirty)
	}
}
