package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatLine(t *testing.T) {
	ev := AllocationRecordedEvent{
		AllocationID: 7,
		VehicleID:    3,
		VehicleModel: "CG 160",
		MechanicID:   12,
		MechanicName: "Jo Silva",
		StartedAt:    "2026-08-29T10:00:00Z",
	}
	line := formatLine(ev)
	assert.Contains(t, line, "allocation_id=7")
	assert.Contains(t, line, `vehicle="CG 160"`)
	assert.Contains(t, line, `mechanic="Jo Silva"`)
	assert.Contains(t, line, "[2026-08-29T10:00:00Z]")
	assert.Equal(t, uint8('\n'), line[len(line)-1])
}
