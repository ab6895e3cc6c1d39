package table

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const logMessageLimit = 25

// LogMessage is an entry in the table log
// If PlayerIDs is empty, it's a general statement, otherwise the message will be rendered like "{player} did X, Y, Z"
type LogMessage struct {
	UUID      string    `json:"uuid"`
	PlayerIDs []string  `json:"playerIds"`
	Message   string    `json:"message"`
	Time      time.Time `json:"time"`
}

// LastAction is the most recent action taken at the table
type LastAction struct {
	PlayerID string    `json:"playerId"`
	Action   Action    `json:"action"`
	Amount   int       `json:"amount"`
	Time     time.Time `json:"time"`
}

func newLogMessage(now time.Time, playerID string, format string, a ...interface{}) *LogMessage {
	var playerIDs []string
	if playerID != "" {
		playerIDs = []string{playerID}
	}

	return &LogMessage{
		UUID:      uuid.New().String(),
		PlayerIDs: playerIDs,
		Message:   fmt.Sprintf(format, a...),
		Time:      now,
	}
}

// addLog appends to the table log, keeping the newest logMessageLimit entries
// NOTE: must be called with the table lock held
func (t *Table) addLog(playerID string, format string, a ...interface{}) {
	m := append(t.logMessages, newLogMessage(t.clock.Now(), playerID, format, a...))
	if count := len(m); count > logMessageLimit {
		m = m[count-logMessageLimit:]
	}

	t.logMessages = m
}
