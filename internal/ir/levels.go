package ir

// Log level indices shared by both decode paths. Index 0 is reserved for
// events without a recognizable level.
const LevelNone = 0

// LevelNames is the fixed ordered list of recognized level names. An event's
// level is an index into this list.
var LevelNames = []string{"NONE", "TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

// LevelByName returns the index of an exact level-name match.
func LevelByName(name string) (int, bool) {
	for i, n := range LevelNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}
